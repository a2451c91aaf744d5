package repo

import (
	"fmt"

	"github.com/odvcencio/rug/pkg/object"
)

// LogEntry is one commit in first-parent history.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.CommitObj
}

// Log walks the commit history starting from the given hash, following
// first-parent links, returning up to limit commits newest first. A limit
// of zero or less walks to the root.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	arena := r.NewArena()
	var entries []LogEntry
	for current := start; current != ""; {
		if limit > 0 && len(entries) >= limit {
			break
		}
		c, err := arena.Commit(current)
		if err != nil {
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		entries = append(entries, LogEntry{Hash: current, Commit: c})
		current = c.Parent()
	}
	return entries, nil
}
