package repo

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/rug/pkg/object"
)

// ReflogEntry is one recorded ref move.
type ReflogEntry struct {
	Ref     string
	OldHash object.Hash
	NewHash object.Hash
	Who     object.Signature
	Reason  string
}

// appendReflog records a ref move in Git's reflog line format:
//
//	<old> <new> <name> <email> <unix> <tz>\t<reason>
func (r *Repo) appendReflog(ref string, oldHash, newHash object.Hash, reason string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	if strings.TrimSpace(reason) == "" {
		reason = "update"
	}

	who, err := r.Identity()
	if err != nil {
		who = object.Signature{Name: "unknown", Email: "unknown", When: r.now()}
	}

	logPath := filepath.Join(r.LogsDir, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("reflog mkdir: %w", err)
	}

	if oldHash == "" {
		oldHash = object.ZeroHash
	}
	if newHash == "" {
		newHash = object.ZeroHash
	}
	reason = strings.ReplaceAll(reason, "\n", " ")
	line := fmt.Sprintf("%s %s %s\t%s\n", oldHash, newHash, object.FormatSignature(who), reason)

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("reflog open: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("reflog write: %w", err)
	}
	return nil
}

// ReadReflog returns up to limit entries for ref, newest first. A limit of
// zero or less returns everything. An empty ref or "HEAD" reads HEAD's log;
// a short name reads the branch log.
func (r *Repo) ReadReflog(ref string, limit int) ([]ReflogEntry, error) {
	refName := r.reflogRefName(ref)

	f, err := os.Open(filepath.Join(r.LogsDir, filepath.FromSlash(refName)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reflog %q: %w", refName, err)
	}
	defer f.Close()

	var entries []ReflogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		head, reason, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		parts := strings.SplitN(head, " ", 3)
		if len(parts) < 3 {
			continue
		}
		who, err := object.ParseSignature(parts[2])
		if err != nil {
			continue
		}
		entries = append(entries, ReflogEntry{
			Ref:     refName,
			OldHash: object.Hash(parts[0]),
			NewHash: object.Hash(parts[1]),
			Who:     who,
			Reason:  reason,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read reflog %q: %w", refName, err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *Repo) reflogRefName(ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "" || ref == headRef || ref == "@":
		return headRef
	case strings.HasPrefix(ref, "refs/"):
		return ref
	default:
		return branchPrefix + ref
	}
}
