// Package index implements the staging area: an ordered set of path entries
// persisted in Git's DIRC version 2 layout with a SHA-1 trailer.
package index

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/odvcencio/rug/pkg/lockfile"
	"github.com/odvcencio/rug/pkg/object"
)

// Index is the in-memory staging area backed by one index file.
type Index struct {
	path    string
	lock    *lockfile.Lockfile
	logger  *slog.Logger
	entries map[string]*Entry
	keys    []string
	// parents maps each directory to the tracked files beneath it.
	parents map[string]map[string]struct{}
	changed bool
	modTime time.Time
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for debug events.
func WithLogger(l *slog.Logger) Option {
	return func(idx *Index) {
		if l != nil {
			idx.logger = l
		}
	}
}

// New returns an empty, unloaded index for the file at path.
func New(path string, opts ...Option) *Index {
	idx := &Index{
		path:   path,
		lock:   lockfile.New(path),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.clear()
	return idx
}

func (idx *Index) clear() {
	idx.entries = make(map[string]*Entry)
	idx.keys = nil
	idx.parents = make(map[string]map[string]struct{})
	idx.changed = false
	idx.modTime = time.Time{}
}

// Path returns the index file path.
func (idx *Index) Path() string { return idx.path }

// ModTime is the index file's modification time as of the last Load, or
// the zero time when no file existed.
func (idx *Index) ModTime() time.Time { return idx.modTime }

// Load replaces the in-memory entries with the file's contents. A missing
// file yields an empty index.
func (idx *Index) Load() error {
	idx.clear()

	data, err := os.ReadFile(idx.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			idx.logger.Debug("index missing, starting empty", "path", idx.path)
			return nil
		}
		return fmt.Errorf("load index %q: %w", idx.path, err)
	}
	entries, err := decode(idx.path, data)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	for _, e := range entries {
		idx.store(e)
	}
	if info, err := os.Stat(idx.path); err == nil {
		idx.modTime = info.ModTime()
	}
	idx.logger.Debug("index loaded", "path", idx.path, "entries", len(entries))
	return nil
}

// LoadForUpdate takes the index lock, failing fast with ErrIndexLocked,
// and then loads the file.
func (idx *Index) LoadForUpdate() error {
	if err := idx.hold(); err != nil {
		return err
	}
	if err := idx.Load(); err != nil {
		idx.Release()
		return err
	}
	return nil
}

func (idx *Index) hold() error {
	if err := idx.lock.Hold(); err != nil {
		if errors.Is(err, lockfile.ErrLocked) {
			return fmt.Errorf("%w: %w", ErrIndexLocked, err)
		}
		return fmt.Errorf("lock index: %w", err)
	}
	idx.logger.Debug("index lock acquired", "path", idx.lock.LockPath())
	return nil
}

// Locked reports whether this handle holds the index lock.
func (idx *Index) Locked() bool { return idx.lock.Held() }

// Release drops the lock without writing.
func (idx *Index) Release() {
	if idx.lock.Held() {
		_ = idx.lock.Rollback()
		idx.logger.Debug("index lock released", "path", idx.lock.LockPath())
	}
}

// WriteUpdates commits pending changes through the held lock. With no
// changes the lock is simply released.
func (idx *Index) WriteUpdates() error {
	if !idx.lock.Held() {
		return fmt.Errorf("write index %q: %w", idx.path, lockfile.ErrNotHeld)
	}
	if !idx.changed {
		idx.Release()
		return nil
	}
	data, err := encode(idx.Entries())
	if err != nil {
		idx.Release()
		return fmt.Errorf("write index %q: %w", idx.path, err)
	}
	if _, err := idx.lock.Write(data); err != nil {
		idx.Release()
		return fmt.Errorf("write index %q: %w", idx.path, err)
	}
	if err := idx.lock.Commit(); err != nil {
		return fmt.Errorf("write index %q: %w", idx.path, err)
	}
	idx.changed = false
	if info, err := os.Stat(idx.path); err == nil {
		idx.modTime = info.ModTime()
	}
	idx.logger.Debug("index saved", "path", idx.path, "entries", len(idx.keys))
	return nil
}

// Save takes the lock if needed and writes pending changes.
func (idx *Index) Save() error {
	if !idx.lock.Held() {
		if err := idx.hold(); err != nil {
			return err
		}
	}
	return idx.WriteUpdates()
}

// Add stages hash for path using info as the cached metadata. Entries that
// conflict with the new path are dropped: a file at one of its parent
// directories, or files beneath a directory of the same name.
func (idx *Index) Add(p string, h object.Hash, info os.FileInfo) *Entry {
	e := NewEntry(cleanPath(p), h, info)
	idx.discardConflicts(e.Path)
	idx.store(e)
	idx.changed = true
	return e
}

// Put stages a fully built entry, replacing any existing one.
func (idx *Index) Put(e *Entry) {
	e.Path = cleanPath(e.Path)
	e.Flags = pathFlags(e.Path)
	idx.discardConflicts(e.Path)
	idx.store(e)
	idx.changed = true
}

func (idx *Index) discardConflicts(p string) {
	for _, dir := range parentDirs(p) {
		idx.remove(dir)
	}
	idx.removeChildren(p)
}

// Remove unstages the file at path. It reports whether an entry existed.
func (idx *Index) Remove(p string) bool {
	return idx.remove(cleanPath(p))
}

// RemoveTree unstages path and, if it is a directory, every file beneath it.
// It reports whether anything was removed.
func (idx *Index) RemoveTree(p string) bool {
	p = cleanPath(p)
	removed := idx.remove(p)
	if idx.removeChildren(p) {
		removed = true
	}
	return removed
}

func (idx *Index) removeChildren(dir string) bool {
	children, ok := idx.parents[dir]
	if !ok {
		return false
	}
	paths := make([]string, 0, len(children))
	for child := range children {
		paths = append(paths, child)
	}
	for _, child := range paths {
		idx.remove(child)
	}
	return len(paths) > 0
}

func (idx *Index) store(e *Entry) {
	if _, exists := idx.entries[e.Path]; !exists {
		i := sort.SearchStrings(idx.keys, e.Path)
		idx.keys = append(idx.keys, "")
		copy(idx.keys[i+1:], idx.keys[i:])
		idx.keys[i] = e.Path
	}
	idx.entries[e.Path] = e
	for _, dir := range parentDirs(e.Path) {
		set, ok := idx.parents[dir]
		if !ok {
			set = make(map[string]struct{})
			idx.parents[dir] = set
		}
		set[e.Path] = struct{}{}
	}
}

func (idx *Index) remove(p string) bool {
	if _, ok := idx.entries[p]; !ok {
		return false
	}
	delete(idx.entries, p)
	i := sort.SearchStrings(idx.keys, p)
	idx.keys = append(idx.keys[:i], idx.keys[i+1:]...)
	for _, dir := range parentDirs(p) {
		set := idx.parents[dir]
		delete(set, p)
		if len(set) == 0 {
			delete(idx.parents, dir)
		}
	}
	idx.changed = true
	return true
}

// Entries returns the entries ordered by path.
func (idx *Index) Entries() []*Entry {
	out := make([]*Entry, len(idx.keys))
	for i, k := range idx.keys {
		out[i] = idx.entries[k]
	}
	return out
}

// Entry returns the entry for path.
func (idx *Index) Entry(p string) (*Entry, bool) {
	e, ok := idx.entries[cleanPath(p)]
	return e, ok
}

// IsTrackedFile reports whether path itself is staged.
func (idx *Index) IsTrackedFile(p string) bool {
	_, ok := idx.entries[cleanPath(p)]
	return ok
}

// IsTracked reports whether path is a staged file or a directory that
// contains staged files.
func (idx *Index) IsTracked(p string) bool {
	p = cleanPath(p)
	if _, ok := idx.entries[p]; ok {
		return true
	}
	_, ok := idx.parents[p]
	return ok
}

// UpdateStat refreshes an entry's cached metadata.
func (idx *Index) UpdateStat(e *Entry, info os.FileInfo) {
	e.Stat = StatFromFileInfo(info)
	idx.changed = true
}

// Reset drops every entry. The next write stores an empty index.
func (idx *Index) Reset() {
	mod := idx.modTime
	idx.clear()
	idx.modTime = mod
	idx.changed = true
}

// Len returns the number of entries.
func (idx *Index) Len() int { return len(idx.keys) }

// Changed reports whether there are unsaved modifications.
func (idx *Index) Changed() bool { return idx.changed }
