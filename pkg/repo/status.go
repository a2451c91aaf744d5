package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/odvcencio/rug/pkg/index"
	"github.com/odvcencio/rug/pkg/object"
	"github.com/odvcencio/rug/pkg/workspace"
)

// FileStatus represents the state of a file in one comparison.
type FileStatus int

const (
	StatusUnmodified FileStatus = iota
	StatusAdded                 // in the index, not in HEAD
	StatusModified              // content or mode differs
	StatusDeleted               // missing from the newer side
)

// Code returns the porcelain status letter.
func (s FileStatus) Code() byte {
	switch s {
	case StatusAdded:
		return 'A'
	case StatusModified:
		return 'M'
	case StatusDeleted:
		return 'D'
	default:
		return ' '
	}
}

func (s FileStatus) String() string {
	switch s {
	case StatusAdded:
		return "new file"
	case StatusModified:
		return "modified"
	case StatusDeleted:
		return "deleted"
	default:
		return "unmodified"
	}
}

// StatusEntry records the status of a single tracked or formerly tracked
// file.
type StatusEntry struct {
	Path        string
	IndexStatus FileStatus // index vs HEAD
	WorkStatus  FileStatus // workspace vs index
}

// StatusReport is the result of one status run. Besides the classified
// paths it keeps what the run learned so diff can reuse it.
type StatusReport struct {
	Entries   []StatusEntry // sorted by path
	Untracked []string      // sorted; directories end in "/"

	HeadCommit object.Hash
	HeadTree   map[string]object.TreeEntry
	Index      []*index.Entry

	stats    map[string]fs.FileInfo
	contents map[string][]byte
}

// Clean reports whether there is nothing to commit and nothing untracked.
func (s *StatusReport) Clean() bool {
	return len(s.Entries) == 0 && len(s.Untracked) == 0
}

// Staged returns the entries with index changes.
func (s *StatusReport) Staged() []StatusEntry {
	var out []StatusEntry
	for _, e := range s.Entries {
		if e.IndexStatus != StatusUnmodified {
			out = append(out, e)
		}
	}
	return out
}

// Unstaged returns the entries with workspace changes.
func (s *StatusReport) Unstaged() []StatusEntry {
	var out []StatusEntry
	for _, e := range s.Entries {
		if e.WorkStatus != StatusUnmodified {
			out = append(out, e)
		}
	}
	return out
}

// Stat returns the workspace metadata seen for a tracked path.
func (s *StatusReport) Stat(p string) (fs.FileInfo, bool) {
	info, ok := s.stats[p]
	return info, ok
}

// Content returns the workspace bytes read for p during the run, if any.
func (s *StatusReport) Content(p string) ([]byte, bool) {
	data, ok := s.contents[p]
	return data, ok
}

type statusScan struct {
	repo   *Repo
	idx    *index.Index
	report *StatusReport

	fastPath int
	rehashed int
}

// Status computes the working tree status for the repository.
//
// Algorithm:
//  1. Load the index, taking its lock when it is free.
//  2. Walk the workspace from the root, recursing only into tracked
//     directories; everything else that holds a trackable file is untracked.
//  3. Compare each index entry against the workspace (stat first, then
//     rehash when the stat data cannot be trusted).
//  4. Compare each index entry against the HEAD tree.
//  5. Write refreshed stat data back when the lock was taken.
func (r *Repo) Status() (*StatusReport, error) {
	idx := r.NewIndex()
	locked := true
	if err := idx.LoadForUpdate(); err != nil {
		if !errors.Is(err, index.ErrIndexLocked) {
			return nil, fmt.Errorf("status: %w", err)
		}
		r.logger.Debug("index locked, status will not refresh stat data", "path", r.IndexPath)
		locked = false
		if err := idx.Load(); err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
	}
	defer idx.Release()

	s := &statusScan{
		repo: r,
		idx:  idx,
		report: &StatusReport{
			stats:    make(map[string]fs.FileInfo),
			contents: make(map[string][]byte),
		},
	}

	if err := s.scanDir(""); err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	changes := make(map[string]*StatusEntry)
	entry := func(p string) *StatusEntry {
		e, ok := changes[p]
		if !ok {
			e = &StatusEntry{Path: p}
			changes[p] = e
		}
		return e
	}

	for _, e := range idx.Entries() {
		st, err := s.checkWorkspace(e)
		if err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		if st != StatusUnmodified {
			entry(e.Path).WorkStatus = st
		}
	}

	head, err := r.ReadHeadCommit()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	headTree, err := r.FlattenTree(r.NewArena(), head)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	for _, e := range idx.Entries() {
		he, ok := headTree[e.Path]
		switch {
		case !ok:
			entry(e.Path).IndexStatus = StatusAdded
		case he.Hash != e.Hash || he.Mode != e.Mode:
			entry(e.Path).IndexStatus = StatusModified
		}
	}
	for p := range headTree {
		if !idx.IsTrackedFile(p) {
			entry(p).IndexStatus = StatusDeleted
		}
	}

	rep := s.report
	rep.HeadCommit = head
	rep.HeadTree = headTree
	rep.Index = idx.Entries()
	for _, e := range changes {
		rep.Entries = append(rep.Entries, *e)
	}
	sort.Slice(rep.Entries, func(i, j int) bool { return rep.Entries[i].Path < rep.Entries[j].Path })
	sort.Strings(rep.Untracked)

	r.logger.Debug("status computed",
		"entries", len(rep.Entries), "untracked", len(rep.Untracked),
		"fast_path", s.fastPath, "rehashed", s.rehashed)

	if locked && idx.Changed() {
		if err := idx.WriteUpdates(); err != nil {
			r.logger.Warn("could not refresh index stat data", "error", err)
		}
	}
	return rep, nil
}

// scanDir records the stat data of tracked files under dir and collects
// untracked paths. Untracked directories are reported once, with a
// trailing slash, and not descended into.
func (s *statusScan) scanDir(dir string) error {
	children, err := s.repo.Workspace.ListDir(dir)
	if err != nil {
		if errors.Is(err, workspace.ErrPathNotFound) {
			return nil
		}
		return err
	}
	for _, p := range workspace.SortedNames(children) {
		info := children[p]
		switch {
		case info.IsDir() && s.idx.IsTracked(p) && !s.idx.IsTrackedFile(p):
			if err := s.scanDir(p); err != nil {
				return err
			}
		case info.Mode().IsRegular() && s.idx.IsTrackedFile(p):
			s.report.stats[p] = info
		default:
			ok, err := s.trackable(p, info)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if info.IsDir() {
				p += "/"
			}
			s.report.Untracked = append(s.report.Untracked, p)
		}
	}
	return nil
}

// trackable reports whether p is a regular file or a directory holding at
// least one non-ignored regular file at any depth.
func (s *statusScan) trackable(p string, info fs.FileInfo) (bool, error) {
	if info.Mode().IsRegular() {
		return true, nil
	}
	if !info.IsDir() {
		return false, nil
	}
	children, err := s.repo.Workspace.ListDir(p)
	if err != nil {
		if errors.Is(err, workspace.ErrPathNotFound) {
			return false, nil
		}
		return false, err
	}
	names := workspace.SortedNames(children)
	// Files first: they answer without recursion.
	for _, c := range names {
		if children[c].Mode().IsRegular() {
			return true, nil
		}
	}
	for _, c := range names {
		if !children[c].IsDir() {
			continue
		}
		ok, err := s.trackable(c, children[c])
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// checkWorkspace classifies one index entry against the workspace. Mode or
// size mismatches are modifications without reading the file. Matching
// timestamps are trusted unless the entry is racily clean; anything else is
// settled by rehashing, and an unchanged rehash refreshes the cached stat.
func (s *statusScan) checkWorkspace(e *index.Entry) (FileStatus, error) {
	info, ok := s.report.stats[e.Path]
	if !ok {
		// The scan skips ignored paths, but ignore rules never hide a
		// tracked file.
		st, err := s.repo.Workspace.Stat(e.Path)
		switch {
		case errors.Is(err, workspace.ErrPathNotFound):
			return StatusDeleted, nil
		case err != nil:
			return StatusUnmodified, err
		case !st.Mode().IsRegular():
			return StatusDeleted, nil
		}
		info = st
		s.report.stats[e.Path] = info
	}
	if !e.StatMatch(info) {
		return StatusModified, nil
	}
	if e.TimesMatch(info) && !e.RacilyClean(s.idx.ModTime()) {
		s.fastPath++
		return StatusUnmodified, nil
	}

	data, err := s.repo.Workspace.Read(e.Path)
	if err != nil {
		if errors.Is(err, workspace.ErrPathNotFound) {
			delete(s.report.stats, e.Path)
			return StatusDeleted, nil
		}
		return StatusUnmodified, err
	}
	s.rehashed++
	s.report.contents[e.Path] = data
	if object.HashObject(object.TypeBlob, data) != e.Hash {
		return StatusModified, nil
	}
	s.idx.UpdateStat(e, info)
	return StatusUnmodified, nil
}
