package repo

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/odvcencio/rug/pkg/index"
	"github.com/odvcencio/rug/pkg/object"
	"github.com/odvcencio/rug/pkg/workspace"
)

// RelPath converts p, interpreted relative to dir, to a slash-separated
// path relative to the workspace root. Paths outside the root are rejected.
func (r *Repo) RelPath(dir, p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	rel, err := filepath.Rel(r.Root, filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("path %q: %w", p, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("path %q is outside repository at %q", p, r.Root)
	}
	if rel == "." {
		return "", nil
	}
	return rel, nil
}

// Add stages the given root-relative paths. Directories expand to every
// non-ignored file beneath them plus every tracked file, ignored or not;
// tracked files that no longer exist are unstaged. A path that neither
// exists nor is tracked fails with workspace.ErrPathNotFound and leaves the
// index untouched.
//
// The index lock is held for the whole operation and taken fail-fast, so a
// concurrent writer surfaces as index.ErrIndexLocked.
func (r *Repo) Add(paths []string) error {
	idx := r.NewIndex()
	if err := idx.LoadForUpdate(); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	defer idx.Release()

	// Collect everything up front so a bad argument aborts before any
	// blob is written.
	var files []string
	var gone []string
	for _, p := range paths {
		listed, err := r.Workspace.ListFiles(p)
		switch {
		case errors.Is(err, workspace.ErrPathNotFound):
			if !idx.IsTracked(p) {
				return fmt.Errorf("add: %w", err)
			}
			gone = append(gone, p)
			continue
		case err != nil:
			return fmt.Errorf("add: %w", err)
		}
		present, vanished := r.trackedBeneath(idx, p, listed)
		files = append(files, listed...)
		files = append(files, present...)
		gone = append(gone, vanished...)
	}

	for _, p := range gone {
		idx.RemoveTree(p)
	}
	if err := r.stageFiles(idx, files); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	r.logger.Debug("staged paths", "files", len(files), "removed", len(gone))
	return idx.WriteUpdates()
}

// stageFiles writes a blob and index entry for each file. A file that
// disappears after it was listed is treated like any other vanished path.
func (r *Repo) stageFiles(idx *index.Index, files []string) error {
	for _, f := range files {
		err := r.stageFile(idx, f)
		switch {
		case errors.Is(err, workspace.ErrPathNotFound):
			r.logger.Debug("file vanished while staging", "path", f)
			idx.RemoveTree(f)
		case err != nil:
			return err
		}
	}
	return nil
}

func (r *Repo) stageFile(idx *index.Index, p string) error {
	data, err := r.Workspace.Read(p)
	if err != nil {
		return err
	}
	info, err := r.Workspace.Stat(p)
	if err != nil {
		return err
	}
	h, err := r.Store.WriteBlob(&object.Blob{Data: data})
	if err != nil {
		return fmt.Errorf("stage %q: %w", p, err)
	}
	idx.Add(p, h, info)
	return nil
}

// trackedBeneath splits the tracked files at or under dir that the listing
// skipped: present ones (hidden by ignore rules) and ones that no longer
// exist.
func (r *Repo) trackedBeneath(idx *index.Index, dir string, listed []string) (present, gone []string) {
	dir = path.Clean(filepath.ToSlash(dir))
	seen := make(map[string]struct{}, len(listed))
	for _, f := range listed {
		seen[f] = struct{}{}
	}
	for _, e := range idx.Entries() {
		if dir != "." && e.Path != dir && !strings.HasPrefix(e.Path, dir+"/") {
			continue
		}
		if _, ok := seen[e.Path]; ok {
			continue
		}
		info, err := r.Workspace.Stat(e.Path)
		switch {
		case errors.Is(err, workspace.ErrPathNotFound):
			gone = append(gone, e.Path)
		case err == nil && info.Mode().IsRegular():
			present = append(present, e.Path)
		}
	}
	return present, gone
}

// Remove unstages the given paths (directories recursively). Unless cached
// is set, the files are also deleted from the workspace. A path that is not
// tracked is an error.
func (r *Repo) Remove(paths []string, cached bool) error {
	idx := r.NewIndex()
	if err := idx.LoadForUpdate(); err != nil {
		return fmt.Errorf("rm: %w", err)
	}
	defer idx.Release()

	for _, p := range paths {
		if !idx.IsTracked(p) {
			return fmt.Errorf("rm %q: %w: not tracked", p, workspace.ErrPathNotFound)
		}
	}
	for _, p := range paths {
		dir := path.Clean(p)
		var victims []string
		for _, e := range idx.Entries() {
			if e.Path == dir || dir == "." || strings.HasPrefix(e.Path, dir+"/") {
				victims = append(victims, e.Path)
			}
		}
		idx.RemoveTree(p)
		if cached {
			continue
		}
		for _, v := range victims {
			if err := r.Workspace.Remove(v); err != nil && !errors.Is(err, workspace.ErrPathNotFound) {
				return fmt.Errorf("rm: %w", err)
			}
		}
	}
	return idx.WriteUpdates()
}
