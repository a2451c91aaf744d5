package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/rug/pkg/lockfile"
	"github.com/odvcencio/rug/pkg/object"
)

// Branch is a named ref under refs/heads/.
type Branch struct {
	Name    string
	Hash    object.Hash
	Current bool
}

// ValidateBranchName applies Git's ref-name rules to a branch name.
func ValidateBranchName(name string) error {
	invalid := func(reason string) error {
		return fmt.Errorf("%w: branch name %q %s", ErrInvalidRef, name, reason)
	}
	switch {
	case name == "":
		return invalid("is empty")
	case name == "@" || name == headRef:
		return invalid("is reserved")
	case strings.HasPrefix(name, "-"):
		return invalid("starts with '-'")
	case strings.HasSuffix(name, "/") || strings.HasSuffix(name, "."):
		return invalid("ends with '/' or '.'")
	case strings.Contains(name, ".."), strings.Contains(name, "@{"), strings.Contains(name, "//"):
		return invalid("contains a forbidden sequence")
	}
	for _, c := range name {
		if c < 0x20 || c == 0x7f || strings.ContainsRune(" ~^:?*[\\", c) {
			return invalid(fmt.Sprintf("contains forbidden character %q", c))
		}
	}
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".lock") {
			return invalid("has a component starting with '.' or ending in '.lock'")
		}
	}
	return nil
}

// CreateBranch creates a new branch pointing at start. It fails with
// ErrBranchExists if the branch already exists.
func (r *Repo) CreateBranch(name string, start object.Hash) error {
	if err := ValidateBranchName(name); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	if _, err := object.ParseHash(string(start)); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	refName := branchPrefix + name

	lock := lockfile.New(r.refPath(refName))
	if err := lock.HoldWait(refLockWaitLimit); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	if _, err := os.Stat(r.refPath(refName)); err == nil {
		lock.Rollback()
		return fmt.Errorf("create branch %q: %w", name, ErrBranchExists)
	}
	if _, err := lock.Write([]byte(string(start) + "\n")); err != nil {
		lock.Rollback()
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	if err := lock.Commit(); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	r.logger.Debug("branch created", "name", name, "hash", start)

	if err := r.appendReflog(refName, "", start, "branch: Created from "+start.Short()); err != nil {
		return &RefUpdateReflogError{Ref: refName, NewHash: start, Err: err}
	}
	return nil
}

// DeleteBranch removes refs/heads/<name> and its reflog, returning the id
// the branch pointed to. The current branch cannot be deleted.
func (r *Repo) DeleteBranch(name string) (object.Hash, error) {
	current, err := r.CurrentBranch()
	if err != nil {
		return "", fmt.Errorf("delete branch: %w", err)
	}
	if current == name {
		return "", fmt.Errorf("delete branch: cannot delete current branch %q", name)
	}

	refName := branchPrefix + name
	h, err := r.readRef(refName)
	if err != nil {
		return "", fmt.Errorf("delete branch %q: %w", name, err)
	}
	if h == "" {
		return "", fmt.Errorf("delete branch %q: %w: branch not found", name, ErrInvalidRef)
	}

	lock := lockfile.New(r.refPath(refName))
	if err := lock.HoldWait(refLockWaitLimit); err != nil {
		return "", fmt.Errorf("delete branch %q: %w", name, err)
	}
	err = os.Remove(r.refPath(refName))
	lock.Rollback()
	if err != nil {
		return "", fmt.Errorf("delete branch %q: %w", name, err)
	}
	os.Remove(filepath.Join(r.LogsDir, filepath.FromSlash(refName)))
	r.pruneEmptyRefDirs(filepath.Dir(r.refPath(refName)), filepath.Join(r.RefsDir, "heads"))
	r.logger.Debug("branch deleted", "name", name, "hash", h)
	return h, nil
}

func (r *Repo) pruneEmptyRefDirs(dir, stop string) {
	for dir != stop && strings.HasPrefix(dir, stop) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// ListBranches walks refs/heads/ and returns every branch sorted by name.
// Names may contain '/'.
func (r *Repo) ListBranches() ([]Branch, error) {
	headsDir := filepath.Join(r.RefsDir, "heads")
	current, err := r.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}

	var branches []Branch
	err = filepath.WalkDir(headsDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), ".lock") {
			return nil
		}
		rel, err := filepath.Rel(headsDir, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		h, err := r.readRef(branchPrefix + name)
		if err != nil {
			return err
		}
		branches = append(branches, Branch{Name: name, Hash: h, Current: name == current})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// CurrentBranch reads HEAD and returns the branch name if HEAD is a symbolic
// ref (e.g. "ref: refs/heads/main" → "main"). If HEAD is detached it
// returns "".
func (r *Repo) CurrentBranch() (string, error) {
	ref, err := r.CurrentRef()
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	if !strings.HasPrefix(ref, branchPrefix) {
		return "", nil
	}
	return strings.TrimPrefix(ref, branchPrefix), nil
}
