package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/odvcencio/rug/pkg/lockfile"
	"github.com/odvcencio/rug/pkg/object"
)

const (
	headRef       = "HEAD"
	symrefPrefix  = "ref: "
	branchPrefix  = "refs/heads/"
	DefaultBranch = "main"

	refLockWaitLimit = 2 * time.Second

	// maxSymrefDepth bounds symbolic ref chains.
	maxSymrefDepth = 5
)

// Head reads .rug/HEAD. If the content starts with "ref: ", it returns the
// ref path (e.g., "refs/heads/main"). Otherwise it returns the raw content
// as a detached hash string.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(r.HeadPath)
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimSpace(string(data))
	return strings.TrimPrefix(content, symrefPrefix), nil
}

// CurrentRef returns the ref HEAD points to, or "HEAD" when detached.
func (r *Repo) CurrentRef() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(head, "refs/") {
		return head, nil
	}
	return headRef, nil
}

func (r *Repo) refPath(name string) string {
	if name == headRef {
		return r.HeadPath
	}
	return filepath.Join(r.MetaDir, filepath.FromSlash(name))
}

// readRef returns the id stored in a ref file, or "" when the ref does not
// exist yet (an unborn branch).
func (r *Repo) readRef(name string) (object.Hash, error) {
	return r.readRefDepth(name, 0)
}

func (r *Repo) readRefDepth(name string, depth int) (object.Hash, error) {
	if depth > maxSymrefDepth {
		return "", fmt.Errorf("read ref %q: %w: symbolic ref chain too deep", name, ErrInvalidRef)
	}
	data, err := os.ReadFile(r.refPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read ref %q: %w", name, err)
	}
	content := strings.TrimSpace(string(data))
	if strings.HasPrefix(content, symrefPrefix) {
		return r.readRefDepth(strings.TrimPrefix(content, symrefPrefix), depth+1)
	}
	h, err := object.ParseHash(content)
	if err != nil {
		return "", fmt.Errorf("read ref %q: %w: %v", name, ErrInvalidRef, err)
	}
	return h, nil
}

// ResolveRef resolves a ref name to a commit id.
//
// Resolution order:
//  1. "HEAD" reads HEAD, following it when symbolic.
//  2. Names starting with "refs/" read .rug/<name>.
//  3. Otherwise, "refs/heads/<name>".
//
// A ref that does not exist yet is reported as ErrInvalidRef.
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	full := name
	if name != headRef && !strings.HasPrefix(name, "refs/") {
		full = branchPrefix + name
	}
	h, err := r.readRef(full)
	if err != nil {
		return "", err
	}
	if h == "" {
		return "", fmt.Errorf("resolve ref %q: %w", name, ErrInvalidRef)
	}
	return h, nil
}

// ReadHeadCommit returns the commit HEAD resolves to, or "" before the
// first commit.
func (r *Repo) ReadHeadCommit() (object.Hash, error) {
	return r.readRef(headRef)
}

// UpdateHead moves whatever HEAD points to: the current branch when HEAD is
// symbolic, HEAD itself when detached. Both the branch and HEAD reflogs
// record the move.
func (r *Repo) UpdateHead(h object.Hash, reason string) error {
	ref, err := r.CurrentRef()
	if err != nil {
		return err
	}
	old, err := r.readRef(ref)
	if err != nil {
		return err
	}
	if err := r.writeRef(ref, h); err != nil {
		return err
	}
	r.logger.Debug("ref updated", "ref", ref, "old", old, "new", h, "reason", reason)

	var logErr error
	if ref != headRef {
		logErr = r.appendReflog(ref, old, h, reason)
	}
	if err := r.appendReflog(headRef, old, h, reason); err != nil && logErr == nil {
		logErr = err
	}
	if logErr != nil {
		return &RefUpdateReflogError{Ref: ref, OldHash: old, NewHash: h, Err: logErr}
	}
	return nil
}

// UpdateRef writes h to the named ref under a waiting lock and appends to
// its reflog. Parent directories are created as needed.
//
// Reflog append happens after the ref rename; if reflog append fails, the ref
// update remains committed and a RefUpdateReflogError is returned.
func (r *Repo) UpdateRef(name string, h object.Hash, reason string) error {
	old, err := r.readRef(name)
	if err != nil {
		return err
	}
	if err := r.writeRef(name, h); err != nil {
		return err
	}
	r.logger.Debug("ref updated", "ref", name, "old", old, "new", h, "reason", reason)
	if err := r.appendReflog(name, old, h, reason); err != nil {
		return &RefUpdateReflogError{Ref: name, OldHash: old, NewHash: h, Err: err}
	}
	return nil
}

func (r *Repo) writeRef(name string, h object.Hash) error {
	if _, err := object.ParseHash(string(h)); err != nil {
		return fmt.Errorf("update ref %q: %w", name, err)
	}
	return r.writeRefContent(name, string(h)+"\n")
}

func (r *Repo) writeRefContent(name, content string) error {
	lock := lockfile.New(r.refPath(name))
	if err := lock.HoldWait(refLockWaitLimit); err != nil {
		return fmt.Errorf("update ref %q: %w", name, err)
	}
	if _, err := lock.Write([]byte(content)); err != nil {
		lock.Rollback()
		return fmt.Errorf("update ref %q: %w", name, err)
	}
	if err := lock.Commit(); err != nil {
		return fmt.Errorf("update ref %q: %w", name, err)
	}
	return nil
}

// SetHead points HEAD at a branch (symbolic) or, when branch is empty, at
// the commit h (detached). The HEAD reflog records the move.
func (r *Repo) SetHead(branch string, h object.Hash, reason string) error {
	old, err := r.ReadHeadCommit()
	if err != nil {
		return err
	}
	if branch != "" {
		err = r.writeRefContent(headRef, symrefPrefix+branchPrefix+branch+"\n")
	} else {
		err = r.writeRef(headRef, h)
	}
	if err != nil {
		return err
	}
	if err := r.appendReflog(headRef, old, h, reason); err != nil {
		return &RefUpdateReflogError{Ref: headRef, OldHash: old, NewHash: h, Err: err}
	}
	return nil
}
