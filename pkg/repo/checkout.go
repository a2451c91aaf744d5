package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/odvcencio/rug/pkg/index"
	"github.com/odvcencio/rug/pkg/object"
	"github.com/odvcencio/rug/pkg/workspace"
)

// CheckoutResult describes where HEAD ended up.
type CheckoutResult struct {
	Hash     object.Hash
	Branch   string // "" when HEAD is now detached
	Previous object.Hash
	Changed  int // paths written or removed
}

// Checkout switches the workspace, index and HEAD to target, a revision
// expression. Only paths that differ between HEAD and the target are
// touched, so unrelated local changes carry over.
//
// Algorithm:
//  1. Lock the index and resolve the target.
//  2. Diff the HEAD tree against the target tree.
//  3. Refuse with a *CheckoutConflictError if any changed path has staged
//     or unstaged changes, or an untracked file sits in the way.
//  4. Remove deleted paths, then write updated and created ones.
//  5. Rewrite the index entries for the changed paths.
//  6. Move HEAD: symbolic for a branch name, detached otherwise.
func (r *Repo) Checkout(target string) (*CheckoutResult, error) {
	// 1. Lock and resolve.
	idx := r.NewIndex()
	if err := idx.LoadForUpdate(); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	defer idx.Release()

	to, err := r.ResolveRevision(target)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	branch := ""
	if ValidateBranchName(target) == nil {
		if h, err := r.readRef(branchPrefix + target); err == nil && h != "" {
			branch = target
		}
	}
	from, err := r.ReadHeadCommit()
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	// 2. Diff trees.
	arena := r.NewArena()
	changes, err := r.TreeDiff(arena, from, to)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	// 3. Safety checks.
	conflicts := &CheckoutConflictError{}
	for _, p := range sortedChangePaths(changes) {
		if err := r.checkCheckoutConflict(idx, changes[p], conflicts); err != nil {
			return nil, fmt.Errorf("checkout: %w", err)
		}
	}
	if !conflicts.empty() {
		return nil, conflicts
	}

	// 4-5. Migrate the workspace and index.
	if err := r.migrate(arena, idx, changes); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if err := idx.WriteUpdates(); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	// 6. Move HEAD.
	reason := fmt.Sprintf("checkout: moving from %s to %s", r.headDescription(from), target)
	if err := r.SetHead(branch, to, reason); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	r.logger.Debug("checked out", "target", target, "hash", to, "changed", len(changes))
	return &CheckoutResult{Hash: to, Branch: branch, Previous: from, Changed: len(changes)}, nil
}

func (r *Repo) headDescription(h object.Hash) string {
	if b, err := r.CurrentBranch(); err == nil && b != "" {
		return b
	}
	return h.Short()
}

func sortedChangePaths(changes map[string]TreeChange) []string {
	paths := make([]string, 0, len(changes))
	for p := range changes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func sameEntry(e *index.Entry, te *object.TreeEntry) bool {
	if e == nil || te == nil {
		return e == nil && te == nil
	}
	return e.Hash == te.Hash && e.Mode == te.Mode
}

func (r *Repo) checkCheckoutConflict(idx *index.Index, ch TreeChange, c *CheckoutConflictError) error {
	e, staged := idx.Entry(ch.Path)
	if !staged {
		e = nil
	}
	if !sameEntry(e, ch.Old) && !sameEntry(e, ch.New) {
		c.StaleIndex = append(c.StaleIndex, ch.Path)
		return nil
	}

	info, err := r.Workspace.Stat(ch.Path)
	switch {
	case errors.Is(err, workspace.ErrPathNotFound):
		if parent := r.untrackedParent(idx, ch.Path); parent != "" {
			c.UntrackedOver = append(c.UntrackedOver, parent)
		}
		return nil
	case err != nil:
		return err
	}

	if info.IsDir() {
		scan := &statusScan{repo: r, idx: idx}
		ok, err := scan.trackable(ch.Path, info)
		if err != nil {
			return err
		}
		if ok {
			c.UntrackedOver = append(c.UntrackedOver, ch.Path+"/")
		}
		return nil
	}
	if e == nil {
		if !r.Workspace.Ignore().IsIgnored(ch.Path, false) {
			c.UntrackedOver = append(c.UntrackedOver, ch.Path)
		}
		return nil
	}
	changed, err := r.workspaceDiffers(idx, e, info)
	if err != nil {
		return err
	}
	if changed {
		c.StaleFile = append(c.StaleFile, ch.Path)
	}
	return nil
}

// untrackedParent returns the nearest ancestor of p that exists as an
// untracked regular file.
func (r *Repo) untrackedParent(idx *index.Index, p string) string {
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		info, err := r.Workspace.Stat(dir)
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() && !idx.IsTrackedFile(dir) {
			return dir
		}
		return ""
	}
	return ""
}

func (r *Repo) workspaceDiffers(idx *index.Index, e *index.Entry, info fs.FileInfo) (bool, error) {
	if !e.StatMatch(info) {
		return true, nil
	}
	if e.TimesMatch(info) && !e.RacilyClean(idx.ModTime()) {
		return false, nil
	}
	data, err := r.Workspace.Read(e.Path)
	if err != nil {
		if errors.Is(err, workspace.ErrPathNotFound) {
			return true, nil
		}
		return false, err
	}
	return object.HashObject(object.TypeBlob, data) != e.Hash, nil
}

// migrate applies the tree changes to the workspace and index: deletions
// deepest first, then writes in path order.
func (r *Repo) migrate(arena *object.Arena, idx *index.Index, changes map[string]TreeChange) error {
	paths := sortedChangePaths(changes)
	for i := len(paths) - 1; i >= 0; i-- {
		ch := changes[paths[i]]
		if ch.New != nil {
			continue
		}
		if err := r.Workspace.Remove(ch.Path); err != nil {
			return err
		}
		idx.Remove(ch.Path)
	}
	for _, p := range paths {
		ch := changes[p]
		if ch.New == nil {
			continue
		}
		blob, err := arena.Blob(ch.New.Hash)
		if err != nil {
			return fmt.Errorf("read blob for %q: %w", p, err)
		}
		if err := r.Workspace.WriteFile(p, blob.Data, ch.New.Mode); err != nil {
			return err
		}
		info, err := r.Workspace.Stat(p)
		if err != nil {
			return err
		}
		e := index.NewEntry(p, ch.New.Hash, info)
		e.Mode = ch.New.Mode
		idx.Put(e)
	}
	return nil
}
