package repo

import (
	"fmt"
	"path"
	"strings"

	"github.com/odvcencio/rug/pkg/index"
	"github.com/odvcencio/rug/pkg/object"
)

// treeNode is one directory level while building trees from index entries.
type treeNode struct {
	files   map[string]*index.Entry
	subdirs map[string]*treeNode
}

func newTreeNode() *treeNode {
	return &treeNode{
		files:   make(map[string]*index.Entry),
		subdirs: make(map[string]*treeNode),
	}
}

// BuildTree converts the flat index entries into a hierarchical tree
// structure, writing TreeObj objects to the store and returning the root hash.
//
// Index entries use forward-slash paths (e.g. "pkg/util/util.go").
// BuildTree groups them by directory, stores the deepest subtrees first and
// returns the root tree hash. The result does not depend on entry order,
// and directories without files never materialize.
func (r *Repo) BuildTree(entries []*index.Entry) (object.Hash, error) {
	root := newTreeNode()
	for _, e := range entries {
		node := root
		parts := strings.Split(e.Path, "/")
		for _, dir := range parts[:len(parts)-1] {
			child, ok := node.subdirs[dir]
			if !ok {
				child = newTreeNode()
				node.subdirs[dir] = child
			}
			node = child
		}
		node.files[parts[len(parts)-1]] = e
	}
	return r.writeTreeNode(root, "")
}

func (r *Repo) writeTreeNode(node *treeNode, prefix string) (object.Hash, error) {
	entries := make([]object.TreeEntry, 0, len(node.files)+len(node.subdirs))
	for name, e := range node.files {
		entries = append(entries, object.TreeEntry{Name: name, Mode: e.Mode, Hash: e.Hash})
	}
	for name, child := range node.subdirs {
		childPrefix := path.Join(prefix, name)
		subHash, err := r.writeTreeNode(child, childPrefix)
		if err != nil {
			return "", err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: object.TreeModeDir, Hash: subHash})
	}
	object.SortTreeEntries(entries)

	h, err := r.Store.WriteTree(&object.TreeObj{Entries: entries})
	if err != nil {
		return "", fmt.Errorf("build tree %q: %w", prefix, err)
	}
	return h, nil
}

// FlattenTree walks a tree recursively, returning every blob entry keyed by
// its full slash-separated path. A commit id flattens its root tree.
func (r *Repo) FlattenTree(arena *object.Arena, h object.Hash) (map[string]object.TreeEntry, error) {
	files := make(map[string]object.TreeEntry)
	if h == "" {
		return files, nil
	}
	if err := flattenTreeRec(arena, h, "", files); err != nil {
		return nil, err
	}
	return files, nil
}

func flattenTreeRec(arena *object.Arena, h object.Hash, prefix string, out map[string]object.TreeEntry) error {
	tr, err := arena.Tree(h)
	if err != nil {
		return fmt.Errorf("flatten tree: read %s: %w", h, err)
	}
	for _, entry := range tr.Entries {
		full := path.Join(prefix, entry.Name)
		if entry.IsDir() {
			if err := flattenTreeRec(arena, entry.Hash, full, out); err != nil {
				return err
			}
			continue
		}
		entry.Name = full
		out[full] = entry
	}
	return nil
}

// TreeChange pairs the old and new blob entries of one changed path. A nil
// side means the path is absent there.
type TreeChange struct {
	Path string
	Old  *object.TreeEntry
	New  *object.TreeEntry
}

// TreeDiff compares two trees (or commits) and returns every blob-level
// change keyed by path. Subtrees with equal ids are skipped without being
// read. Either side may be "" for an empty tree.
func (r *Repo) TreeDiff(arena *object.Arena, a, b object.Hash) (map[string]TreeChange, error) {
	changes := make(map[string]TreeChange)
	if err := treeDiffRec(arena, a, b, "", changes); err != nil {
		return nil, err
	}
	return changes, nil
}

func treeEntries(arena *object.Arena, h object.Hash) (map[string]object.TreeEntry, error) {
	out := make(map[string]object.TreeEntry)
	if h == "" {
		return out, nil
	}
	tr, err := arena.Tree(h)
	if err != nil {
		return nil, fmt.Errorf("tree diff: read %s: %w", h, err)
	}
	for _, e := range tr.Entries {
		out[e.Name] = e
	}
	return out, nil
}

func treeDiffRec(arena *object.Arena, a, b object.Hash, prefix string, out map[string]TreeChange) error {
	if a == b {
		return nil
	}
	oldEntries, err := treeEntries(arena, a)
	if err != nil {
		return err
	}
	newEntries, err := treeEntries(arena, b)
	if err != nil {
		return err
	}

	for name, oe := range oldEntries {
		ne, inNew := newEntries[name]
		if inNew && ne.Hash == oe.Hash && ne.Mode == oe.Mode {
			continue
		}
		full := path.Join(prefix, name)

		var oldTree, newTree object.Hash
		var oldBlob, newBlob *object.TreeEntry
		if oe.IsDir() {
			oldTree = oe.Hash
		} else {
			oldBlob = fileEntry(oe, full)
		}
		if inNew {
			if ne.IsDir() {
				newTree = ne.Hash
			} else {
				newBlob = fileEntry(ne, full)
			}
		}
		if oldTree != "" || newTree != "" {
			if err := treeDiffRec(arena, oldTree, newTree, full, out); err != nil {
				return err
			}
		}
		if oldBlob != nil || newBlob != nil {
			out[full] = TreeChange{Path: full, Old: oldBlob, New: newBlob}
		}
	}

	for name, ne := range newEntries {
		if _, inOld := oldEntries[name]; inOld {
			continue
		}
		full := path.Join(prefix, name)
		if ne.IsDir() {
			if err := treeDiffRec(arena, "", ne.Hash, full, out); err != nil {
				return err
			}
			continue
		}
		out[full] = TreeChange{Path: full, New: fileEntry(ne, full)}
	}
	return nil
}

func fileEntry(e object.TreeEntry, full string) *object.TreeEntry {
	e.Name = full
	return &e
}
