package object

import "fmt"

// Arena memoizes decoded objects by id for the lifetime of one command.
// Trees and commits only reference children by Hash, so every traversal
// goes through Arena lookups instead of live object graphs.
type Arena struct {
	store   *Store
	objects map[Hash]*Object
}

// NewArena returns an empty arena backed by store.
func NewArena(store *Store) *Arena {
	return &Arena{store: store, objects: make(map[Hash]*Object)}
}

// Store returns the backing store.
func (a *Arena) Store() *Store {
	return a.store
}

// Load returns the decoded object for h, reading it at most once.
func (a *Arena) Load(h Hash) (*Object, error) {
	if obj, ok := a.objects[h]; ok {
		return obj, nil
	}
	obj, err := a.store.ReadObject(h)
	if err != nil {
		return nil, err
	}
	a.objects[h] = obj
	return obj, nil
}

// Tree loads h as a tree. A commit id resolves to its root tree.
func (a *Arena) Tree(h Hash) (*TreeObj, error) {
	obj, err := a.Load(h)
	if err != nil {
		return nil, err
	}
	switch obj.Type {
	case TypeTree:
		return obj.Tree, nil
	case TypeCommit:
		return a.Tree(obj.Commit.TreeHash)
	default:
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, obj.Type, TypeTree)
	}
}

// Commit loads h as a commit.
func (a *Arena) Commit(h Hash) (*CommitObj, error) {
	obj, err := a.Load(h)
	if err != nil {
		return nil, err
	}
	if obj.Type != TypeCommit {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, obj.Type, TypeCommit)
	}
	return obj.Commit, nil
}

// Blob loads h as a blob.
func (a *Arena) Blob(h Hash) (*Blob, error) {
	obj, err := a.Load(h)
	if err != nil {
		return nil, err
	}
	if obj.Type != TypeBlob {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, obj.Type, TypeBlob)
	}
	return obj.Blob, nil
}
