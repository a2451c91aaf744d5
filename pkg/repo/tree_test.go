package repo

import (
	"testing"

	"github.com/odvcencio/rug/pkg/index"
	"github.com/odvcencio/rug/pkg/object"
)

func blobEntry(t *testing.T, r *Repo, p, content string) *index.Entry {
	t.Helper()
	h, err := r.Store.WriteBlob(&object.Blob{Data: []byte(content)})
	if err != nil {
		t.Fatalf("WriteBlob(%s): %v", p, err)
	}
	return &index.Entry{Path: p, Mode: object.TreeModeFile, Hash: h}
}

func TestBuildTree_OrderIndependent(t *testing.T) {
	r := newTestRepo(t)
	a := blobEntry(t, r, "a.txt", "a\n")
	b := blobEntry(t, r, "lib/b.go", "package lib\n")
	c := blobEntry(t, r, "lib/deep/c.go", "package deep\n")
	d := blobEntry(t, r, "lib.txt", "lib\n")

	h1, err := r.BuildTree([]*index.Entry{a, b, c, d})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	h2, err := r.BuildTree([]*index.Entry{d, c, b, a})
	if err != nil {
		t.Fatalf("BuildTree reversed: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("tree hash depends on entry order: %s vs %s", h1, h2)
	}

	root, err := r.Store.ReadTree(h1)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	// Git order compares directories as if they ended in '/', so "lib.txt"
	// sorts before "lib".
	var names []string
	for _, e := range root.Entries {
		names = append(names, e.Name)
	}
	want := []string{"a.txt", "lib.txt", "lib"}
	if len(names) != len(want) {
		t.Fatalf("root entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("root entries = %v, want %v", names, want)
		}
	}
	if !root.Entries[2].IsDir() {
		t.Fatalf("lib entry mode = %q, want directory", root.Entries[2].Mode)
	}
}

func TestBuildTree_Empty(t *testing.T) {
	r := newTestRepo(t)
	h, err := r.BuildTree(nil)
	if err != nil {
		t.Fatalf("BuildTree(nil): %v", err)
	}
	// The well-known id of the empty tree.
	if h != "4b825dc642cb6eb9a060e54bf8d69288fbee4904" {
		t.Fatalf("empty tree = %s", h)
	}
}

func TestFlattenTree(t *testing.T) {
	r := newTestRepo(t)
	entries := []*index.Entry{
		blobEntry(t, r, "README", "readme\n"),
		blobEntry(t, r, "src/main.go", "package main\n"),
		blobEntry(t, r, "src/util/util.go", "package util\n"),
	}
	entries[1].Mode = object.TreeModeExecutable
	h, err := r.BuildTree(entries)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	files, err := r.FlattenTree(r.NewArena(), h)
	if err != nil {
		t.Fatalf("FlattenTree: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("FlattenTree returned %d files, want 3", len(files))
	}
	for _, e := range entries {
		got, ok := files[e.Path]
		if !ok {
			t.Fatalf("missing %s", e.Path)
		}
		if got.Hash != e.Hash || got.Mode != e.Mode || got.Name != e.Path {
			t.Errorf("%s = %+v, want hash %s mode %s", e.Path, got, e.Hash, e.Mode)
		}
	}

	empty, err := r.FlattenTree(r.NewArena(), "")
	if err != nil {
		t.Fatalf("FlattenTree(empty): %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("FlattenTree(\"\") = %v, want empty", empty)
	}
}

func TestFlattenTree_AcceptsCommit(t *testing.T) {
	r := newTestRepo(t)
	writeFile(t, r, "dir/file.txt", "x\n")
	head := commitAll(t, r, "initial")

	files, err := r.FlattenTree(r.NewArena(), head)
	if err != nil {
		t.Fatalf("FlattenTree(commit): %v", err)
	}
	if _, ok := files["dir/file.txt"]; !ok || len(files) != 1 {
		t.Fatalf("FlattenTree(commit) = %v", files)
	}
}

func TestTreeDiff(t *testing.T) {
	r := newTestRepo(t)
	keep := blobEntry(t, r, "keep/same.txt", "same\n")
	oldMod := blobEntry(t, r, "mod.txt", "old\n")
	gone := blobEntry(t, r, "gone/x.txt", "x\n")
	before, err := r.BuildTree([]*index.Entry{keep, oldMod, gone})
	if err != nil {
		t.Fatalf("BuildTree before: %v", err)
	}

	newMod := blobEntry(t, r, "mod.txt", "new\n")
	added := blobEntry(t, r, "new/deep/y.txt", "y\n")
	after, err := r.BuildTree([]*index.Entry{keep, newMod, added})
	if err != nil {
		t.Fatalf("BuildTree after: %v", err)
	}

	changes, err := r.TreeDiff(r.NewArena(), before, after)
	if err != nil {
		t.Fatalf("TreeDiff: %v", err)
	}
	if len(changes) != 3 {
		t.Fatalf("TreeDiff returned %d changes, want 3: %v", len(changes), changes)
	}
	if ch := changes["mod.txt"]; ch.Old == nil || ch.New == nil || ch.Old.Hash != oldMod.Hash || ch.New.Hash != newMod.Hash {
		t.Errorf("mod.txt change = %+v", ch)
	}
	if ch := changes["gone/x.txt"]; ch.Old == nil || ch.New != nil {
		t.Errorf("gone/x.txt change = %+v, want deletion", ch)
	}
	if ch := changes["new/deep/y.txt"]; ch.Old != nil || ch.New == nil || ch.New.Name != "new/deep/y.txt" {
		t.Errorf("new/deep/y.txt change = %+v, want addition", ch)
	}
	if _, ok := changes["keep/same.txt"]; ok {
		t.Error("unchanged path reported")
	}

	none, err := r.TreeDiff(r.NewArena(), before, before)
	if err != nil {
		t.Fatalf("TreeDiff(same): %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("TreeDiff(same) = %v, want empty", none)
	}

	fromEmpty, err := r.TreeDiff(r.NewArena(), "", after)
	if err != nil {
		t.Fatalf("TreeDiff(empty, after): %v", err)
	}
	if len(fromEmpty) != 3 {
		t.Fatalf("TreeDiff(empty, after) = %d changes, want 3", len(fromEmpty))
	}
}

func TestTreeDiff_FileBecomesDirectory(t *testing.T) {
	r := newTestRepo(t)
	file := blobEntry(t, r, "x", "file\n")
	before, err := r.BuildTree([]*index.Entry{file})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	nested := blobEntry(t, r, "x/y", "nested\n")
	after, err := r.BuildTree([]*index.Entry{nested})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	changes, err := r.TreeDiff(r.NewArena(), before, after)
	if err != nil {
		t.Fatalf("TreeDiff: %v", err)
	}
	if ch := changes["x"]; ch.Old == nil || ch.New != nil {
		t.Errorf("x change = %+v, want deletion", ch)
	}
	if ch := changes["x/y"]; ch.Old != nil || ch.New == nil {
		t.Errorf("x/y change = %+v, want addition", ch)
	}
}
