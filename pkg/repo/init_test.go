package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/rug/pkg/index"
)

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()

	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init(%q): %v", dir, err)
	}
	if r.Root != dir {
		t.Errorf("Root = %q, want %q", r.Root, dir)
	}

	meta := filepath.Join(dir, ".rug")
	if r.MetaDir != meta {
		t.Errorf("MetaDir = %q, want %q", r.MetaDir, meta)
	}

	assertDir(t, meta)
	assertFile(t, filepath.Join(meta, "HEAD"))
	assertFile(t, filepath.Join(meta, "config.toml"))
	assertFile(t, filepath.Join(meta, "index"))
	assertDir(t, filepath.Join(meta, "objects"))
	assertDir(t, filepath.Join(meta, "refs", "heads"))
	assertDir(t, filepath.Join(meta, "logs", "refs", "heads"))

	if r.Store == nil {
		t.Error("Store is nil after Init")
	}
	if n := countObjects(t, r); n != 0 {
		t.Errorf("fresh repository holds %d objects, want 0", n)
	}
}

func TestInit_EmptyIndex(t *testing.T) {
	r := newTestRepo(t)

	idx := r.NewIndex()
	if err := idx.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if idx.Len() != 0 {
		t.Fatalf("index has %d entries, want 0", idx.Len())
	}
	if _, err := os.Stat(r.IndexPath + ".lock"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("index lock left behind: %v", err)
	}
}

func TestInit_ExistingRepo_Error(t *testing.T) {
	dir := t.TempDir()

	if _, err := Init(dir); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	_, err := Init(dir)
	if !errors.Is(err, ErrRepositoryExists) {
		t.Fatalf("second Init error = %v, want ErrRepositoryExists", err)
	}
}

func TestOpen_FromSubdirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}

	sub := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	r, err := Open(sub)
	if err != nil {
		t.Fatalf("Open(%q): %v", sub, err)
	}
	if r.Root != dir {
		t.Errorf("Root = %q, want %q", r.Root, dir)
	}
	if r.MetaDir != filepath.Join(dir, ".rug") {
		t.Errorf("MetaDir = %q, want %q", r.MetaDir, filepath.Join(dir, ".rug"))
	}
}

func TestOpen_NoRepo_Error(t *testing.T) {
	_, err := Open(t.TempDir())
	if !errors.Is(err, ErrNotRepository) {
		t.Fatalf("Open error = %v, want ErrNotRepository", err)
	}
}

func TestInit_HeadDefault(t *testing.T) {
	r := newTestRepo(t)

	ref, err := r.Head()
	if err != nil {
		t.Fatalf("Head(): %v", err)
	}
	if ref != "refs/heads/main" {
		t.Errorf("Head() = %q, want %q", ref, "refs/heads/main")
	}
	branch, err := r.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != DefaultBranch {
		t.Errorf("CurrentBranch() = %q, want %q", branch, DefaultBranch)
	}
	head, err := r.ReadHeadCommit()
	if err != nil {
		t.Fatalf("ReadHeadCommit: %v", err)
	}
	if head != "" {
		t.Errorf("ReadHeadCommit() = %q before any commit, want empty", head)
	}
}

func TestInit_IndexNotLocked(t *testing.T) {
	r := newTestRepo(t)
	idx := r.NewIndex()
	if err := idx.LoadForUpdate(); err != nil {
		t.Fatalf("LoadForUpdate after Init: %v", err)
	}
	defer idx.Release()
	if err := r.Add(nil); !errors.Is(err, index.ErrIndexLocked) {
		t.Fatal("Add while index locked should fail with ErrIndexLocked")
	}
}

func assertDir(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory %q to exist: %v", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("%q exists but is not a directory", path)
	}
}

func assertFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected file %q to exist: %v", path, err)
		return
	}
	if info.IsDir() {
		t.Errorf("%q exists but is a directory, expected file", path)
	}
}
