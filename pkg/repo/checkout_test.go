package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/rug/pkg/object"
)

// twoBranches builds main with v1 content and a feature branch with v2, and
// leaves HEAD on main.
func twoBranches(t *testing.T) (*Repo, object.Hash, object.Hash) {
	t.Helper()
	r := newTestRepo(t)
	writeFile(t, r, "shared.txt", "v1\n")
	writeFile(t, r, "only-main.txt", "main\n")
	writeFile(t, r, "dir/nested.txt", "nested v1\n")
	base := commitAll(t, r, "base")

	if err := r.CreateBranch("feature", base); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if _, err := r.Checkout("feature"); err != nil {
		t.Fatalf("Checkout(feature): %v", err)
	}
	writeFile(t, r, "shared.txt", "v2\n")
	writeFile(t, r, "new/deep/file.txt", "feature\n")
	writeFile(t, r, "dir/nested.txt", "nested v2\n")
	if err := r.Remove([]string{"only-main.txt"}, false); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	feature := commitAll(t, r, "feature work")

	if _, err := r.Checkout("main"); err != nil {
		t.Fatalf("Checkout(main): %v", err)
	}
	return r, base, feature
}

func TestCheckout_SwitchesBranches(t *testing.T) {
	r, base, feature := twoBranches(t)

	if got := readFile(t, r, "shared.txt"); got != "v1\n" {
		t.Fatalf("shared.txt on main = %q", got)
	}
	if exists(r, "new") {
		t.Fatal("feature-only directory left behind on main")
	}
	if !exists(r, "only-main.txt") {
		t.Fatal("only-main.txt not restored")
	}

	res, err := r.Checkout("feature")
	if err != nil {
		t.Fatalf("Checkout(feature): %v", err)
	}
	if res.Hash != feature || res.Previous != base || res.Branch != "feature" {
		t.Fatalf("result = %+v", res)
	}
	if res.Changed != 4 {
		t.Fatalf("Changed = %d, want 4", res.Changed)
	}
	if got := readFile(t, r, "shared.txt"); got != "v2\n" {
		t.Fatalf("shared.txt = %q, want v2", got)
	}
	if got := readFile(t, r, "new/deep/file.txt"); got != "feature\n" {
		t.Fatalf("new/deep/file.txt = %q", got)
	}
	if exists(r, "only-main.txt") {
		t.Fatal("only-main.txt should be removed on feature")
	}
	if branch, _ := r.CurrentBranch(); branch != "feature" {
		t.Fatalf("CurrentBranch = %q, want feature", branch)
	}

	rep := mustStatus(t, r)
	if !rep.Clean() {
		t.Fatalf("status after checkout = %v, want clean", porcelain(rep))
	}

	entries, err := r.ReadReflog("HEAD", 1)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 1 || entries[0].Reason != "checkout: moving from main to feature" {
		t.Fatalf("HEAD reflog = %+v", entries)
	}
}

func TestCheckout_CarriesUnrelatedChanges(t *testing.T) {
	r, _, _ := twoBranches(t)
	writeFile(t, r, "untracked.txt", "mine\n")
	writeFile(t, r, "local.txt", "staged\n")
	mustAdd(t, r, "local.txt")

	if _, err := r.Checkout("feature"); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if got := readFile(t, r, "untracked.txt"); got != "mine\n" {
		t.Fatalf("untracked file = %q", got)
	}
	rep := mustStatus(t, r)
	assertPaths(t, porcelain(rep), []string{"A  local.txt", "?? untracked.txt"})
}

func TestCheckout_DirtyWorkspaceConflict(t *testing.T) {
	r, base, _ := twoBranches(t)
	writeFile(t, r, "shared.txt", "local edit\n")

	_, err := r.Checkout("feature")
	var conflict *CheckoutConflictError
	if !errors.As(err, &conflict) || !errors.Is(err, ErrCheckoutConflict) {
		t.Fatalf("Checkout error = %v, want *CheckoutConflictError", err)
	}
	assertPaths(t, conflict.StaleFile, []string{"shared.txt"})
	if got := readFile(t, r, "shared.txt"); got != "local edit\n" {
		t.Fatalf("local edit lost: %q", got)
	}
	if head, _ := r.ReadHeadCommit(); head != base {
		t.Fatalf("HEAD moved to %s after refused checkout", head)
	}
	if exists(r, "new/deep/file.txt") {
		t.Fatal("refused checkout wrote files")
	}
}

func TestCheckout_StagedChangeConflict(t *testing.T) {
	r, _, _ := twoBranches(t)
	writeFile(t, r, "dir/nested.txt", "staged edit\n")
	mustAdd(t, r, "dir/nested.txt")

	_, err := r.Checkout("feature")
	var conflict *CheckoutConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Checkout error = %v, want *CheckoutConflictError", err)
	}
	assertPaths(t, conflict.StaleIndex, []string{"dir/nested.txt"})
}

func TestCheckout_UntrackedFileInTheWay(t *testing.T) {
	r, _, _ := twoBranches(t)
	writeFile(t, r, "new/deep/file.txt", "mine\n")

	_, err := r.Checkout("feature")
	var conflict *CheckoutConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Checkout error = %v, want *CheckoutConflictError", err)
	}
	assertPaths(t, conflict.UntrackedOver, []string{"new/deep/file.txt"})
	if got := readFile(t, r, "new/deep/file.txt"); got != "mine\n" {
		t.Fatalf("untracked file overwritten: %q", got)
	}
}

func TestCheckout_UntrackedFileBlocksDirectory(t *testing.T) {
	r, _, _ := twoBranches(t)
	writeFile(t, r, "new", "a file where a directory goes\n")

	_, err := r.Checkout("feature")
	var conflict *CheckoutConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Checkout error = %v, want *CheckoutConflictError", err)
	}
	assertPaths(t, conflict.UntrackedOver, []string{"new"})
}

func TestCheckout_DetachedHead(t *testing.T) {
	r, base, feature := twoBranches(t)

	res, err := r.Checkout(feature.Short())
	if err != nil {
		t.Fatalf("Checkout(%s): %v", feature.Short(), err)
	}
	if res.Branch != "" || res.Hash != feature {
		t.Fatalf("result = %+v, want detached at %s", res, feature)
	}
	ref, err := r.CurrentRef()
	if err != nil || ref != "HEAD" {
		t.Fatalf("CurrentRef() = %q, %v; want HEAD", ref, err)
	}

	res, err = r.Checkout("HEAD^")
	if err != nil {
		t.Fatalf("Checkout(HEAD^): %v", err)
	}
	if res.Hash != base {
		t.Fatalf("HEAD^ = %s, want %s", res.Hash, base)
	}
	if got := readFile(t, r, "shared.txt"); got != "v1\n" {
		t.Fatalf("shared.txt = %q, want v1", got)
	}

	if _, err := r.Checkout("main"); err != nil {
		t.Fatalf("Checkout(main): %v", err)
	}
	if branch, _ := r.CurrentBranch(); branch != "main" {
		t.Fatalf("CurrentBranch = %q, want main", branch)
	}
}

func TestCheckout_UnknownTarget(t *testing.T) {
	r, _, _ := twoBranches(t)
	if _, err := r.Checkout("nope"); !errors.Is(err, ErrInvalidRef) {
		t.Fatalf("Checkout(nope) = %v, want ErrInvalidRef", err)
	}
}

func TestCheckout_RestoresExecutableMode(t *testing.T) {
	r := newTestRepo(t)
	writeFile(t, r, "run.sh", "#!/bin/sh\n")
	if err := os.Chmod(filepath.Join(r.Root, "run.sh"), 0o755); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	base := commitAll(t, r, "with script")
	if err := r.CreateBranch("plain", base); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	removeFile(t, r, "run.sh")
	commitAll(t, r, "drop script")
	if exists(r, "run.sh") {
		t.Fatal("run.sh should be gone")
	}

	if _, err := r.Checkout("plain"); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	info, err := os.Stat(filepath.Join(r.Root, "run.sh"))
	if err != nil {
		t.Fatalf("stat run.sh: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Fatalf("run.sh mode = %v, want executable", info.Mode())
	}
}
