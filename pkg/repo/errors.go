package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/rug/pkg/object"
)

var (
	// ErrInvalidRef is returned when a ref or revision expression does not
	// name a commit.
	ErrInvalidRef = errors.New("invalid ref")

	// ErrNotRepository is returned by Open when no metadata directory is
	// found in the path or any of its parents.
	ErrNotRepository = errors.New("not a rug repository")

	ErrRepositoryExists = errors.New("repository already exists")
	ErrBranchExists     = errors.New("branch already exists")
	ErrEmptyMessage     = errors.New("empty commit message")
	ErrUnknownIdentity  = errors.New("author identity unknown")

	// ErrCheckoutConflict matches every *CheckoutConflictError.
	ErrCheckoutConflict = errors.New("checkout would overwrite local changes")

	ErrRefUpdatedButReflogAppendFailed = errors.New("ref updated but reflog append failed")
)

// RefUpdateReflogError indicates the ref file update succeeded, but appending
// the corresponding reflog entry failed.
type RefUpdateReflogError struct {
	Ref     string
	OldHash object.Hash
	NewHash object.Hash
	Err     error
}

func (e *RefUpdateReflogError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf(
		"update ref %q: %s (old=%s new=%s): %v",
		e.Ref,
		ErrRefUpdatedButReflogAppendFailed,
		e.OldHash,
		e.NewHash,
		e.Err,
	)
}

func (e *RefUpdateReflogError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *RefUpdateReflogError) Is(target error) bool {
	return target == ErrRefUpdatedButReflogAppendFailed
}

// CheckoutConflictError lists the paths a checkout refused to touch, grouped
// by the reason each one is unsafe.
type CheckoutConflictError struct {
	StaleFile     []string // modified in the workspace
	StaleIndex    []string // staged but not committed
	UntrackedOver []string // untracked file in the way of a tracked one
}

func (e *CheckoutConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(ErrCheckoutConflict.Error())
	section := func(title string, paths []string) {
		if len(paths) == 0 {
			return
		}
		b.WriteString("\n")
		b.WriteString(title)
		b.WriteString(":")
		for _, p := range paths {
			b.WriteString("\n\t")
			b.WriteString(p)
		}
	}
	section("local changes would be overwritten", e.StaleFile)
	section("staged changes would be overwritten", e.StaleIndex)
	section("untracked files would be overwritten", e.UntrackedOver)
	return b.String()
}

func (e *CheckoutConflictError) Is(target error) bool {
	return target == ErrCheckoutConflict
}

func (e *CheckoutConflictError) empty() bool {
	return len(e.StaleFile) == 0 && len(e.StaleIndex) == 0 && len(e.UntrackedOver) == 0
}
