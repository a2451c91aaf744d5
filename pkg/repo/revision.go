package repo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/odvcencio/rug/pkg/object"
)

// ResolveRevision resolves a revision expression to a commit id.
//
// Supported forms: "HEAD", "@", a branch name, a full "refs/..." name, a
// full or abbreviated (at least four hex digits) commit id, each optionally
// followed by any sequence of "^" (first parent) and "~n" (n-th first-parent
// ancestor). Failures wrap ErrInvalidRef.
func (r *Repo) ResolveRevision(expr string) (object.Hash, error) {
	expr = strings.TrimSpace(expr)
	invalid := func(reason string) error {
		return fmt.Errorf("resolve revision %q: %w: %s", expr, ErrInvalidRef, reason)
	}

	cut := strings.IndexAny(expr, "^~")
	base, ops := expr, ""
	if cut >= 0 {
		base, ops = expr[:cut], expr[cut:]
	}
	if base == "" {
		return "", invalid("missing name")
	}

	h, err := r.resolveRevisionBase(base)
	if err != nil {
		return "", invalid(err.Error())
	}

	arena := r.NewArena()
	if _, err := arena.Commit(h); err != nil {
		return "", invalid(fmt.Sprintf("%s is not a commit", h.Short()))
	}

	for ops != "" {
		steps := 1
		op := ops[0]
		ops = ops[1:]
		digits := 0
		for digits < len(ops) && ops[digits] >= '0' && ops[digits] <= '9' {
			digits++
		}
		if digits > 0 {
			n, err := strconv.Atoi(ops[:digits])
			if err != nil {
				return "", invalid(err.Error())
			}
			ops = ops[digits:]
			switch {
			case op == '~':
				steps = n
			case n == 0:
				steps = 0
			case n != 1:
				return "", invalid(fmt.Sprintf("only the first parent is tracked, ^%d is unsupported", n))
			}
		}
		for i := 0; i < steps; i++ {
			c, err := arena.Commit(h)
			if err != nil {
				return "", invalid(err.Error())
			}
			parent := c.Parent()
			if parent == "" {
				return "", invalid(fmt.Sprintf("commit %s has no parent", h.Short()))
			}
			h = parent
		}
	}
	return h, nil
}

func (r *Repo) resolveRevisionBase(name string) (object.Hash, error) {
	if name == "@" || name == headRef {
		h, err := r.ReadHeadCommit()
		if err != nil {
			return "", err
		}
		if h == "" {
			return "", fmt.Errorf("HEAD has no commits yet")
		}
		return h, nil
	}
	if strings.HasPrefix(name, "refs/") {
		h, err := r.readRef(name)
		if err != nil {
			return "", err
		}
		if h != "" {
			return h, nil
		}
		return "", fmt.Errorf("ref %s does not exist", name)
	}
	if ValidateBranchName(name) == nil {
		h, err := r.readRef(branchPrefix + name)
		if err != nil {
			return "", err
		}
		if h != "" {
			return h, nil
		}
	}
	h, err := r.Store.ResolvePrefix(name)
	if err != nil {
		return "", fmt.Errorf("unknown revision: %v", err)
	}
	return h, nil
}
