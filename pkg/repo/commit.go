package repo

import (
	"fmt"
	"strings"

	"github.com/odvcencio/rug/pkg/object"
)

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be persisted in CommitObj.Signature.
type CommitSigner func(payload []byte) (string, error)

// MessageSource supplies a commit message. It is consulted only after the
// index lock is held and the tree is built.
type MessageSource interface {
	Message() (string, error)
}

// StaticMessage is a MessageSource with a fixed message.
type StaticMessage string

func (m StaticMessage) Message() (string, error) { return string(m), nil }

// CommitOptions overrides the defaults of Commit.
type CommitOptions struct {
	// Author replaces the configured identity. Its timestamp is ignored
	// in favor of the repository clock.
	Author *object.Signature
	Signer CommitSigner
}

// CommitResult describes a created commit.
type CommitResult struct {
	Hash    object.Hash
	Commit  *object.CommitObj
	Branch  string // "" when HEAD is detached
	Initial bool
}

// Commit creates a new commit from the current index.
//
//  1. Lock and load the index
//  2. BuildTree from the index
//  3. Resolve HEAD to get the parent commit (if any)
//  4. Ask msg for the message; an empty message aborts
//  5. Sign the payload when a signer is provided
//  6. Write commit to store
//  7. Move HEAD's branch (or detached HEAD) to the new commit
//
// Committing an unchanged tree is allowed.
func (r *Repo) Commit(msg MessageSource, opts CommitOptions) (*CommitResult, error) {
	// 1. Lock the index for the duration.
	idx := r.NewIndex()
	if err := idx.LoadForUpdate(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	defer idx.Release()

	// 2. Build tree.
	treeHash, err := r.BuildTree(idx.Entries())
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	// 3. Parent.
	parent, err := r.ReadHeadCommit()
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	var parents []object.Hash
	if parent != "" {
		parents = append(parents, parent)
	}

	author, err := r.Identity()
	if opts.Author != nil {
		author = object.Signature{Name: opts.Author.Name, Email: opts.Author.Email, When: r.now()}
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	// 4. Message.
	text, err := msg.Message()
	if err != nil {
		return nil, fmt.Errorf("commit: message: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("commit: %w", ErrEmptyMessage)
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	c := &object.CommitObj{
		TreeHash:  treeHash,
		Parents:   parents,
		Author:    author,
		Committer: author,
		Message:   text,
	}

	// 5. Sign.
	if opts.Signer != nil {
		signature, err := opts.Signer(object.CommitSigningPayload(c))
		if err != nil {
			return nil, fmt.Errorf("commit: sign commit: %w", err)
		}
		c.Signature = signature
	}

	// 6. Write.
	h, err := r.Store.WriteCommit(c)
	if err != nil {
		return nil, fmt.Errorf("commit: write commit: %w", err)
	}

	// 7. Move HEAD.
	reason := "commit: " + c.TitleLine()
	if parent == "" {
		reason = "commit (initial): " + c.TitleLine()
	}
	if err := r.UpdateHead(h, reason); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	branch, err := r.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	r.logger.Debug("commit created", "hash", h, "tree", treeHash, "parents", len(parents))
	return &CommitResult{Hash: h, Commit: c, Branch: branch, Initial: parent == ""}, nil
}

// ParseIdent parses "Name <email>" as given to --author.
func ParseIdent(s string) (object.Signature, error) {
	lt := strings.IndexByte(s, '<')
	gt := strings.LastIndexByte(s, '>')
	if lt < 0 || gt < lt {
		return object.Signature{}, fmt.Errorf("malformed identity %q: want \"Name <email>\"", s)
	}
	name := strings.TrimSpace(s[:lt])
	email := strings.TrimSpace(s[lt+1 : gt])
	if name == "" || email == "" {
		return object.Signature{}, fmt.Errorf("malformed identity %q: want \"Name <email>\"", s)
	}
	return object.Signature{Name: name, Email: email}, nil
}
