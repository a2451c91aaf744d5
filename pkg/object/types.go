package object

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// HashSize is the length in bytes of a raw object id.
const HashSize = 20

// Hash is a 40-character lowercase hex-encoded SHA-1 digest.
type Hash string

// ZeroHash is the all-zero id used for "no object" in reflogs.
const ZeroHash Hash = "0000000000000000000000000000000000000000"

// Bytes returns the 20 raw bytes of h.
func (h Hash) Bytes() ([]byte, error) {
	raw, err := hex.DecodeString(string(h))
	if err != nil || len(raw) != HashSize {
		return nil, fmt.Errorf("invalid object id %q", string(h))
	}
	return raw, nil
}

// Short returns the first 7 characters of h.
func (h Hash) Short() string {
	if len(h) > 7 {
		return string(h[:7])
	}
	return string(h)
}

// ParseHash validates a 40-character hex id.
func ParseHash(s string) (Hash, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2*HashSize {
		return "", fmt.Errorf("parse hash %q: want %d hex characters", s, 2*HashSize)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("parse hash %q: %w", s, err)
	}
	return Hash(s), nil
}

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
)

func (t ObjectType) valid() bool {
	switch t {
	case TypeBlob, TypeTree, TypeCommit:
		return true
	}
	return false
}

const (
	// Tree mode constants using Git's canonical mode strings.
	TreeModeDir        = "40000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
)

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

// TreeEntry is one entry in a tree object.
type TreeEntry struct {
	Name string
	Mode string
	Hash Hash
}

// IsDir reports whether the entry references a subtree.
func (e TreeEntry) IsDir() bool {
	return e.Mode == TreeModeDir
}

// TreeObj holds a list of tree entries in Git tree order.
type TreeObj struct {
	Entries []TreeEntry
}

// Signature identifies the author or committer of a commit.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// CommitObj represents a commit pointing to a tree with metadata.
type CommitObj struct {
	TreeHash  Hash
	Parents   []Hash
	Author    Signature
	Committer Signature
	Signature string // optional, stored in the gpgsig header
	Message   string
}

// Parent returns the first parent, or "" for a root commit.
func (c *CommitObj) Parent() Hash {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

// TitleLine returns the first line of the commit message.
func (c *CommitObj) TitleLine() string {
	title, _, _ := strings.Cut(c.Message, "\n")
	return title
}

// Object is a decoded object of any kind. Exactly one of Blob, Tree and
// Commit is set, selected by Type.
type Object struct {
	Type   ObjectType
	Blob   *Blob
	Tree   *TreeObj
	Commit *CommitObj
}
