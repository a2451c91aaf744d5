package object

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
//
// Records are zlib-compressed "type len\0content" envelopes, the loose
// object format Git uses.
type Store struct {
	dir    string
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for debug events.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a Store rooted at the objects directory. Bucket
// directories are created lazily on first write.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{dir: dir, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the objects directory.
func (s *Store) Dir() string {
	return s.dir
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.dir, string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if len(h) != 2*HashSize {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write stores an object and returns its content hash. Storing the same
// content twice is a no-op. Writes are atomic: data is written to a temp
// file and then renamed into place.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	if !objType.valid() {
		return "", fmt.Errorf("object write: unknown type %q", objType)
	}
	h := HashObject(objType, data)

	// Fast path: already exists.
	if s.Has(h) {
		s.logger.Debug("object exists", "hash", h, "type", objType)
		return h, nil
	}

	dir := filepath.Join(s.dir, string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(envelope(objType, len(data))); err != nil {
		return "", fmt.Errorf("object write compress: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return "", fmt.Errorf("object write compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("object write compress: %w", err)
	}

	// Atomic write via temp + rename.
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(compressed.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}
	if err := os.Chmod(tmpName, 0o444); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write chmod: %w", err)
	}

	if err := os.Rename(tmpName, s.objectPath(h)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w", err)
	}

	s.logger.Debug("object written", "hash", h, "type", objType, "size", len(data))
	return h, nil
}

// Read retrieves an object by hash, returning its type and raw content.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	if _, err := ParseHash(string(h)); err != nil {
		return "", nil, fmt.Errorf("object read: %w", err)
	}
	f, err := os.Open(s.objectPath(h))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("object read %s: %w", h, ErrObjectNotFound)
		}
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return "", nil, corrupt(h, "decompress", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return "", nil, corrupt(h, "decompress", err)
	}
	if err := zr.Close(); err != nil {
		return "", nil, corrupt(h, "decompress", err)
	}

	// Parse envelope: "type len\0content"
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, corrupt(h, "invalid format (no NUL)", nil)
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	typ, lenStr, ok := strings.Cut(header, " ")
	if !ok {
		return "", nil, corrupt(h, fmt.Sprintf("invalid header %q", header), nil)
	}
	objType := ObjectType(typ)
	if !objType.valid() {
		return "", nil, corrupt(h, fmt.Sprintf("unknown type %q", typ), nil)
	}
	length, err := strconv.Atoi(lenStr)
	if err != nil {
		return "", nil, corrupt(h, fmt.Sprintf("invalid length %q", lenStr), err)
	}
	if len(content) != length {
		return "", nil, corrupt(h, fmt.Sprintf("length mismatch (header=%d, actual=%d)", length, len(content)), nil)
	}

	return objType, content, nil
}

// ReadObject reads and decodes an object of any kind.
func (s *Store) ReadObject(h Hash) (*Object, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	obj := &Object{Type: objType}
	switch objType {
	case TypeBlob:
		obj.Blob, err = UnmarshalBlob(data)
	case TypeTree:
		obj.Tree, err = UnmarshalTree(data)
	case TypeCommit:
		obj.Commit, err = UnmarshalCommit(data)
	}
	if err != nil {
		return nil, corrupt(h, "decode "+string(objType), err)
	}
	return obj, nil
}

// ResolvePrefix expands an abbreviated hex id to the unique stored id that
// starts with it.
func (s *Store) ResolvePrefix(prefix string) (Hash, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if len(prefix) == 2*HashSize {
		h, err := ParseHash(prefix)
		if err != nil {
			return "", err
		}
		if !s.Has(h) {
			return "", fmt.Errorf("resolve %s: %w", h, ErrObjectNotFound)
		}
		return h, nil
	}
	if len(prefix) < 4 || len(prefix) > 2*HashSize || strings.Trim(prefix, "0123456789abcdef") != "" {
		return "", fmt.Errorf("resolve %q: not an abbreviated object id", prefix)
	}

	entries, err := os.ReadDir(filepath.Join(s.dir, prefix[:2]))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("resolve %q: %w", prefix, ErrObjectNotFound)
		}
		return "", fmt.Errorf("resolve %q: %w", prefix, err)
	}
	var matches []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix[2:]) && len(e.Name()) == 2*HashSize-2 {
			matches = append(matches, prefix[:2]+e.Name())
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("resolve %q: %w", prefix, ErrObjectNotFound)
	case 1:
		return Hash(matches[0]), nil
	default:
		sort.Strings(matches)
		return "", fmt.Errorf("resolve %q: ambiguous (%d candidates: %s)", prefix, len(matches), strings.Join(matches, ", "))
	}
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Write(TypeBlob, MarshalBlob(b))
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	data, err := s.readTyped(h, TypeBlob)
	if err != nil {
		return nil, err
	}
	return UnmarshalBlob(data)
}

// WriteTree serializes and stores a TreeObj.
func (s *Store) WriteTree(tr *TreeObj) (Hash, error) {
	data, err := MarshalTree(tr)
	if err != nil {
		return "", err
	}
	return s.Write(TypeTree, data)
}

// ReadTree reads and deserializes a TreeObj.
func (s *Store) ReadTree(h Hash) (*TreeObj, error) {
	data, err := s.readTyped(h, TypeTree)
	if err != nil {
		return nil, err
	}
	tr, err := UnmarshalTree(data)
	if err != nil {
		return nil, corrupt(h, "decode tree", err)
	}
	return tr, nil
}

// WriteCommit serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	return s.Write(TypeCommit, MarshalCommit(c))
}

// ReadCommit reads and deserializes a CommitObj.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	data, err := s.readTyped(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	c, err := UnmarshalCommit(data)
	if err != nil {
		return nil, corrupt(h, "decode commit", err)
	}
	return c, nil
}

func (s *Store) readTyped(h Hash, want ObjectType) ([]byte, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != want {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, want)
	}
	return data, nil
}
