// Package workspace is a read-mostly view of the working tree: listing,
// statting and reading files relative to the repository root.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/rug/pkg/object"
)

// Workspace resolves slash-separated paths against a root directory.
type Workspace struct {
	root   string
	ignore *IgnoreChecker
	logger *slog.Logger
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithIgnore replaces the ignore policy loaded from the root.
func WithIgnore(ic *IgnoreChecker) Option {
	return func(w *Workspace) {
		if ic != nil {
			w.ignore = ic
		}
	}
}

// WithLogger sets the logger used for debug events.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.logger = l
		}
	}
}

// New returns a view of the tree rooted at root.
func New(root string, opts ...Option) *Workspace {
	w := &Workspace{root: root, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(w)
	}
	if w.ignore == nil {
		w.ignore = NewIgnoreChecker(root)
	}
	return w
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string { return w.root }

// Ignore returns the active ignore policy.
func (w *Workspace) Ignore() *IgnoreChecker { return w.ignore }

func (w *Workspace) abs(rel string) string {
	return filepath.Join(w.root, filepath.FromSlash(rel))
}

func normalize(rel string) string {
	rel = path.Clean(filepath.ToSlash(rel))
	if rel == "." {
		return ""
	}
	return strings.TrimPrefix(rel, "/")
}

// ListFiles returns every non-ignored regular file at or below rel, sorted.
// A file path returns itself.
func (w *Workspace) ListFiles(rel string) ([]string, error) {
	rel = normalize(rel)
	info, err := w.Stat(rel)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if w.ignore.IsIgnored(rel, false) {
			return nil, nil
		}
		return []string{rel}, nil
	}
	if rel != "" && w.ignore.IsIgnored(rel, true) {
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(w.abs(rel), func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if isNotFound(walkErr) {
				return nil
			}
			return walkErr
		}
		r, err := filepath.Rel(w.root, p)
		if err != nil {
			return err
		}
		r = filepath.ToSlash(r)
		if r == "." || r == rel {
			return nil
		}
		if d.IsDir() {
			if w.ignore.IsIgnored(r, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || w.ignore.IsIgnored(r, false) {
			return nil
		}
		files = append(files, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list files %q: %w", rel, err)
	}
	sort.Strings(files)
	w.logger.Debug("listed files", "path", rel, "count", len(files))
	return files, nil
}

// ListDir returns the non-ignored immediate children of dir keyed by their
// root-relative path.
func (w *Workspace) ListDir(dir string) (map[string]fs.FileInfo, error) {
	dir = normalize(dir)
	dirents, err := os.ReadDir(w.abs(dir))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("list dir %q: %w", dir, ErrPathNotFound)
		}
		return nil, fmt.Errorf("list dir %q: %w", dir, err)
	}

	out := make(map[string]fs.FileInfo, len(dirents))
	for _, d := range dirents {
		rel := path.Join(dir, d.Name())
		if w.ignore.IsIgnored(rel, d.IsDir()) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("list dir %q: %w", dir, err)
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			continue
		}
		out[rel] = info
	}
	return out, nil
}

// SortedNames returns the keys of a ListDir result in order.
func SortedNames(entries map[string]fs.FileInfo) []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stat returns metadata for rel, or ErrPathNotFound if it does not exist.
func (w *Workspace) Stat(rel string) (fs.FileInfo, error) {
	rel = normalize(rel)
	info, err := os.Stat(w.abs(rel))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("stat %q: %w", rel, ErrPathNotFound)
		}
		return nil, fmt.Errorf("stat %q: %w", rel, err)
	}
	return info, nil
}

// Read returns the contents of rel, or ErrPathNotFound if it vanished.
func (w *Workspace) Read(rel string) ([]byte, error) {
	rel = normalize(rel)
	data, err := os.ReadFile(w.abs(rel))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("read %q: %w", rel, ErrPathNotFound)
		}
		return nil, fmt.Errorf("read %q: %w", rel, err)
	}
	return data, nil
}

// WriteFile replaces rel with data and applies the permissions for mode,
// creating parent directories as needed.
func (w *Workspace) WriteFile(rel string, data []byte, mode string) error {
	rel = normalize(rel)
	if err := w.MkdirAll(path.Dir(rel)); err != nil {
		return err
	}
	abs := w.abs(rel)
	if info, err := os.Lstat(abs); err == nil && info.IsDir() {
		if err := os.RemoveAll(abs); err != nil {
			return fmt.Errorf("write %q: %w", rel, err)
		}
	}
	perm := FilePerm(mode)
	if err := os.WriteFile(abs, data, perm); err != nil {
		return fmt.Errorf("write %q: %w", rel, err)
	}
	if err := os.Chmod(abs, perm); err != nil {
		return fmt.Errorf("write %q: %w", rel, err)
	}
	return nil
}

// MkdirAll creates rel and its parents. A file in the way is replaced.
func (w *Workspace) MkdirAll(rel string) error {
	rel = normalize(rel)
	if rel == "" {
		return nil
	}
	var cur string
	for _, seg := range strings.Split(rel, "/") {
		cur = path.Join(cur, seg)
		abs := w.abs(cur)
		info, err := os.Lstat(abs)
		switch {
		case err == nil && info.IsDir():
			continue
		case err == nil:
			if err := os.Remove(abs); err != nil {
				return fmt.Errorf("mkdir %q: %w", cur, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("mkdir %q: %w", cur, err)
		}
		if err := os.Mkdir(abs, 0o755); err != nil {
			return fmt.Errorf("mkdir %q: %w", cur, err)
		}
	}
	return nil
}

// Remove deletes rel, which may be a file or a directory tree, and then
// prunes parent directories left empty. A missing path is not an error.
func (w *Workspace) Remove(rel string) error {
	rel = normalize(rel)
	if rel == "" {
		return fmt.Errorf("remove: refusing to remove workspace root")
	}
	if err := os.RemoveAll(w.abs(rel)); err != nil {
		return fmt.Errorf("remove %q: %w", rel, err)
	}
	return w.RemoveEmptyParents(rel)
}

// RemoveEmptyParents removes the empty ancestors of rel, stopping at the
// root or the first non-empty directory.
func (w *Workspace) RemoveEmptyParents(rel string) error {
	for dir := path.Dir(normalize(rel)); dir != "." && dir != ""; dir = path.Dir(dir) {
		entries, err := os.ReadDir(w.abs(dir))
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return fmt.Errorf("remove empty %q: %w", dir, err)
		}
		if len(entries) > 0 {
			return nil
		}
		if err := os.Remove(w.abs(dir)); err != nil {
			return fmt.Errorf("remove empty %q: %w", dir, err)
		}
	}
	return nil
}

// FilePerm maps a tree mode to file permissions.
func FilePerm(mode string) os.FileMode {
	if mode == object.TreeModeExecutable {
		return 0o755
	}
	return 0o644
}
