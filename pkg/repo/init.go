package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Init creates a new repository at path. It creates the .rug/ directory
// structure: HEAD, objects/, refs/heads/, logs/refs/heads/ and a default
// config.toml, plus an empty index. No objects exist until the first add.
// Returns ErrRepositoryExists if a .rug/ directory is already present.
func Init(path string, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: abs path: %w", err)
	}
	r := newRepo(abs, opts...)

	if _, err := os.Stat(r.MetaDir); err == nil {
		return nil, fmt.Errorf("init %q: %w", r.MetaDir, ErrRepositoryExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("init %q: %w", r.MetaDir, err)
	}

	dirs := []string{
		r.ObjectsDir,
		filepath.Join(r.RefsDir, "heads"),
		filepath.Join(r.LogsDir, "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	if err := os.WriteFile(r.HeadPath, []byte(symrefPrefix+branchPrefix+DefaultBranch+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}
	if err := os.WriteFile(r.ConfigPath, []byte(defaultConfigFile), 0o644); err != nil {
		return nil, fmt.Errorf("init: write config: %w", err)
	}

	idx := r.NewIndex()
	idx.Reset()
	if err := idx.Save(); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	r.logger.Debug("repository initialized", "root", r.Root)
	return r, nil
}

// Open searches upward from path for a .rug/ directory and opens the
// repository. Returns ErrNotRepository if none is found.
func Open(path string, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		info, err := os.Stat(filepath.Join(cur, MetaDirName))
		if err == nil && info.IsDir() {
			return newRepo(cur, opts...), nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open %q: %w (or any parent up to /)", abs, ErrNotRepository)
		}
		cur = parent
	}
}
