package repo

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/odvcencio/rug/pkg/index"
	"github.com/odvcencio/rug/pkg/object"
	"github.com/odvcencio/rug/pkg/workspace"
)

// MetaDirName is the metadata directory kept at the workspace root.
const MetaDirName = ".rug"

// Layout names every path a repository uses. Components take their paths
// from it rather than deriving them on their own.
type Layout struct {
	Root       string // workspace root
	MetaDir    string // <root>/.rug
	ObjectsDir string
	IndexPath  string
	RefsDir    string
	HeadPath   string
	ConfigPath string
	LogsDir    string
}

// NewLayout returns the layout of a repository whose workspace is root.
func NewLayout(root string) Layout {
	meta := filepath.Join(root, MetaDirName)
	return Layout{
		Root:       root,
		MetaDir:    meta,
		ObjectsDir: filepath.Join(meta, "objects"),
		IndexPath:  filepath.Join(meta, "index"),
		RefsDir:    filepath.Join(meta, "refs"),
		HeadPath:   filepath.Join(meta, "HEAD"),
		ConfigPath: filepath.Join(meta, "config.toml"),
		LogsDir:    filepath.Join(meta, "logs"),
	}
}

// Repo represents an opened rug repository.
type Repo struct {
	Layout
	Store     *object.Store
	Workspace *workspace.Workspace

	logger *slog.Logger
	now    func() time.Time
	getenv func(string) string
}

// Option configures a Repo.
type Option func(*Repo)

// WithLogger sets the logger shared by the repository's components.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repo) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock replaces time.Now for commit and reflog timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) {
		if now != nil {
			r.now = now
		}
	}
}

// WithEnv replaces os.Getenv for identity and editor lookups.
func WithEnv(getenv func(string) string) Option {
	return func(r *Repo) {
		if getenv != nil {
			r.getenv = getenv
		}
	}
}

func newRepo(root string, opts ...Option) *Repo {
	r := &Repo{
		Layout: NewLayout(root),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Store = object.NewStore(r.ObjectsDir, object.WithLogger(r.logger))
	r.Workspace = workspace.New(root, workspace.WithLogger(r.logger))
	return r
}

// Logger returns the repository logger.
func (r *Repo) Logger() *slog.Logger { return r.logger }

// Now returns the current time according to the repository clock.
func (r *Repo) Now() time.Time { return r.now() }

// Getenv looks up an environment variable through the repository's
// environment.
func (r *Repo) Getenv(key string) string { return r.getenv(key) }

// NewIndex returns an unloaded index bound to the repository's index file.
func (r *Repo) NewIndex() *index.Index {
	return index.New(r.IndexPath, index.WithLogger(r.logger))
}

// NewArena returns a fresh object arena over the repository store.
func (r *Repo) NewArena() *object.Arena {
	return object.NewArena(r.Store)
}
