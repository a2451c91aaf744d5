package repo

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/odvcencio/rug/pkg/diff"
	"github.com/odvcencio/rug/pkg/object"
)

// Environment variables that override the config file.
const (
	EnvAuthorName  = "RUG_AUTHOR_NAME"
	EnvAuthorEmail = "RUG_AUTHOR_EMAIL"
	EnvEditor      = "RUG_EDITOR"
)

const defaultEditor = "vi"

const defaultConfigFile = `# rug repository configuration.
#
# [user]
# name = "Your Name"
# email = "you@example.com"
#
# [core]
# editor = "vi"

[diff]
context = 3
sniff_len = 8000
`

// Config stores repository-local settings. Values missing from the file
// keep their defaults.
type Config struct {
	User UserConfig `toml:"user"`
	Core CoreConfig `toml:"core"`
	Diff DiffConfig `toml:"diff"`
}

type UserConfig struct {
	Name  string `toml:"name,omitempty"`
	Email string `toml:"email,omitempty"`
}

type CoreConfig struct {
	Editor string `toml:"editor,omitempty"`
}

type DiffConfig struct {
	Context  int `toml:"context"`
	SniffLen int `toml:"sniff_len"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Diff: DiffConfig{
			Context:  diff.DefaultContext,
			SniffLen: diff.DefaultSniffLen,
		},
	}
}

// ConfigParseError reports a config file that is not valid TOML.
type ConfigParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

func (e *ConfigParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ConfigParseError) Unwrap() error {
	return e.Err
}

// ReadConfig reads .rug/config.toml on top of DefaultConfig. A missing
// file yields the defaults.
func (r *Repo) ReadConfig() (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(r.ConfigPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %q: %w", r.ConfigPath, err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		pe := &ConfigParseError{Path: r.ConfigPath, Message: err.Error(), Err: err}
		var tomlErr toml.ParseError
		if errors.As(err, &tomlErr) {
			pe.Line = tomlErr.Position.Line
			pe.Message = tomlErr.Message
		}
		return nil, pe
	}
	for _, key := range md.Undecoded() {
		r.logger.Warn("unknown config key", "key", key.String(), "path", r.ConfigPath)
	}
	if cfg.Diff.Context < 0 {
		cfg.Diff.Context = diff.DefaultContext
	}
	if cfg.Diff.SniffLen <= 0 {
		cfg.Diff.SniffLen = diff.DefaultSniffLen
	}
	return cfg, nil
}

// WriteConfig atomically writes .rug/config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	tmp, err := os.CreateTemp(r.MetaDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.ConfigPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// Identity returns the author signature stamped with the repository clock.
// RUG_AUTHOR_NAME and RUG_AUTHOR_EMAIL take precedence over [user].
func (r *Repo) Identity() (object.Signature, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return object.Signature{}, err
	}
	name := strings.TrimSpace(cfg.User.Name)
	if v := strings.TrimSpace(r.getenv(EnvAuthorName)); v != "" {
		name = v
	}
	email := strings.TrimSpace(cfg.User.Email)
	if v := strings.TrimSpace(r.getenv(EnvAuthorEmail)); v != "" {
		email = v
	}
	if name == "" || email == "" {
		return object.Signature{}, fmt.Errorf("%w: set user.name and user.email in %s or %s and %s",
			ErrUnknownIdentity, r.ConfigPath, EnvAuthorName, EnvAuthorEmail)
	}
	return object.Signature{Name: name, Email: email, When: r.now()}, nil
}

// Editor returns the command used to edit commit messages: RUG_EDITOR,
// then core.editor, then EDITOR, then vi.
func (r *Repo) Editor() string {
	if v := strings.TrimSpace(r.getenv(EnvEditor)); v != "" {
		return v
	}
	if cfg, err := r.ReadConfig(); err == nil && strings.TrimSpace(cfg.Core.Editor) != "" {
		return strings.TrimSpace(cfg.Core.Editor)
	}
	if v := strings.TrimSpace(r.getenv("EDITOR")); v != "" {
		return v
	}
	return defaultEditor
}

// DiffOptions returns the diff settings from config.
func (r *Repo) DiffOptions() (diff.Options, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return diff.Options{}, err
	}
	return diff.Options{Context: cfg.Diff.Context, SniffLen: cfg.Diff.SniffLen}, nil
}
