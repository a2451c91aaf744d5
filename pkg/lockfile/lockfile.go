// Package lockfile guards a file with an exclusive sibling "<path>.lock".
// Updates are written into the lock file and renamed over the target on
// Commit, so readers never observe a partial write.
package lockfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrLocked is returned when another holder owns the lock.
	ErrLocked = errors.New("lock already held")
	// ErrNotHeld is returned by operations that require the lock.
	ErrNotHeld = errors.New("lock not held")
)

const retryDelay = 10 * time.Millisecond

// Lockfile is an exclusive lock over a single target path.
type Lockfile struct {
	path     string
	lockPath string
	f        *os.File
}

// New returns an unheld lock for path.
func New(path string) *Lockfile {
	return &Lockfile{path: path, lockPath: path + ".lock"}
}

// Path returns the guarded target path.
func (l *Lockfile) Path() string { return l.path }

// LockPath returns the path of the lock file itself.
func (l *Lockfile) LockPath() string { return l.lockPath }

// Held reports whether this handle currently owns the lock.
func (l *Lockfile) Held() bool { return l.f != nil }

// Hold creates the lock file, failing fast with ErrLocked when it exists.
// Holding an already-held lock is a no-op.
func (l *Lockfile) Hold() error {
	if l.f != nil {
		return nil
	}
	f, err := os.OpenFile(l.lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("lock %q: %w", l.lockPath, ErrLocked)
		}
		if errors.Is(err, fs.ErrNotExist) {
			if mkErr := os.MkdirAll(filepath.Dir(l.lockPath), 0o755); mkErr == nil {
				return l.Hold()
			}
		}
		return fmt.Errorf("lock %q: %w", l.lockPath, err)
	}
	l.f = f
	return nil
}

// HoldWait retries Hold until timeout elapses.
func (l *Lockfile) HoldWait(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		err := l.Hold()
		if err == nil || !errors.Is(err, ErrLocked) {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for lock: %w", err)
		}
		time.Sleep(retryDelay)
	}
}

// Write appends p to the pending contents.
func (l *Lockfile) Write(p []byte) (int, error) {
	if l.f == nil {
		return 0, fmt.Errorf("write %q: %w", l.lockPath, ErrNotHeld)
	}
	return l.f.Write(p)
}

// Commit flushes the pending contents and renames them over the target.
func (l *Lockfile) Commit() error {
	if l.f == nil {
		return fmt.Errorf("commit %q: %w", l.lockPath, ErrNotHeld)
	}
	f := l.f
	l.f = nil
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(l.lockPath)
		return fmt.Errorf("commit %q: sync: %w", l.lockPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(l.lockPath)
		return fmt.Errorf("commit %q: close: %w", l.lockPath, err)
	}
	if err := os.Rename(l.lockPath, l.path); err != nil {
		os.Remove(l.lockPath)
		return fmt.Errorf("commit %q: rename: %w", l.lockPath, err)
	}
	return nil
}

// Rollback discards the pending contents and releases the lock.
func (l *Lockfile) Rollback() error {
	if l.f == nil {
		return fmt.Errorf("rollback %q: %w", l.lockPath, ErrNotHeld)
	}
	f := l.f
	l.f = nil
	f.Close()
	if err := os.Remove(l.lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("rollback %q: %w", l.lockPath, err)
	}
	return nil
}
