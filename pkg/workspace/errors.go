package workspace

import (
	"errors"
	"io/fs"
	"syscall"
)

// ErrPathNotFound is returned when a path vanished from the working tree,
// typically between listing and reading it.
var ErrPathNotFound = errors.New("path not found")

func isNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
