package index

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexCorrupt matches every *CorruptError.
	ErrIndexCorrupt = errors.New("index corrupt")
	// ErrIndexLocked is returned when another process holds the index lock.
	// It also matches lockfile.ErrLocked.
	ErrIndexLocked = errors.New("index locked")
)

// CorruptError reports an index file that failed to decode.
type CorruptError struct {
	Path   string
	Reason string
}

func (e *CorruptError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s: %s", ErrIndexCorrupt, e.Path, e.Reason)
}

func (e *CorruptError) Is(target error) bool {
	return target == ErrIndexCorrupt
}
