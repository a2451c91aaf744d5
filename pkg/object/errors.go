package object

import (
	"errors"
	"fmt"
)

// ErrObjectNotFound is returned when no record exists for an id.
var ErrObjectNotFound = errors.New("object not found")

// ErrCorruptObject matches every *CorruptObjectError.
var ErrCorruptObject = errors.New("corrupt object")

// CorruptObjectError reports a stored object that cannot be decoded:
// a decompression failure, a malformed header or a length mismatch.
type CorruptObjectError struct {
	Hash   Hash
	Reason string
	Err    error
}

func (e *CorruptObjectError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", ErrCorruptObject, e.Hash, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", ErrCorruptObject, e.Hash, e.Reason)
}

func (e *CorruptObjectError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *CorruptObjectError) Is(target error) bool {
	return target == ErrCorruptObject
}

func corrupt(h Hash, reason string, err error) error {
	return &CorruptObjectError{Hash: h, Reason: reason, Err: err}
}
