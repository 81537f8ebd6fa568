package fsio

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingIo is returned when a suspended primitive is resumed
	// without the handled request.
	ErrMissingIo = errors.New("missing io reply")

	// ErrUnexpectedIo is returned when a primitive is resumed with a
	// request of another kind than the one it emitted.
	ErrUnexpectedIo = errors.New("unexpected io reply")

	// ErrUnsupportedIo is returned by an executor for requests it
	// cannot handle.
	ErrUnsupportedIo = errors.New("unsupported io request")
)

// Error is a failed primitive. Err is either the OS-level failure
// recorded by the executor or a protocol error (ErrMissingIo,
// ErrUnexpectedIo).
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("fsio: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("fsio: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
