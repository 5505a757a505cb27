package storage

import (
	"errors"
	"fmt"
)

// ErrThreadIDRequired is returned when an operation is given an empty thread id.
var ErrThreadIDRequired = errors.New("thread id is required")

// Error reports a failure of the underlying store: I/O, driver, or corrupt
// rows. It is fatal to the current call and never retried.
type Error struct {
	Op       string
	ThreadID string
	Err      error
}

func (e *Error) Error() string {
	if e.ThreadID != "" {
		return fmt.Sprintf("storage: %s thread %q: %v", e.Op, e.ThreadID, e.Err)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is, or wraps, a *Error.
func IsStorageError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

// Wrap annotates err as a storage failure. A nil err stays nil.
func Wrap(op, threadID string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, ThreadID: threadID, Err: err}
}
