package recsrc

import (
	"errors"
	"fmt"
)

// OpenError reports a source that could not be opened, or whose
// collection does not exist.
type OpenError struct {
	Path       string
	Collection string
	Err        error
}

func (e *OpenError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("open %s (collection %q): %v", e.Path, e.Collection, e.Err)
	}
	return fmt.Sprintf("open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// ReadError reports a record that could not be loaded.
type ReadError struct {
	Path  string
	Index int64
	Err   error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s record %d: %v", e.Path, e.Index, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// FieldError reports a missing field or one that cannot be converted to
// the requested type.
type FieldError struct {
	Name string
	Err  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Name, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ErrNoField is wrapped by FieldError when a record has no such field.
var ErrNoField = errors.New("no such field")

// ErrOutOfRange is wrapped by ReadError when the index is past the end.
var ErrOutOfRange = errors.New("index out of range")

// IsOpenError returns true if err is or wraps an *OpenError.
func IsOpenError(err error) bool {
	var oe *OpenError
	return errors.As(err, &oe)
}

// IsReadError returns true if err is or wraps a *ReadError.
func IsReadError(err error) bool {
	var re *ReadError
	return errors.As(err, &re)
}
