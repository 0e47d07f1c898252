package auris

import (
	"errors"
	"fmt"
)

// ErrSeekNotSupported is wrapped into SeekError by sources which cannot
// reposition at all.
var ErrSeekNotSupported = errors.New("seek not supported")

// OpenError is returned when a backend rejects the input during source
// construction.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("open source: %v", e.Err)
	}
	return fmt.Sprintf("open source %s: %v", e.Path, e.Err)
}

// Unwrap returns the backend error.
func (e *OpenError) Unwrap() error {
	return e.Err
}

// SeekError is returned when a source rejects a seek. The position of
// the source is undefined after a failed seek.
type SeekError struct {
	Position int64
	Err      error
}

func (e *SeekError) Error() string {
	return fmt.Sprintf("seek to frame %d: %v", e.Position, e.Err)
}

// Unwrap returns the cause of the failed seek.
func (e *SeekError) Unwrap() error {
	return e.Err
}
