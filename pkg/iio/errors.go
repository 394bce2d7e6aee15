package iio

import (
	"errors"
	"fmt"
)

var (
	// ErrBadFormat indicates a malformed scan element type or sample format.
	ErrBadFormat = errors.New("bad sample format")
	// ErrTriggerNotFound indicates no interrupt line matches a device.
	ErrTriggerNotFound = errors.New("trigger not found")
)

// AttrError records a failed attribute operation and the file involved.
type AttrError struct {
	Op   string
	Path string
	Err  error
}

// Error implements error.
func (e *AttrError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *AttrError) Unwrap() error {
	return e.Err
}
