package habdev

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind indicates the config root is not a device tag.
	ErrUnknownKind = errors.New("unknown device kind")
	// ErrNoPendingAttr indicates a value with no preceding channel name.
	ErrNoPendingAttr = errors.New("value without pending attribute")
	// ErrNoTrigger indicates a buffered device without a trigger.
	ErrNoTrigger = errors.New("no trigger for buffered device")
	// ErrNoBuffer indicates a buffer operation on a device without buffer.
	ErrNoBuffer = errors.New("device has no buffer")
	// ErrUnknownGlobal indicates a reference to an unregistered global event.
	ErrUnknownGlobal = errors.New("unknown global event")
	// ErrBadValue indicates a config value that does not parse.
	ErrBadValue = errors.New("bad config value")
	// ErrDuplicateIndex indicates an index that is already registered.
	ErrDuplicateIndex = errors.New("index already registered")
)

// Registration stages reported by RegisterError.
const (
	StageLoad     = "load"
	StageIdentify = "identify"
	StageCollect  = "collect"
	StageWrite    = "write"
)

// RegisterError reports the device and stage a registration failed in.
type RegisterError struct {
	Index int
	Name  string
	Stage string
	Err   error
}

// Error implements error.
func (e *RegisterError) Error() string {
	name := e.Name
	if name == "" {
		name = "?"
	}
	return fmt.Sprintf("device %d (%s) %s: %v", e.Index, name, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *RegisterError) Unwrap() error {
	return e.Err
}
