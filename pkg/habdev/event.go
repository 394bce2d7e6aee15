package habdev

import (
	"context"
	"time"
)

// Event is a timer event. It first fires after Timeout and then every
// Repeat; a zero Repeat fires once.
type Event struct {
	Name    string
	Timeout time.Duration
	Repeat  time.Duration

	fire func(context.Context) error
}

// Bound tells whether a callback is attached.
func (e *Event) Bound() bool {
	return e != nil && e.fire != nil
}

// Fire runs the attached callback. It is a no-op without one.
func (e *Event) Fire(ctx context.Context) error {
	if !e.Bound() {
		return nil
	}
	return e.fire(ctx)
}

// DeviceCallback runs when the event of a device fires.
type DeviceCallback func(ctx context.Context, dev *Device) error

// GlobalCallback runs when a global event fires.
type GlobalCallback func(ctx context.Context, ev *GlobalEvent) error

// CallbackSet selects the callback bound to each event during
// registration: by device index for device events and by id for global
// events.
type CallbackSet struct {
	devices map[int]DeviceCallback
	globals map[int]GlobalCallback
}

// NewCallbackSet creates an empty CallbackSet.
func NewCallbackSet() *CallbackSet {
	return &CallbackSet{
		devices: make(map[int]DeviceCallback),
		globals: make(map[int]GlobalCallback),
	}
}

// SetDevice binds cb to the event of the device at index.
func (s *CallbackSet) SetDevice(index int, cb DeviceCallback) *CallbackSet {
	s.devices[index] = cb
	return s
}

// SetGlobal binds cb to the global event with id.
func (s *CallbackSet) SetGlobal(id int, cb GlobalCallback) *CallbackSet {
	s.globals[id] = cb
	return s
}

func (s *CallbackSet) device(index int) DeviceCallback {
	if s == nil {
		return nil
	}
	return s.devices[index]
}

func (s *CallbackSet) global(id int) GlobalCallback {
	if s == nil {
		return nil
	}
	return s.globals[id]
}
