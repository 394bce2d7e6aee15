package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Timer is a scheduled callback. It fires first after Timeout and then
// every Repeat. A zero Repeat fires only once.
type Timer struct {
	Name    string
	Timeout time.Duration
	Repeat  time.Duration
	Fire    func(context.Context) error
}

// FireHook observes every timer execution.
type FireHook func(name string, err error)
