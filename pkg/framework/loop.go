package framework

import (
	"context"
	"time"

	"github.com/golang/glog"
)

// EventLoop runs timers serially on the goroutine calling Run. A callback
// never overlaps another one; a slow callback delays the timers due
// during its execution.
type EventLoop struct {
	// OnFire, if set, is called after every callback.
	OnFire FireHook

	timers []*scheduled
}

type scheduled struct {
	Timer
	due time.Time
}

// NewEventLoop creates an empty EventLoop.
func NewEventLoop() *EventLoop {
	return &EventLoop{}
}

// Add schedules timers. Timers without callback are skipped. It must be
// called before Run.
func (l *EventLoop) Add(timers ...Timer) *EventLoop {
	for _, t := range timers {
		if t.Fire == nil {
			glog.Warningf("timer %s has no callback, not scheduled", t.Name)
			continue
		}
		l.timers = append(l.timers, &scheduled{Timer: t})
	}
	return l
}

// Len returns the number of scheduled timers.
func (l *EventLoop) Len() int {
	return len(l.timers)
}

// Run implements Runnable. It returns when ctx is done or when no timer
// is left to fire.
func (l *EventLoop) Run(ctx context.Context) error {
	start := time.Now()
	for _, t := range l.timers {
		t.due = start.Add(t.Timeout)
	}
	for len(l.timers) > 0 {
		next := l.next()
		if wait := time.Until(next.due); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		l.fire(ctx, next)
	}
	return nil
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *EventLoop) RunOrFail() {
	if err := l.Run(context.Background()); err != nil {
		glog.Fatal(err)
	}
}

// next returns the timer due first. Ties go to the timer added first.
func (l *EventLoop) next() *scheduled {
	next := l.timers[0]
	for _, t := range l.timers[1:] {
		if t.due.Before(next.due) {
			next = t
		}
	}
	return next
}

func (l *EventLoop) fire(ctx context.Context, t *scheduled) {
	err := t.Fire(ctx)
	if err != nil {
		glog.Errorf("timer %s: %v", t.Name, err)
	} else {
		glog.V(4).Infof("timer %s fired", t.Name)
	}
	if l.OnFire != nil {
		l.OnFire(t.Name, err)
	}
	if t.Repeat > 0 {
		t.due = t.due.Add(t.Repeat)
		return
	}
	for n, s := range l.timers {
		if s == t {
			l.timers = append(l.timers[:n], l.timers[n+1:]...)
			break
		}
	}
}
