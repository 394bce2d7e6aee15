package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEventLoopOneShotOrder(t *testing.T) {
	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}
	l := NewEventLoop().Add(
		Timer{Name: "late", Timeout: 20 * time.Millisecond, Fire: record("late")},
		Timer{Name: "first", Fire: record("first")},
		Timer{Name: "second", Fire: record("second")},
		Timer{Name: "unbound"},
	)
	require.Equal(t, 3, l.Len())
	require.NoError(t, l.Run(context.Background()))
	require.Equal(t, []string{"first", "second", "late"}, order)
	require.Zero(t, l.Len())
}

func TestEventLoopRepeatUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	count := 0
	var fired []string
	var errs []error
	l := NewEventLoop().Add(Timer{
		Name:   "tick",
		Repeat: time.Millisecond,
		Fire: func(context.Context) error {
			count++
			if count == 3 {
				cancel()
			}
			if count == 2 {
				return errors.New("boom")
			}
			return nil
		},
	})
	l.OnFire = func(name string, err error) {
		fired = append(fired, name)
		errs = append(errs, err)
	}
	require.ErrorIs(t, l.Run(ctx), context.Canceled)
	require.Equal(t, 3, count)
	require.Equal(t, []string{"tick", "tick", "tick"}, fired)
	require.Nil(t, errs[0])
	require.Error(t, errs[1])
}

func TestEventLoopCanceledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	l := NewEventLoop().Add(Timer{Name: "never", Timeout: time.Hour, Fire: func(context.Context) error {
		t.Error("fired")
		return nil
	}})
	require.ErrorIs(t, l.Run(ctx), context.DeadlineExceeded)
}

func TestEventLoopEmpty(t *testing.T) {
	require.NoError(t, NewEventLoop().Run(context.Background()))
}
