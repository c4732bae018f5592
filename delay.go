package adc

import (
	"context"
	"time"
)

// Delayer suspends the calling goroutine for a number of microseconds.
// It only fails when ctx is done before the delay elapses.
type Delayer interface {
	DelayUs(ctx context.Context, us uint32) error
}

// SleepDelayer waits on a timer and gives up early when ctx ends.
type SleepDelayer struct{}

func (SleepDelayer) DelayUs(ctx context.Context, us uint32) error {
	if us == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(us) * time.Microsecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DelayFunc adapts a plain function to the Delayer interface.
type DelayFunc func(ctx context.Context, us uint32) error

func (f DelayFunc) DelayUs(ctx context.Context, us uint32) error {
	return f(ctx, us)
}
