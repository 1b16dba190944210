package fetcher

import (
	"context"
	"fmt"
	"time"
)

// Cancellable runs fn with a soft timeout. When the timer fires first it
// returns ErrSoftTimeout immediately and cancels the context handed to fn;
// work that ignores the context finishes in the background and its result is
// discarded. A non-positive timeout runs fn inline.
func Cancellable[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if timeout <= 0 {
		return fn(ctx)
	}

	child, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		value, err := fn(child)
		done <- outcome{value: value, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.value, out.err
	case <-timer.C:
		return zero, ErrSoftTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
