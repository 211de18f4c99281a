package flow

import (
	"context"
	"errors"
)

var (
	errNotified = errors.New("flow: notifier fired")
	errSettled  = errors.New("flow: source settled")
)

// TakeUntil mirrors f until notifier emits its first value or completes, then
// completes. A failing notifier fails the combined flow. Cancelling either side
// stops both.
func TakeUntil[T, U any](f Flow[T], notifier Flow[U]) Flow[T] {
	return func(ctx context.Context, emit func(T) error) error {
		ctx, cancel := context.WithCancelCause(ctx)
		defer cancel(nil)

		done := make(chan struct{})
		go func() {
			defer close(done)
			stop := &stopSignal{}
			err := notifier(ctx, func(U) error { return stop })
			switch {
			case err == nil || errors.Is(err, stop):
				cancel(errNotified)
			default:
				cancel(err)
			}
		}()

		err := f(ctx, func(v T) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return emit(v)
		})
		cause := context.Cause(ctx)
		cancel(errSettled)
		<-done

		switch {
		case errors.Is(cause, errNotified):
			return nil
		case cause != nil && !errors.Is(cause, context.Canceled) && !errors.Is(cause, context.DeadlineExceeded):
			return cause
		}
		return err
	}
}
