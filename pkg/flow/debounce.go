package flow

import (
	"context"
	"time"
)

// Debounce forwards a value only after window has passed without a newer one.
// When f completes, a pending value is flushed immediately. When ctx is
// cancelled, pending values are dropped.
func Debounce[T any](f Flow[T], window time.Duration) Flow[T] {
	return func(ctx context.Context, emit func(T) error) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		values := make(chan T)
		upstream := make(chan error, 1)
		go func() {
			upstream <- f(ctx, func(v T) error {
				select {
				case values <- v:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
		}()

		var (
			pending T
			has     bool
			timer   *time.Timer
			fire    <-chan time.Time
		)
		stopTimer := func() {
			if timer != nil {
				timer.Stop()
			}
		}
		defer stopTimer()

		for {
			select {
			case v := <-values:
				pending, has = v, true
				stopTimer()
				timer = time.NewTimer(window)
				fire = timer.C

			case <-fire:
				fire = nil
				has = false
				if err := emit(pending); err != nil {
					cancel()
					<-upstream
					return err
				}

			case err := <-upstream:
				if err != nil {
					return err
				}
				if has && ctx.Err() == nil {
					return emit(pending)
				}
				return nil

			case <-ctx.Done():
				<-upstream
				return ctx.Err()
			}
		}
	}
}
