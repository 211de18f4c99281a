package flow

import (
	"context"
	"errors"
	"sync"
)

// errPrimaryDone cancels the secondary collector once the primary completes.
var errPrimaryDone = errors.New("flow: primary completed")

// otherFailure carries the secondary's error as the cancellation cause. It is
// matched by pointer, so the wrapped error need not be comparable.
type otherFailure struct{ err error }

func (f *otherFailure) Error() string { return f.err.Error() }
func (f *otherFailure) Unwrap() error { return f.err }

// WithLatestFrom emits transform(a, b) for every value a of primary, where b is
// the most recent value of other. Primary values that arrive before other has
// produced anything are dropped. other is collected on its own goroutine for as
// long as primary runs; if it fails, the combined flow fails with that error.
func WithLatestFrom[A, B, R any](primary Flow[A], other Flow[B], transform func(A, B) R) Flow[R] {
	return func(ctx context.Context, emit func(R) error) error {
		ctx, cancel := context.WithCancelCause(ctx)
		defer cancel(nil)

		var (
			mu     sync.Mutex
			latest B
			ready  bool
		)
		failed := &otherFailure{}
		otherDone := make(chan struct{})
		go func() {
			defer close(otherDone)
			err := other(ctx, func(b B) error {
				mu.Lock()
				latest, ready = b, true
				mu.Unlock()
				return nil
			})
			if err != nil {
				failed.err = err
				cancel(failed)
			}
		}()

		err := primary(ctx, func(a A) error {
			mu.Lock()
			b, ok := latest, ready
			mu.Unlock()
			if !ok {
				return nil
			}
			return emit(transform(a, b))
		})

		cancel(errPrimaryDone)
		<-otherDone
		if cause, ok := context.Cause(ctx).(*otherFailure); ok && cause == failed {
			return failed.err
		}
		return err
	}
}
