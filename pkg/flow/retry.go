package flow

import (
	"context"
	"time"
)

// Backoff configures RetryWithExponentialBackoff.
type Backoff struct {
	// Times is the total number of attempts, including the first. Values below
	// one mean a single attempt.
	Times int
	// InitialDelay is the wait after the first failed attempt.
	InitialDelay time.Duration
	// Factor multiplies the delay after every further failure.
	Factor float64
	// MaxDelay caps the delay. Zero means no cap.
	MaxDelay time.Duration
	// ShouldRetry decides whether a failure is transient. Nil retries everything.
	ShouldRetry func(error) bool
	// OnRetry, if set, is called before each wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultBackoff is three attempts, 500ms initial delay, doubling, capped at 2s.
func DefaultBackoff() Backoff {
	return Backoff{
		Times:        3,
		InitialDelay: 500 * time.Millisecond,
		Factor:       2,
		MaxDelay:     2 * time.Second,
	}
}

// RetryWithExponentialBackoff runs op until it succeeds, a failure is not
// retryable, or the attempts are exhausted. The k-th wait lasts
// InitialDelay * Factor^(k-1), capped at MaxDelay. The last failure is
// returned. Cancelling ctx aborts a pending wait with ctx.Err().
func RetryWithExponentialBackoff[T any](ctx context.Context, b Backoff, op func(context.Context) (T, error)) (T, error) {
	var zero T
	times := max(b.Times, 1)
	delay := b.InitialDelay

	for attempt := 1; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= times || (b.ShouldRetry != nil && !b.ShouldRetry(err)) {
			return zero, err
		}
		if ctx.Err() != nil {
			return zero, err
		}

		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
		if b.OnRetry != nil {
			b.OnRetry(attempt, delay, err)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		if b.Factor > 0 {
			delay = time.Duration(float64(delay) * b.Factor)
		}
	}
}
