package flow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func isTransient(err error) bool { return errors.Is(err, errTransient) }

func TestRetry_SucceedsOnThirdAttempt(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		start := time.Now()
		var calls []time.Duration
		op := func(context.Context) (string, error) {
			calls = append(calls, time.Since(start))
			if len(calls) < 3 {
				return "", errTransient
			}
			return "ok", nil
		}

		got, err := RetryWithExponentialBackoff(context.Background(), Backoff{
			Times:        3,
			InitialDelay: 500 * time.Millisecond,
			Factor:       2,
			MaxDelay:     10 * time.Second,
			ShouldRetry:  isTransient,
		}, op)

		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, []time.Duration{0, 500 * time.Millisecond, 1500 * time.Millisecond}, calls)
	})
}

func TestRetry_NonRetryableAbortsImmediately(t *testing.T) {
	calls := 0
	_, err := RetryWithExponentialBackoff(context.Background(), Backoff{
		Times:        5,
		InitialDelay: time.Hour,
		ShouldRetry:  isTransient,
	}, func(context.Context) (int, error) {
		calls++
		return 0, errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
}

func TestRetry_ReturnsLastFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		calls := 0
		_, err := RetryWithExponentialBackoff(context.Background(), Backoff{
			Times:        3,
			InitialDelay: 100 * time.Millisecond,
			Factor:       2,
		}, func(context.Context) (int, error) {
			calls++
			return 0, fmt.Errorf("attempt %d: %w", calls, errTransient)
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.EqualError(t, err, "attempt 3: transient")
	})
}

func TestRetry_DelayIsCapped(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var delays []time.Duration
		_, _ = RetryWithExponentialBackoff(context.Background(), Backoff{
			Times:        5,
			InitialDelay: 100 * time.Millisecond,
			Factor:       3,
			MaxDelay:     500 * time.Millisecond,
			OnRetry: func(_ int, d time.Duration, _ error) {
				delays = append(delays, d)
			},
		}, func(context.Context) (int, error) { return 0, errTransient })

		assert.Equal(t, []time.Duration{
			100 * time.Millisecond,
			300 * time.Millisecond,
			500 * time.Millisecond,
			500 * time.Millisecond,
		}, delays)
	})
}

func TestRetry_CancelDuringWait(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		calls := 0
		_, err := RetryWithExponentialBackoff(ctx, DefaultBackoff(), func(context.Context) (int, error) {
			calls++
			return 0, errTransient
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, calls)
	})
}
