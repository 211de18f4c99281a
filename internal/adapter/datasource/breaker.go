package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"mvi-users/internal/domain"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// BreakerOptions configures CircuitBreaker.
type BreakerOptions struct {
	// MaxFailures is the number of consecutive transient failures before the
	// circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before going half-open.
	Timeout time.Duration
	// Interval is the cyclic period of the closed state for clearing failure
	// counts.
	Interval time.Duration
}

// CircuitBreaker wraps a data source so that a run of transient failures
// makes later calls fail fast with a network error. Domain rejections such as
// not-found do not count as failures.
type CircuitBreaker struct {
	inner   domain.UserDataSource
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

// NewCircuitBreaker wraps inner. Zero options fall back to defaults.
func NewCircuitBreaker(inner domain.UserDataSource, opts BreakerOptions, logger *slog.Logger) *CircuitBreaker {
	maxFailures := opts.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := opts.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "datasource",
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || !domain.IsRetryableError(err)
		},
	})
	return &CircuitBreaker{inner: inner, breaker: cb, logger: logger}
}

func execute[T any](b *CircuitBreaker, op string, fn func() (T, error)) (T, error) {
	var zero T
	v, err := b.breaker.Execute(func() (any, error) { return fn() })
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, domain.NewNetworkError(fmt.Errorf("%s: circuit open: %w", op, err))
		}
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	return v.(T), nil
}

func (b *CircuitBreaker) List(ctx context.Context) ([]domain.User, error) {
	return execute(b, "List", func() ([]domain.User, error) { return b.inner.List(ctx) })
}

func (b *CircuitBreaker) Create(ctx context.Context, u domain.User) (domain.User, error) {
	return execute(b, "Create", func() (domain.User, error) { return b.inner.Create(ctx, u) })
}

func (b *CircuitBreaker) Delete(ctx context.Context, id string) error {
	_, err := execute(b, "Delete", func() (struct{}, error) { return struct{}{}, b.inner.Delete(ctx, id) })
	return err
}

func (b *CircuitBreaker) Search(ctx context.Context, query string) ([]domain.User, error) {
	return execute(b, "Search", func() ([]domain.User, error) { return b.inner.Search(ctx, query) })
}

// State returns the current circuit breaker state for monitoring.
func (b *CircuitBreaker) State() gobreaker.State {
	return b.breaker.State()
}

var _ domain.UserDataSource = (*CircuitBreaker)(nil)
