package datasource

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvi-users/internal/domain"
)

type mockSource struct {
	calls   int
	listErr error
	users   []domain.User
}

func (m *mockSource) List(context.Context) ([]domain.User, error) {
	m.calls++
	return m.users, m.listErr
}

func (m *mockSource) Create(_ context.Context, u domain.User) (domain.User, error) {
	m.calls++
	return u, nil
}

func (m *mockSource) Delete(context.Context, string) error {
	m.calls++
	return domain.NewUserNotFoundError("x")
}

func (m *mockSource) Search(context.Context, string) ([]domain.User, error) {
	m.calls++
	return m.users, nil
}

func TestCircuitBreakerPassesThrough(t *testing.T) {
	inner := &mockSource{users: []domain.User{{ID: "1"}}}
	cb := NewCircuitBreaker(inner, BreakerOptions{}, slog.Default())

	users, err := cb.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, inner.users, users)

	created, err := cb.Create(context.Background(), domain.User{ID: "2"})
	require.NoError(t, err)
	assert.Equal(t, "2", created.ID)
}

func TestCircuitBreakerOpensAfterTransientFailures(t *testing.T) {
	inner := &mockSource{listErr: domain.ErrUnavailable}
	cb := NewCircuitBreaker(inner, BreakerOptions{MaxFailures: 3, Timeout: 5 * time.Second}, slog.Default())

	for i := 0; i < 3; i++ {
		_, err := cb.List(context.Background())
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.List(context.Background())
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.True(t, domain.IsRetryableError(err))
	assert.Equal(t, 3, inner.calls, "open circuit must not reach the source")
}

func TestCircuitBreakerIgnoresDomainRejections(t *testing.T) {
	inner := &mockSource{}
	cb := NewCircuitBreaker(inner, BreakerOptions{MaxFailures: 2}, slog.Default())

	for i := 0; i < 5; i++ {
		err := cb.Delete(context.Background(), "x")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())

	inner.listErr = errors.New("boom")
	for i := 0; i < 5; i++ {
		_, _ = cb.List(context.Background())
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State(), "unexpected errors are not transient")
}
