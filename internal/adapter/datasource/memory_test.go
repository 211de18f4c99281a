package datasource

import (
	"context"
	"math/rand"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvi-users/internal/domain"
)

func TestMemorySeedAndList(t *testing.T) {
	m := NewMemory(MemoryOptions{Seed: append(DefaultSeed(), domain.User{Email: "bad"})})

	users, err := m.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, len(DefaultSeed()), "invalid seed users are skipped")
	for _, u := range users {
		assert.NotEmpty(t, u.ID)
		assert.Contains(t, u.Avatar, u.ID)
	}
}

func TestMemoryCreate(t *testing.T) {
	m := NewMemory(MemoryOptions{})
	ctx := context.Background()

	created, err := m.Create(ctx, domain.User{Email: " new@example.com ", FirstName: "Newt", LastName: "User", Gender: domain.GenderFemale})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", created.Email)
	assert.NotEmpty(t, created.ID)

	_, err = m.Create(ctx, domain.User{Email: "new@example.com", FirstName: "Other", LastName: "User"})
	assert.Equal(t, domain.ErrServer, domain.ClassifyError(err).Kind)

	_, err = m.Create(ctx, domain.User{Email: "x", FirstName: "Al", LastName: "User"})
	ue := domain.ClassifyError(err)
	require.NotNil(t, ue)
	assert.Equal(t, domain.ErrValidationFailed, ue.Kind)
	assert.Equal(t, 2, ue.Errors.Len())
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory(MemoryOptions{Seed: []domain.User{{ID: "u1", Email: "a@b.co", FirstName: "Alice", LastName: "Smith"}}})
	ctx := context.Background()

	assert.ErrorIs(t, m.Delete(ctx, ""), domain.ErrInvalidID)
	require.NoError(t, m.Delete(ctx, "u1"))

	err := m.Delete(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, "u1", domain.ClassifyError(err).ID)
}

func TestMemorySearch(t *testing.T) {
	m := NewMemory(MemoryOptions{Seed: DefaultSeed()})
	ctx := context.Background()

	found, err := m.Search(ctx, "ADA")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Ada", found[0].FirstName)

	found, err = m.Search(ctx, "grace hop")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = m.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestMemoryFailureInjection(t *testing.T) {
	m := NewMemory(MemoryOptions{Seed: DefaultSeed(), FailureRate: 1, Rand: rand.New(rand.NewSource(1))})

	_, err := m.List(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.True(t, domain.IsRetryableError(err))
}

func TestMemoryLatency(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := NewMemory(MemoryOptions{Latency: 200 * time.Millisecond})

		start := time.Now()
		_, err := m.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 200*time.Millisecond, time.Since(start))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = m.List(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.True(t, domain.IsRetryableError(err))
	})
}
