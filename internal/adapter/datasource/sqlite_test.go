package datasource

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvi-users/internal/domain"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "users.db"), DefaultSeed())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteSeedsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	ctx := context.Background()

	s, err := NewSQLite(ctx, path, DefaultSeed())
	require.NoError(t, err)
	users, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, len(DefaultSeed()))
	assert.Equal(t, "Petrus", users[0].FirstName)
	require.NoError(t, s.Close())

	s, err = NewSQLite(ctx, path, DefaultSeed())
	require.NoError(t, err)
	defer s.Close()
	again, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, users, again)
}

func TestSQLiteCreateAndDelete(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	created, err := s.Create(ctx, domain.User{Email: "new@example.com", FirstName: "Newt", LastName: "User", Gender: domain.GenderFemale})
	require.NoError(t, err)
	assert.Len(t, created.ID, 26)

	users, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, created, users[len(users)-1])

	_, err = s.Create(ctx, created)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, s.Delete(ctx, created.ID))
	assert.ErrorIs(t, s.Delete(ctx, created.ID), domain.ErrUserNotFound)
	assert.ErrorIs(t, s.Delete(ctx, ""), domain.ErrInvalidID)
}

func TestSQLiteCreateValidates(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.Create(context.Background(), domain.User{Email: "a@b.co", FirstName: "Al", LastName: "Li"})
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestSQLiteSearch(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	found, err := s.Search(ctx, "turing")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Alan", found[0].FirstName)

	found, err = s.Search(ctx, "Ada Love")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = s.Search(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, found, "LIKE wildcards are matched literally")
}
