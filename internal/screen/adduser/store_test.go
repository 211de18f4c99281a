package adduser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvi-users/internal/domain"
)

type fakeUseCase struct {
	mu    sync.Mutex
	delay time.Duration
	err   error
	added []domain.User
}

func (f *fakeUseCase) Add(ctx context.Context, u domain.User) error {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, u)
	return nil
}

func (f *fakeUseCase) addedUsers() []domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.added
}

func newTestStore(uc UseCase) *Store {
	return NewStore(context.Background(), uc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// send dispatches each intent and lets the store settle in between.
func send(s *Store, intents ...Intent) {
	for _, i := range intents {
		s.ProcessIntent(i)
		synctest.Wait()
	}
}

func fill(email, first, last string) []Intent {
	return []Intent{
		FieldChanged{Field: FieldEmail, Value: email},
		FieldChanged{Field: FieldFirstName, Value: first},
		FieldChanged{Field: FieldLastName, Value: last},
	}
}

func TestInitialStateHidesErrors(t *testing.T) {
	s := InitialState()
	assert.Equal(t, []domain.ValidationError{
		domain.InvalidEmailAddress, domain.TooShortFirstName, domain.TooShortLastName,
	}, s.Errors)
	assert.Empty(t, s.VisibleErrors())
	assert.Equal(t, domain.GenderMale, s.Gender)
}

func TestErrorsShowOnlyForTouchedFields(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := newTestStore(&fakeUseCase{})
		defer s.Close()
		synctest.Wait()

		send(s, FieldChanged{Field: FieldEmail, Value: "h"})
		state := s.State()
		assert.Equal(t, "h", state.Email)
		assert.True(t, state.EmailTouched)
		assert.Equal(t, []domain.ValidationError{domain.InvalidEmailAddress}, state.VisibleErrors())
		assert.True(t, state.HasError(domain.TooShortFirstName))

		send(s, FieldChanged{Field: FieldFirstName, Value: "h"}, FieldChanged{Field: FieldLastName, Value: "valid"})
		assert.Equal(t, []domain.ValidationError{domain.InvalidEmailAddress, domain.TooShortFirstName}, s.State().Errors)
		assert.Equal(t, s.State().Errors, s.State().VisibleErrors())
	})
}

func TestInvalidSubmitTouchesAllFields(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		uc := &fakeUseCase{}
		s := newTestStore(uc)
		defer s.Close()
		synctest.Wait()

		send(s, Submit{})
		state := s.State()
		assert.True(t, state.EmailTouched && state.FirstNameTouched && state.LastNameTouched)
		assert.Len(t, state.VisibleErrors(), 3)
		assert.Empty(t, uc.addedUsers())
	})
}

func TestValidSubmitAddsUserOnce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		uc := &fakeUseCase{delay: 100 * time.Millisecond}
		s := newTestStore(uc)
		defer s.Close()
		synctest.Wait()

		send(s, fill(" hoc@example.com", "Petrus", "Hoc ")...)
		send(s, GenderChanged{Gender: domain.GenderFemale})
		assert.Empty(t, s.State().Errors)

		send(s, Submit{})
		assert.True(t, s.State().IsLoading)
		send(s, Submit{})
		time.Sleep(200 * time.Millisecond)

		want := domain.User{Email: "hoc@example.com", FirstName: "Petrus", LastName: "Hoc", Gender: domain.GenderFemale}
		assert.Equal(t, []domain.User{want}, uc.addedUsers())
		assert.False(t, s.State().IsLoading)

		ev, err := s.NextEvent(context.Background())
		require.NoError(t, err)
		assert.Equal(t, UserAdded{User: want}, ev)
	})
}

func TestFailedAddRaisesEvent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		uc := &fakeUseCase{err: fmt.Errorf("create: %w", domain.ErrInvalidInput)}
		s := newTestStore(uc)
		defer s.Close()
		synctest.Wait()

		send(s, fill("a@b.co", "Alice", "Smith")...)
		send(s, Submit{})

		ev, err := s.NextEvent(context.Background())
		require.NoError(t, err)
		failed, ok := ev.(AddUserFailed)
		require.True(t, ok, "got %T", ev)
		assert.Equal(t, "a@b.co", failed.User.Email)
		assert.ErrorIs(t, failed.Err, domain.ErrServer)
		assert.False(t, s.State().IsLoading)
	})
}

func TestSubmitSeesFieldsSentJustBefore(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		want := domain.User{Email: "hoc@example.com", FirstName: "Petrus", LastName: "Hoc", Gender: domain.GenderFemale}
		for n := range 100 {
			uc := &fakeUseCase{}
			s := newTestStore(uc)
			for _, i := range fill(want.Email, want.FirstName, want.LastName) {
				s.ProcessIntent(i)
			}
			s.ProcessIntent(GenderChanged{Gender: domain.GenderFemale})
			s.ProcessIntent(Submit{})
			synctest.Wait()

			require.Equal(t, []domain.User{want}, uc.addedUsers(), "store %d", n)
			assert.Empty(t, s.State().VisibleErrors(), "store %d", n)
			s.Close()
		}
	})
}
