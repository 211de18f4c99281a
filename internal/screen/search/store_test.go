package search

import (
	"context"
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
	mu      sync.Mutex
	delay   time.Duration
	results map[string][]domain.User
	errs    []error // consumed one per call before results are used
	queries []string
}

func (f *fakeUseCase) Search(ctx context.Context, q string) ([]domain.User, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	users := f.results[q]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return users, err
}

func (f *fakeUseCase) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

var alice = domain.User{ID: "1", Email: "alice@example.com", FirstName: "Alice", LastName: "Abc"}

func newTestStore(uc UseCase) *Store {
	return NewStore(context.Background(), uc, Options{
		Debounce: 300 * time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func typeQueries(s *Store, gap time.Duration, queries ...string) {
	for i, q := range queries {
		if i > 0 {
			time.Sleep(gap)
		}
		s.ProcessIntent(Search{Query: q})
	}
}

func TestDebounceSubmitsLastQueryOnly(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		uc := &fakeUseCase{delay: 50 * time.Millisecond, results: map[string][]domain.User{"abc": {alice}}}
		s := newTestStore(uc)
		defer s.Close()

		typeQueries(s, 20*time.Millisecond, "a", "ab", "abc")
		synctest.Wait()
		assert.Equal(t, "abc", s.State().OriginalQuery)
		assert.Empty(t, uc.calls())

		time.Sleep(time.Second)
		assert.Equal(t, []string{"abc"}, uc.calls())
		assert.Equal(t, ViewState{Users: []domain.User{alice}, OriginalQuery: "abc", SubmittedQuery: "abc"}, s.State())
	})
}

func TestBlankQueryClearsImmediately(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		uc := &fakeUseCase{results: map[string][]domain.User{"abc": {alice}}}
		s := newTestStore(uc)
		defer s.Close()

		s.ProcessIntent(Search{Query: "abc"})
		time.Sleep(400 * time.Millisecond)
		require.Len(t, s.State().Users, 1)

		s.ProcessIntent(Search{Query: "   "})
		synctest.Wait()
		assert.Equal(t, ViewState{OriginalQuery: "   "}, s.State())

		time.Sleep(time.Second)
		assert.Equal(t, []string{"abc"}, uc.calls())
	})
}

func TestBlankQueryCancelsPendingSearch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		uc := &fakeUseCase{}
		s := newTestStore(uc)
		defer s.Close()

		typeQueries(s, 100*time.Millisecond, "abc", "")
		time.Sleep(time.Second)
		assert.Empty(t, uc.calls())
	})
}

func TestBlankQueryDiscardsSearchInFlight(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		uc := &fakeUseCase{delay: time.Second, results: map[string][]domain.User{"abc": {alice}}}
		s := newTestStore(uc)
		defer s.Close()

		s.ProcessIntent(Search{Query: "abc"})
		time.Sleep(400 * time.Millisecond)
		require.True(t, s.State().IsLoading)

		s.ProcessIntent(Search{Query: "   "})
		time.Sleep(2 * time.Second)

		assert.Equal(t, ViewState{OriginalQuery: "   "}, s.State())
		assert.Equal(t, []string{"abc"}, uc.calls())

		// The abandoned search is not in the way of the next one.
		s.ProcessIntent(Search{Query: "abc"})
		time.Sleep(2 * time.Second)
		assert.Equal(t, []string{"abc", "abc"}, uc.calls())
		assert.Equal(t, []domain.User{alice}, s.State().Users)
	})
}

func TestStaleResultAfterClearIsIgnored(t *testing.T) {
	cleared := Cleared{}.Reduce(QueryChanged{Query: " "}.Reduce(ViewState{Users: []domain.User{alice}, SubmittedQuery: "abc"}))
	assert.Equal(t, cleared, Success{Users: []domain.User{alice}, Query: "abc"}.Reduce(cleared))
	assert.Equal(t, cleared, Failure{Err: domain.NewNetworkError(nil), Query: "abc"}.Reduce(cleared))
	assert.Equal(t, cleared, Loading{}.Reduce(cleared))
}

func TestUnchangedQueryIsNotSearchedAgain(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		uc := &fakeUseCase{}
		s := newTestStore(uc)
		defer s.Close()

		s.ProcessIntent(Search{Query: "abc"})
		time.Sleep(400 * time.Millisecond)
		typeQueries(s, 50*time.Millisecond, "abcd", "abc ")
		time.Sleep(time.Second)

		assert.Equal(t, []string{"abc"}, uc.calls())
	})
}

func TestQueryTypedWhileSearchingIsDropped(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		uc := &fakeUseCase{delay: 500 * time.Millisecond}
		s := newTestStore(uc)
		defer s.Close()

		s.ProcessIntent(Search{Query: "abc"})
		time.Sleep(400 * time.Millisecond)
		s.ProcessIntent(Search{Query: "xyz"})
		time.Sleep(2 * time.Second)

		assert.Equal(t, []string{"abc"}, uc.calls())
		assert.Equal(t, "xyz", s.State().OriginalQuery)
		assert.Equal(t, "abc", s.State().SubmittedQuery)
	})
}

func TestFailureThenRetry(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		netErr := domain.NewNetworkError(nil)
		uc := &fakeUseCase{
			errs:    []error{netErr},
			results: map[string][]domain.User{"ali": {alice}},
		}
		s := newTestStore(uc)
		defer s.Close()

		s.ProcessIntent(Retry{})
		s.ProcessIntent(Search{Query: "ali"})
		time.Sleep(400 * time.Millisecond)

		state := s.State()
		assert.Same(t, netErr, state.Error)
		assert.Equal(t, "ali", state.SubmittedQuery)

		ev, err := s.NextEvent(context.Background())
		require.NoError(t, err)
		assert.Equal(t, SearchFailed{Query: "ali", Err: netErr}, ev)

		s.ProcessIntent(Retry{})
		synctest.Wait()
		assert.Equal(t, ViewState{Users: []domain.User{alice}, OriginalQuery: "ali", SubmittedQuery: "ali"}, s.State())
		assert.Equal(t, []string{"ali", "ali"}, uc.calls())

		s.ProcessIntent(Retry{})
		synctest.Wait()
		assert.Len(t, uc.calls(), 2, "retry without an error must be ignored")
	})
}

func TestCloseCancelsInFlightSearch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		uc := &fakeUseCase{delay: time.Second, results: map[string][]domain.User{"abc": {alice}}}
		s := newTestStore(uc)

		s.ProcessIntent(Search{Query: "abc"})
		time.Sleep(500 * time.Millisecond)
		require.True(t, s.State().IsLoading)
		s.Close()
		time.Sleep(2 * time.Second)

		assert.True(t, s.State().IsLoading)
		assert.Empty(t, s.State().Users)
	})
}
