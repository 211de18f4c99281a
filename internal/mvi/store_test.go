package mvi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvi-users/pkg/flow"
)

type add int

func (a add) Reduce(s int) int { return s + int(a) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func counterConfig() Config[int, int, string, add] {
	return Config[int, int, string, add]{
		Name:    "counter",
		Initial: 0,
		Transform: func(intents flow.Flow[int], _ func() int) flow.Flow[add] {
			return flow.Map(intents, func(i int) add { return add(i) })
		},
		ToEvent: func(c add) (string, bool) {
			if c < 0 {
				return "negative", true
			}
			return "", false
		},
		Logger: testLogger(),
	}
}

// watch collects every state seen by one watcher until the store stops.
func watch(t *testing.T, s *Store[int, int, string]) func() []int {
	t.Helper()
	var (
		mu  sync.Mutex
		got []int
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.WatchState()(context.Background(), func(v int) error {
			mu.Lock()
			got = append(got, v)
			mu.Unlock()
			return nil
		})
	}()
	return func() []int {
		<-done
		mu.Lock()
		defer mu.Unlock()
		return got
	}
}

func TestStore_FoldsIntentsInOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := New(context.Background(), counterConfig())
		defer s.Close()

		s.ProcessIntent(1)
		s.ProcessIntent(2)
		s.ProcessIntent(3)
		synctest.Wait()

		assert.Equal(t, 6, s.State())
		assert.Equal(t, "counter", s.Name())
	})
}

func TestStore_WatchStateReplaysAndSkipsEqualStates(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := New(context.Background(), counterConfig())
		s.ProcessIntent(5)
		synctest.Wait()

		result := watch(t, s)
		synctest.Wait()
		s.ProcessIntent(0)
		s.ProcessIntent(2)
		s.ProcessIntent(-1)
		synctest.Wait()
		s.Close()

		assert.Equal(t, []int{5, 7, 6}, result())
	})
}

func TestStore_EventIsSentBeforeStateUpdate(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var store *Store[int, int, string]
		var seen []int
		cfg := counterConfig()
		cfg.ToEvent = func(c add) (string, bool) {
			seen = append(seen, store.State())
			return "changed", true
		}
		store = New(context.Background(), cfg)
		defer store.Close()

		store.ProcessIntent(1)
		store.ProcessIntent(1)
		synctest.Wait()

		assert.Equal(t, []int{0, 1}, seen)
		ev, err := store.NextEvent(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "changed", ev)
	})
}

func TestStore_EventsAreDeliveredOnce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := New(context.Background(), counterConfig())
		s.ProcessIntent(-1)
		s.ProcessIntent(3)
		s.ProcessIntent(-2)
		synctest.Wait()
		s.Close()

		events, err := flow.ToSlice(context.Background(), s.Events())
		require.NoError(t, err)
		assert.Equal(t, []string{"negative", "negative"}, events)

		_, err = s.NextEvent(context.Background())
		assert.ErrorIs(t, err, flow.ErrClosed)
	})
}

func TestStore_CloseStopsProcessing(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := New(context.Background(), counterConfig())
		s.ProcessIntent(2)
		synctest.Wait()
		s.Close()
		s.Close()

		s.ProcessIntent(40)
		synctest.Wait()

		assert.Equal(t, 2, s.State())
		assert.NoError(t, s.Err())
		select {
		case <-s.Done():
		default:
			t.Fatal("Done should be closed after Close")
		}
	})
}

func TestStore_CancelDropsInFlightChanges(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		cfg := counterConfig()
		cfg.Transform = func(intents flow.Flow[int], _ func() int) flow.Flow[add] {
			return flow.FlatMapMerge(intents, func(i int) flow.Flow[add] {
				return flow.FromFunc(func(ctx context.Context) (add, error) {
					select {
					case <-time.After(time.Second):
						return add(i), nil
					case <-ctx.Done():
						return 0, ctx.Err()
					}
				})
			})
		}
		ctx, cancel := context.WithCancel(context.Background())
		s := New(ctx, cfg)

		s.ProcessIntent(1)
		time.Sleep(500 * time.Millisecond)
		cancel()
		<-s.Done()
		time.Sleep(time.Second)

		assert.Equal(t, 0, s.State())
		assert.NoError(t, s.Err())
	})
}

func TestStore_GuardReadsLiveState(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		cfg := counterConfig()
		cfg.Transform = func(intents flow.Flow[int], state func() int) flow.Flow[add] {
			// Only accept increments while the counter is below 3.
			return flow.Map(flow.Filter(intents, func(int) bool { return state() < 3 }),
				func(i int) add { return add(i) })
		}
		s := New(context.Background(), cfg)
		defer s.Close()

		for range 5 {
			s.ProcessIntent(1)
			synctest.Wait()
		}
		assert.Equal(t, 3, s.State())
	})
}

func TestStore_PipelineFailureStopsStore(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		boom := errors.New("setup failed")
		cfg := counterConfig()
		cfg.Transform = func(intents flow.Flow[int], _ func() int) flow.Flow[add] {
			return flow.Concat(flow.Map(flow.Take(intents, 1), func(i int) add { return add(i) }), flow.Fail[add](boom))
		}
		s := New(context.Background(), cfg)
		s.ProcessIntent(4)
		<-s.Done()

		assert.ErrorIs(t, s.Err(), boom)
		assert.Equal(t, 4, s.State())

		states, err := flow.ToSlice(context.Background(), s.WatchState())
		require.NoError(t, err)
		assert.Equal(t, []int{4}, states)
		s.Close()
	})
}
