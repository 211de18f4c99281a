package eventbus

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvi-users/internal/domain"
)

func newTestBus() *Bus {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newEvent(t domain.EventType) domain.Event {
	return domain.Event{Type: t, Timestamp: time.Now()}
}

func TestPublishSubscribe(t *testing.T) {
	bus := newTestBus()

	var got atomic.Int32
	bus.Subscribe(domain.EventUserAdded, func(_ context.Context, e domain.Event) {
		if e.Type == domain.EventUserAdded {
			got.Add(1)
		}
	})

	bus.Publish(context.Background(), newEvent(domain.EventUserAdded))
	bus.Publish(context.Background(), newEvent(domain.EventUserRemoved))
	bus.Close()

	assert.Equal(t, int32(1), got.Load())
}

func TestSubscribeAll(t *testing.T) {
	bus := newTestBus()

	var got atomic.Int32
	bus.SubscribeAll(func(_ context.Context, _ domain.Event) {
		got.Add(1)
	})

	bus.Publish(context.Background(), newEvent(domain.EventUserAdded))
	bus.Publish(context.Background(), newEvent(domain.EventUsersRefreshed))
	bus.Close()

	assert.Equal(t, int32(2), got.Load())
}

func TestDeliveryOrderPerSubscriber(t *testing.T) {
	bus := newTestBus()

	var (
		mu    sync.Mutex
		order []domain.EventType
	)
	bus.SubscribeAll(func(_ context.Context, e domain.Event) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		order = append(order, e.Type)
		mu.Unlock()
	})

	want := []domain.EventType{
		domain.EventUsersRefreshed,
		domain.EventUserAdded,
		domain.EventUserRemoved,
		domain.EventOperationFailed,
	}
	for _, et := range want {
		bus.Publish(context.Background(), newEvent(et))
	}
	bus.Close()

	assert.Equal(t, want, order)
}

func TestSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	bus := newTestBus()
	release := make(chan struct{})
	fast := make(chan struct{}, 1)

	bus.SubscribeAll(func(_ context.Context, _ domain.Event) { <-release })
	bus.SubscribeAll(func(_ context.Context, _ domain.Event) { fast <- struct{}{} })

	bus.Publish(context.Background(), newEvent(domain.EventUserAdded))

	select {
	case <-fast:
	case <-time.After(time.Second):
		t.Fatal("fast subscriber was blocked by slow one")
	}
	close(release)
	bus.Close()
}

func TestUnsubscribe(t *testing.T) {
	bus := newTestBus()

	var got atomic.Int32
	unsub := bus.Subscribe(domain.EventUserAdded, func(_ context.Context, _ domain.Event) {
		got.Add(1)
	})
	unsubAll := bus.SubscribeAll(func(_ context.Context, _ domain.Event) {
		got.Add(1)
	})

	unsub()
	unsubAll()
	unsub()
	bus.Publish(context.Background(), newEvent(domain.EventUserAdded))
	bus.Close()

	assert.Equal(t, int32(0), got.Load())
}

func TestConcurrentPublish(t *testing.T) {
	bus := newTestBus()

	var got atomic.Int32
	bus.Subscribe(domain.EventUserAdded, func(_ context.Context, _ domain.Event) {
		got.Add(1)
	})

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), newEvent(domain.EventUserAdded))
		}()
	}
	wg.Wait()
	bus.Close()

	assert.Equal(t, int32(100), got.Load())
}

func TestPanicRecovery(t *testing.T) {
	bus := newTestBus()

	var got atomic.Int32
	bus.Subscribe(domain.EventUserAdded, func(_ context.Context, _ domain.Event) {
		panic("boom")
	})
	bus.Subscribe(domain.EventUserAdded, func(_ context.Context, _ domain.Event) {
		got.Add(1)
	})

	bus.Publish(context.Background(), newEvent(domain.EventUserAdded))
	bus.Publish(context.Background(), newEvent(domain.EventUserAdded))
	bus.Close()

	assert.Equal(t, int32(2), got.Load())
}

func TestHandlerContextSurvivesCancel(t *testing.T) {
	bus := newTestBus()
	type key struct{}

	done := make(chan error, 1)
	bus.SubscribeAll(func(ctx context.Context, _ domain.Event) {
		if ctx.Value(key{}) != "v" {
			done <- assert.AnError
			return
		}
		done <- ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "v"))
	cancel()
	bus.Publish(ctx, newEvent(domain.EventUserAdded))
	bus.Close()

	require.NoError(t, <-done)
}

func TestPublishAfterClose(t *testing.T) {
	bus := newTestBus()

	var got atomic.Int32
	bus.SubscribeAll(func(_ context.Context, _ domain.Event) { got.Add(1) })
	bus.Close()
	bus.Close()

	bus.Publish(context.Background(), newEvent(domain.EventUserAdded))
	unsub := bus.Subscribe(domain.EventUserAdded, func(_ context.Context, _ domain.Event) { got.Add(1) })
	unsub()

	assert.Equal(t, int32(0), got.Load())
}
