package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"mvi-users/internal/domain"
	"mvi-users/pkg/flow"
)

type delivery struct {
	ctx   context.Context
	event domain.Event
}

type subscription struct {
	id      uint64
	handler domain.EventHandler
	queue   *flow.Buffer[delivery]
}

// Bus is an in-process, goroutine-safe event bus. Every subscriber owns a
// queue drained by a single goroutine, so it sees events in publish order
// and a slow handler never blocks Publish or other subscribers.
type Bus struct {
	mu      sync.RWMutex
	typed   map[domain.EventType][]*subscription
	allSubs []*subscription
	nextID  atomic.Uint64
	logger  *slog.Logger
	wg      sync.WaitGroup
	closed  atomic.Bool
}

var _ domain.EventBus = (*Bus)(nil)

// New creates an event bus.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		typed:  make(map[domain.EventType][]*subscription),
		logger: logger,
	}
}

// Publish queues event for matching typed subscribers and all-event
// subscribers. Events published after Close are dropped. Handlers run detached from ctx cancellation but keep its values.
func (b *Bus) Publish(ctx context.Context, event domain.Event) {
	if b.closed.Load() {
		return
	}
	d := delivery{ctx: context.WithoutCancel(ctx), event: event}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.typed[event.Type] {
		sub.queue.Send(d)
	}
	for _, sub := range b.allSubs {
		sub.queue.Send(d)
	}
}

func (b *Bus) start(handler domain.EventHandler) *subscription {
	sub := &subscription{
		id:      b.nextID.Add(1),
		handler: handler,
		queue:   flow.NewBuffer[delivery](),
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			d, err := sub.queue.Receive(context.Background())
			if err != nil {
				return
			}
			b.dispatch(d, sub)
		}
	}()
	return sub
}

func (b *Bus) dispatch(d delivery, sub *subscription) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event", string(d.event.Type),
				"subscriber", sub.id,
				"panic", r,
			)
		}
	}()
	sub.handler(d.ctx, d.event)
}

// Subscribe registers a handler for a specific event type.
// Returns an unsubscribe function.
func (b *Bus) Subscribe(eventType domain.EventType, handler domain.EventHandler) func() {
	b.mu.Lock()
	if b.closed.Load() {
		b.mu.Unlock()
		return func() {}
	}
	sub := b.start(handler)
	b.typed[eventType] = append(b.typed[eventType], sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.typed[eventType] = remove(b.typed[eventType], sub.id)
			b.mu.Unlock()
			sub.queue.Discard()
		})
	}
}

// SubscribeAll registers a handler that receives every event.
// Returns an unsubscribe function.
func (b *Bus) SubscribeAll(handler domain.EventHandler) func() {
	b.mu.Lock()
	if b.closed.Load() {
		b.mu.Unlock()
		return func() {}
	}
	sub := b.start(handler)
	b.allSubs = append(b.allSubs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.allSubs = remove(b.allSubs, sub.id)
			b.mu.Unlock()
			sub.queue.Discard()
		})
	}
}

func remove(subs []*subscription, id uint64) []*subscription {
	for i, s := range subs {
		if s.id == id {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}

// Close prevents new publishes and waits for every queued event to be
// handled. Close is idempotent and safe to call multiple times.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed.Swap(true) {
		b.mu.Unlock()
		return
	}
	for _, subs := range b.typed {
		for _, sub := range subs {
			sub.queue.Close()
		}
	}
	for _, sub := range b.allSubs {
		sub.queue.Close()
	}
	b.mu.Unlock()
	b.wg.Wait()
}
