// Package mvi runs the model-view-intent loop shared by every screen: intents
// are buffered, turned into partial state changes by a screen-specific
// pipeline, and folded into a replay-latest view state. Changes may also raise
// one-shot events for the view.
package mvi

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"

	"mvi-users/pkg/flow"
)

// Change is a partial state change that knows how to apply itself.
type Change[S any] interface {
	Reduce(S) S
}

// Config describes one screen.
type Config[I, S, E any, C Change[S]] struct {
	// Name identifies the store in logs.
	Name string
	// Initial is the state before any change has been applied.
	Initial S
	// Transform maps the intent stream to changes. The state getter always
	// returns the live state, so guards see the latest fold.
	Transform func(intents flow.Flow[I], state func() S) flow.Flow[C]
	// ToEvent optionally maps a change to a one-shot event.
	ToEvent func(C) (E, bool)
	// Equal decides whether a reduced state is a new one. Defaults to
	// reflect.DeepEqual.
	Equal  func(a, b S) bool
	Logger *slog.Logger
}

// Store owns the goroutines of one screen instance. Close releases them.
type Store[I, S, E any] struct {
	name    string
	logger  *slog.Logger
	intents *flow.Buffer[I]
	events  *flow.Buffer[E]
	state   *stateHolder[S]

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

// New starts a store. It stops when ctx is cancelled or Close is called.
func New[I, S, E any, C Change[S]](ctx context.Context, cfg Config[I, S, E, C]) *Store[I, S, E] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	equal := cfg.Equal
	if equal == nil {
		equal = func(a, b S) bool { return reflect.DeepEqual(a, b) }
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Store[I, S, E]{
		name:    cfg.Name,
		logger:  logger.With("store", cfg.Name),
		intents: flow.NewBuffer[I](),
		events:  flow.NewBuffer[E](),
		state:   newStateHolder(cfg.Initial, equal),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go run(ctx, s, cfg)
	return s
}

// run folds the changes of cfg.Transform into s until the pipeline ends.
func run[I, S, E any, C Change[S]](ctx context.Context, s *Store[I, S, E], cfg Config[I, S, E, C]) {
	defer close(s.done)
	defer s.events.Close()
	defer s.state.close()
	defer s.intents.Discard()

	s.logger.Debug("store started")
	changes := cfg.Transform(s.intents.Flow(), s.state.value)
	err := changes(ctx, func(c C) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cfg.ToEvent != nil {
			if ev, ok := cfg.ToEvent(c); ok {
				s.events.Send(ev)
			}
		}
		s.state.update(c.Reduce)
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("store terminated", "error", err)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return
	}
	s.logger.Debug("store stopped")
}

// ProcessIntent queues an intent. It never blocks; intents sent after the
// store stopped are dropped.
func (s *Store[I, S, E]) ProcessIntent(intent I) {
	if !s.intents.Send(intent) {
		s.logger.Debug("intent dropped after stop", "intent", reflect.TypeOf(intent))
	}
}

// Name returns the name the store was configured with.
func (s *Store[I, S, E]) Name() string { return s.name }

// State returns the current view state.
func (s *Store[I, S, E]) State() S {
	return s.state.value()
}

// WatchState replays the current state, then every later update in order.
// The flow completes once the store stops.
func (s *Store[I, S, E]) WatchState() flow.Flow[S] {
	return s.state.watch()
}

// Events drains the event queue. Each event is delivered to one receiver
// only; only one collector should drain it at a time.
func (s *Store[I, S, E]) Events() flow.Flow[E] {
	return s.events.Flow()
}

// NextEvent waits for the next event. It returns flow.ErrClosed once the
// store stopped and all queued events were taken.
func (s *Store[I, S, E]) NextEvent(ctx context.Context) (E, error) {
	return s.events.Receive(ctx)
}

// Done is closed when the store has stopped.
func (s *Store[I, S, E]) Done() <-chan struct{} {
	return s.done
}

// Err returns the failure that stopped the store, if any. It is nil while the
// store is running and after a regular Close.
func (s *Store[I, S, E]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops intent processing, cancels every in-flight operation and waits
// for the store goroutine to exit. Queued events stay readable.
func (s *Store[I, S, E]) Close() {
	s.closeOnce.Do(func() {
		s.intents.Close()
		s.cancel()
	})
	<-s.done
}
