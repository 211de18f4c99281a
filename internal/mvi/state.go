package mvi

import (
	"context"
	"slices"
	"sync"

	"mvi-users/pkg/flow"
)

// stateHolder is a replay-latest cell. Every watcher gets its own unbounded
// queue, so updates are never skipped or reordered for any one watcher.
type stateHolder[S any] struct {
	mu      sync.Mutex
	current S
	equal   func(a, b S) bool
	subs    []*flow.Buffer[S]
	closed  bool
}

func newStateHolder[S any](initial S, equal func(a, b S) bool) *stateHolder[S] {
	return &stateHolder[S]{current: initial, equal: equal}
}

func (h *stateHolder[S]) value() S {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// update replaces the current value with fn(current). It reports false when
// the result equals the current value and nothing was published.
func (h *stateHolder[S]) update(fn func(S) S) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	next := fn(h.current)
	if h.equal(h.current, next) {
		return false
	}
	h.current = next
	for _, b := range h.subs {
		b.Send(next)
	}
	return true
}

func (h *stateHolder[S]) watch() flow.Flow[S] {
	return func(ctx context.Context, emit func(S) error) error {
		b := flow.NewBuffer[S]()
		h.mu.Lock()
		b.Send(h.current)
		if h.closed {
			b.Close()
		} else {
			h.subs = append(h.subs, b)
		}
		h.mu.Unlock()

		defer h.unsubscribe(b)
		return b.Flow()(ctx, emit)
	}
}

func (h *stateHolder[S]) unsubscribe(b *flow.Buffer[S]) {
	h.mu.Lock()
	h.subs = slices.DeleteFunc(h.subs, func(s *flow.Buffer[S]) bool { return s == b })
	h.mu.Unlock()
	b.Discard()
}

func (h *stateHolder[S]) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, b := range h.subs {
		b.Close()
	}
	h.subs = nil
}
