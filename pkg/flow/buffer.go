package flow

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Buffer.Receive once the buffer is closed and drained.
var ErrClosed = errors.New("flow: buffer closed")

// Buffer is an unbounded FIFO queue with many producers and a single consumer.
// Send never blocks, so a slow consumer cannot stall producers.
type Buffer[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	signal chan struct{}
}

// NewBuffer creates an empty, open buffer.
func NewBuffer[T any]() *Buffer[T] {
	return &Buffer[T]{signal: make(chan struct{}, 1)}
}

// Send enqueues v. It reports false if the buffer was already closed, in which
// case v is dropped.
func (b *Buffer[T]) Send(v T) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	b.items = append(b.items, v)
	b.mu.Unlock()
	b.wake()
	return true
}

// Close stops accepting values. Values already queued can still be received.
func (b *Buffer[T]) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wake()
}

// Discard closes the buffer and drops everything queued.
func (b *Buffer[T]) Discard() {
	b.mu.Lock()
	b.closed = true
	b.items = nil
	b.mu.Unlock()
	b.wake()
}

// Len returns the number of queued values.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *Buffer[T]) wake() {
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// Receive blocks until a value is available, the buffer is closed and drained
// (ErrClosed), or ctx is done.
func (b *Buffer[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	for {
		b.mu.Lock()
		if len(b.items) > 0 {
			v := b.items[0]
			b.items[0] = zero
			b.items = b.items[1:]
			b.mu.Unlock()
			return v, nil
		}
		closed := b.closed
		b.mu.Unlock()
		if closed {
			return zero, ErrClosed
		}

		select {
		case <-b.signal:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Flow drains the buffer as a stream that completes when the buffer is closed.
// Only one collector may drain a buffer at a time.
func (b *Buffer[T]) Flow() Flow[T] {
	return func(ctx context.Context, emit func(T) error) error {
		for {
			v, err := b.Receive(ctx)
			if errors.Is(err, ErrClosed) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := emit(v); err != nil {
				return err
			}
		}
	}
}
