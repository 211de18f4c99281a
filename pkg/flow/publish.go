package flow

import (
	"context"
	"errors"
	"sync"
)

// Shared fans one upstream collection out to any number of subscribers. It is
// handed to the selector of Publish.
type Shared[T any] struct {
	mu   sync.Mutex
	subs []*Buffer[T]
	done bool
}

// Subscribe registers a subscriber right away and returns the flow that drains
// it. Registration happens on this call, not on collection, so every
// subscription made while building the selector's flow sees every upstream
// value. The returned flow may be collected once; when its collection ends the
// subscription is dropped.
func (s *Shared[T]) Subscribe() Flow[T] {
	b := NewBuffer[T]()
	s.mu.Lock()
	if s.done {
		b.Close()
	} else {
		s.subs = append(s.subs, b)
	}
	s.mu.Unlock()
	return func(ctx context.Context, emit func(T) error) error {
		defer b.Discard()
		return b.Flow()(ctx, emit)
	}
}

func (s *Shared[T]) send(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.subs {
		b.Send(v)
	}
}

func (s *Shared[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	for _, b := range s.subs {
		b.Close()
	}
	s.subs = nil
}

// Publish collects source once and lets selector derive any number of
// branches from it through Shared.Subscribe. The result is the flow returned by
// selector. Each subscriber buffers independently, so a slow branch never
// stalls the source or its siblings.
func Publish[T, R any](source Flow[T], selector func(*Shared[T]) Flow[R]) Flow[R] {
	return func(ctx context.Context, emit func(R) error) error {
		shared := &Shared[T]{}
		out := selector(shared)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		sourceDone := make(chan error, 1)
		go func() {
			err := source(ctx, func(v T) error {
				shared.send(v)
				return nil
			})
			shared.close()
			sourceDone <- err
		}()

		err := out(ctx, emit)
		cancel()
		sourceErr := <-sourceDone
		if err == nil && sourceErr != nil && !errors.Is(sourceErr, context.Canceled) {
			return sourceErr
		}
		return err
	}
}
