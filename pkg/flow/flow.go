// Package flow implements cold, push-based asynchronous streams with
// context-driven cancellation, plus the operators used to assemble
// intent-to-state pipelines.
//
// A Flow does nothing until it is collected. Collecting runs the producer on the
// caller's goroutine (operators may fan out onto more goroutines) and delivers
// every value to emit. A Flow never calls emit concurrently. Returning nil means
// the stream completed; returning an error means it failed. Cancelling ctx stops
// the producer and everything it started.
package flow

import (
	"context"
	"errors"
)

// ErrNoElements is returned by First when the flow completes without a value.
var ErrNoElements = errors.New("flow: no elements")

// Flow is a cold asynchronous stream of T.
type Flow[T any] func(ctx context.Context, emit func(T) error) error

// Collect runs f, handing each value to fn.
func (f Flow[T]) Collect(ctx context.Context, fn func(T) error) error {
	return f(ctx, fn)
}

// stopSignal is returned from an emit callback to end collection early without
// reporting a failure. Each operator allocates its own so nested operators
// cannot confuse each other's signals.
type stopSignal struct{}

func (*stopSignal) Error() string { return "flow: collection stopped" }

// Of emits the given values and completes.
func Of[T any](values ...T) Flow[T] {
	return FromSlice(values)
}

// FromSlice emits the elements of values in order and completes.
func FromSlice[T any](values []T) Flow[T] {
	return func(ctx context.Context, emit func(T) error) error {
		for _, v := range values {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := emit(v); err != nil {
				return err
			}
		}
		return nil
	}
}

// Empty completes immediately.
func Empty[T any]() Flow[T] {
	return func(context.Context, func(T) error) error { return nil }
}

// Fail terminates immediately with err.
func Fail[T any](err error) Flow[T] {
	return func(context.Context, func(T) error) error { return err }
}

// FromFunc wraps a single asynchronous call. The call runs on collection; its
// value is emitted, or its error terminates the flow.
func FromFunc[T any](fn func(context.Context) (T, error)) Flow[T] {
	return func(ctx context.Context, emit func(T) error) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		return emit(v)
	}
}

// FromChan emits values received from ch until it is closed.
func FromChan[T any](ch <-chan T) Flow[T] {
	return func(ctx context.Context, emit func(T) error) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case v, ok := <-ch:
				if !ok {
					return nil
				}
				if err := emit(v); err != nil {
					return err
				}
			}
		}
	}
}

// ToSlice collects every value of f.
func ToSlice[T any](ctx context.Context, f Flow[T]) ([]T, error) {
	var out []T
	err := f(ctx, func(v T) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

// First returns the first value of f and stops collecting.
func First[T any](ctx context.Context, f Flow[T]) (T, error) {
	var (
		first T
		found bool
	)
	stop := &stopSignal{}
	err := f(ctx, func(v T) error {
		first, found = v, true
		return stop
	})
	if err != nil && !errors.Is(err, stop) {
		var zero T
		return zero, err
	}
	if !found {
		return first, ErrNoElements
	}
	return first, nil
}
