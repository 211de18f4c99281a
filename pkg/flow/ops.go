package flow

import (
	"context"
	"errors"
)

// Map transforms each value.
func Map[T, R any](f Flow[T], fn func(T) R) Flow[R] {
	return func(ctx context.Context, emit func(R) error) error {
		return f(ctx, func(v T) error { return emit(fn(v)) })
	}
}

// FilterMap transforms each value and drops those for which fn reports false.
func FilterMap[T, R any](f Flow[T], fn func(T) (R, bool)) Flow[R] {
	return func(ctx context.Context, emit func(R) error) error {
		return f(ctx, func(v T) error {
			if r, ok := fn(v); ok {
				return emit(r)
			}
			return nil
		})
	}
}

// Filter forwards values matching pred. pred is evaluated when the value
// arrives, so it may consult live state.
func Filter[T any](f Flow[T], pred func(T) bool) Flow[T] {
	return func(ctx context.Context, emit func(T) error) error {
		return f(ctx, func(v T) error {
			if pred(v) {
				return emit(v)
			}
			return nil
		})
	}
}

// OfType forwards only the values whose dynamic type is U.
func OfType[T, U any](f Flow[T]) Flow[U] {
	return func(ctx context.Context, emit func(U) error) error {
		return f(ctx, func(v T) error {
			if u, ok := any(v).(U); ok {
				return emit(u)
			}
			return nil
		})
	}
}

// OnEach runs action for every value before forwarding it.
func OnEach[T any](f Flow[T], action func(T)) Flow[T] {
	return func(ctx context.Context, emit func(T) error) error {
		return f(ctx, func(v T) error {
			action(v)
			return emit(v)
		})
	}
}

// Take forwards the first n values and then completes, cancelling upstream.
func Take[T any](f Flow[T], n int) Flow[T] {
	return func(ctx context.Context, emit func(T) error) error {
		if n <= 0 {
			return nil
		}
		stop := &stopSignal{}
		count := 0
		err := f(ctx, func(v T) error {
			if count >= n {
				return stop
			}
			if err := emit(v); err != nil {
				return err
			}
			count++
			if count >= n {
				return stop
			}
			return nil
		})
		if errors.Is(err, stop) {
			return nil
		}
		return err
	}
}

// Scan emits initial and then every intermediate accumulation of op.
func Scan[T, R any](f Flow[T], initial R, op func(acc R, v T) R) Flow[R] {
	return func(ctx context.Context, emit func(R) error) error {
		acc := initial
		if err := emit(acc); err != nil {
			return err
		}
		return f(ctx, func(v T) error {
			acc = op(acc, v)
			return emit(acc)
		})
	}
}

// DistinctUntilChanged drops values equal to the previously forwarded one.
func DistinctUntilChanged[T comparable](f Flow[T]) Flow[T] {
	return DistinctUntilChangedFunc(f, func(a, b T) bool { return a == b })
}

// DistinctUntilChangedFunc is DistinctUntilChanged with a custom equality.
func DistinctUntilChangedFunc[T any](f Flow[T], equal func(a, b T) bool) Flow[T] {
	return func(ctx context.Context, emit func(T) error) error {
		var (
			last T
			seen bool
		)
		return f(ctx, func(v T) error {
			if seen && equal(last, v) {
				return nil
			}
			last, seen = v, true
			return emit(v)
		})
	}
}

// Concat collects flows one after another.
func Concat[T any](flows ...Flow[T]) Flow[T] {
	return func(ctx context.Context, emit func(T) error) error {
		for _, f := range flows {
			if err := f(ctx, emit); err != nil {
				return err
			}
		}
		return nil
	}
}

// StartWith emits values before the values of f.
func StartWith[T any](f Flow[T], values ...T) Flow[T] {
	return Concat(FromSlice(values), f)
}

// FlatMapConcat maps each value to a flow and collects it to completion before
// taking the next value.
func FlatMapConcat[T, R any](f Flow[T], fn func(T) Flow[R]) Flow[R] {
	return func(ctx context.Context, emit func(R) error) error {
		return f(ctx, func(v T) error {
			return fn(v)(ctx, emit)
		})
	}
}
