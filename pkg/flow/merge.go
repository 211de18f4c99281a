package flow

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// serialized guards emit so concurrent producers deliver one value at a time
// and nothing is delivered once ctx is done.
func serialized[T any](ctx context.Context, emit func(T) error) func(T) error {
	var mu sync.Mutex
	return func(v T) error {
		mu.Lock()
		defer mu.Unlock()
		if err := ctx.Err(); err != nil {
			return err
		}
		return emit(v)
	}
}

// Merge collects all flows concurrently and interleaves their values as they
// arrive. Order is preserved within each source, not across sources. The first
// failure cancels the remaining sources.
func Merge[T any](flows ...Flow[T]) Flow[T] {
	return func(ctx context.Context, emit func(T) error) error {
		g, gctx := errgroup.WithContext(ctx)
		out := serialized(gctx, emit)
		for _, f := range flows {
			g.Go(func() error { return f(gctx, out) })
		}
		return g.Wait()
	}
}

// FlatMapMerge maps every value to a flow and collects all of them
// concurrently. A failing inner flow cancels the whole computation.
func FlatMapMerge[T, R any](f Flow[T], fn func(T) Flow[R]) Flow[R] {
	return func(ctx context.Context, emit func(R) error) error {
		g, gctx := errgroup.WithContext(ctx)
		out := serialized(gctx, emit)
		g.Go(func() error {
			return f(gctx, func(v T) error {
				inner := fn(v)
				g.Go(func() error { return inner(gctx, out) })
				return nil
			})
		})
		return g.Wait()
	}
}

// FlatMapFirst maps a value to a flow only while no previously mapped flow is
// still active. Values arriving while busy are dropped, not queued. A failing
// inner flow cancels the whole computation.
func FlatMapFirst[T, R any](f Flow[T], fn func(T) Flow[R]) Flow[R] {
	return func(ctx context.Context, emit func(R) error) error {
		g, gctx := errgroup.WithContext(ctx)
		out := serialized(gctx, emit)
		var busy atomic.Bool
		g.Go(func() error {
			return f(gctx, func(v T) error {
				if !busy.CompareAndSwap(false, true) {
					return nil
				}
				inner := fn(v)
				g.Go(func() error {
					defer busy.Store(false)
					return inner(gctx, out)
				})
				return nil
			})
		})
		return g.Wait()
	}
}

// FlattenFirst is FlatMapFirst over a flow of flows.
func FlattenFirst[T any](f Flow[Flow[T]]) Flow[T] {
	return FlatMapFirst(f, func(inner Flow[T]) Flow[T] { return inner })
}
