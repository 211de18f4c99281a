package datasource

import (
	"context"

	"golang.org/x/time/rate"

	"mvi-users/internal/domain"
)

// RateLimited throttles calls to a data source on the client side. Calls
// wait for a token; a call whose context ends first fails with the context
// error.
type RateLimited struct {
	inner   domain.UserDataSource
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond calls per second on average with bursts of
// up to burst calls.
func NewRateLimited(inner domain.UserDataSource, perSecond float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *RateLimited) wait(ctx context.Context, op string) error {
	return domain.WrapOp("RateLimited."+op, r.limiter.Wait(ctx))
}

func (r *RateLimited) List(ctx context.Context) ([]domain.User, error) {
	if err := r.wait(ctx, "List"); err != nil {
		return nil, err
	}
	return r.inner.List(ctx)
}

func (r *RateLimited) Create(ctx context.Context, u domain.User) (domain.User, error) {
	if err := r.wait(ctx, "Create"); err != nil {
		return domain.User{}, err
	}
	return r.inner.Create(ctx, u)
}

func (r *RateLimited) Delete(ctx context.Context, id string) error {
	if err := r.wait(ctx, "Delete"); err != nil {
		return err
	}
	return r.inner.Delete(ctx, id)
}

func (r *RateLimited) Search(ctx context.Context, query string) ([]domain.User, error) {
	if err := r.wait(ctx, "Search"); err != nil {
		return nil, err
	}
	return r.inner.Search(ctx, query)
}

var _ domain.UserDataSource = (*RateLimited)(nil)
