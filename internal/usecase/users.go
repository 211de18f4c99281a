package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"mvi-users/internal/domain"
	"mvi-users/internal/infra/tracer"
	"mvi-users/pkg/either"
	"mvi-users/pkg/flow"
)

// UserRepository is the shared, multicasting view of the user list.
type UserRepository interface {
	GetUsers() flow.Flow[either.Either[*domain.UserError, []domain.User]]
	Refresh(ctx context.Context) ([]domain.User, error)
	Remove(ctx context.Context, user domain.User) error
	Add(ctx context.Context, user domain.User) (domain.User, error)
	Search(ctx context.Context, query string) ([]domain.User, error)
}

// Users is the application layer between screens and the repository. Every
// failure it returns is a *domain.UserError, except context cancellation,
// which is passed through untouched. Outcomes are traced and published on
// the event bus.
type Users struct {
	repo   UserRepository
	bus    domain.EventBus
	logger *slog.Logger
}

// NewUsers creates the use case. bus may be nil.
func NewUsers(repo UserRepository, bus domain.EventBus, logger *slog.Logger) *Users {
	if logger == nil {
		logger = slog.Default()
	}
	return &Users{repo: repo, bus: bus, logger: logger}
}

// GetUsers streams the user list. A failed initial load is published as an
// operation failure before it reaches the caller.
func (u *Users) GetUsers() flow.Flow[either.Either[*domain.UserError, []domain.User]] {
	return func(ctx context.Context, emit func(either.Either[*domain.UserError, []domain.User]) error) error {
		return u.repo.GetUsers()(ctx, func(r either.Either[*domain.UserError, []domain.User]) error {
			if ue, ok := r.LeftValue(); ok {
				u.publishFailure(ctx, "users.get", ue)
			}
			return emit(r)
		})
	}
}

// Refresh reloads the list. Subscribers of GetUsers see the new version.
func (u *Users) Refresh(ctx context.Context) error {
	ctx, span := tracer.StartSpan(ctx, "users.refresh")
	users, err := u.repo.Refresh(ctx)
	if err != nil {
		return u.fail(ctx, span, "users.refresh", err)
	}
	span.SetAttributes(tracer.IntAttr("users.count", len(users)))
	tracer.End(span, nil)

	u.logger.Debug("users refreshed", "count", len(users))
	u.publish(ctx, domain.EventUsersRefreshed, domain.RefreshedPayload{Count: len(users)})
	return nil
}

// Remove deletes user.
func (u *Users) Remove(ctx context.Context, user domain.User) error {
	ctx, span := tracer.StartSpan(ctx, "users.remove", trace.WithAttributes(tracer.StringAttr("user.id", user.ID)))
	if err := u.repo.Remove(ctx, user); err != nil {
		return u.fail(ctx, span, "users.remove", err)
	}
	tracer.End(span, nil)

	u.logger.Info("user removed", "user_id", user.ID, "email", user.Email)
	u.publish(ctx, domain.EventUserRemoved, domain.UserPayload{User: user})
	return nil
}

// Add creates user. The stored user, with its assigned ID, is published.
func (u *Users) Add(ctx context.Context, user domain.User) error {
	_, err := u.Create(ctx, user)
	return err
}

// Create is Add that also returns the stored user.
func (u *Users) Create(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, span := tracer.StartSpan(ctx, "users.add", trace.WithAttributes(tracer.StringAttr("user.email", user.Email)))
	created, err := u.repo.Add(ctx, user)
	if err != nil {
		return domain.User{}, u.fail(ctx, span, "users.add", err)
	}
	span.SetAttributes(tracer.StringAttr("user.id", created.ID))
	tracer.End(span, nil)

	u.logger.Info("user added", "user_id", created.ID, "email", created.Email)
	u.publish(ctx, domain.EventUserAdded, domain.UserPayload{User: created})
	return created, nil
}

// Search returns users matching query. The shared list is not touched.
func (u *Users) Search(ctx context.Context, query string) ([]domain.User, error) {
	ctx, span := tracer.StartSpan(ctx, "users.search", trace.WithAttributes(tracer.StringAttr("query", query)))
	users, err := u.repo.Search(ctx, query)
	if err != nil {
		return nil, u.fail(ctx, span, "users.search", err)
	}
	span.SetAttributes(tracer.IntAttr("users.count", len(users)))
	tracer.End(span, nil)

	u.publish(ctx, domain.EventUsersSearched, domain.SearchedPayload{Query: query, Count: len(users)})
	return users, nil
}

func (u *Users) fail(ctx context.Context, span trace.Span, op string, err error) error {
	tracer.End(span, err)
	ue := domain.ClassifyError(err)
	if ue == nil {
		return err
	}
	u.logger.Warn("user operation failed", "op", op, "code", domain.ErrorCodeOf(ue), "error", err)
	u.publishFailure(ctx, op, ue)
	return ue
}

func (u *Users) publishFailure(ctx context.Context, op string, ue *domain.UserError) {
	u.publish(ctx, domain.EventOperationFailed, domain.FailurePayload{
		Op:    op,
		Code:  domain.ErrorCodeOf(ue),
		Error: ue.Error(),
	})
}

func (u *Users) publish(ctx context.Context, t domain.EventType, payload any) {
	if u.bus == nil {
		return
	}
	u.bus.Publish(ctx, domain.NewEvent(t, payload))
}
