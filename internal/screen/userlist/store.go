package userlist

import (
	"context"
	"log/slog"

	"mvi-users/internal/domain"
	"mvi-users/internal/mvi"
	"mvi-users/pkg/either"
	"mvi-users/pkg/flow"
)

// UseCase is what the list needs from the application layer. Errors are
// always *domain.UserError.
type UseCase interface {
	GetUsers() flow.Flow[either.Either[*domain.UserError, []domain.User]]
	Refresh(ctx context.Context) error
	Remove(ctx context.Context, user domain.User) error
}

// Store is a running list screen.
type Store = mvi.Store[Intent, ViewState, Event]

// NewStore starts a list screen backed by uc.
func NewStore(ctx context.Context, uc UseCase, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	p := &processor{uc: uc, logger: logger.With("screen", "userlist")}
	return mvi.New(ctx, mvi.Config[Intent, ViewState, Event, Change]{
		Name:      "userlist",
		Initial:   InitialState(),
		Transform: p.transform,
		ToEvent:   toEvent,
		Logger:    logger,
	})
}

type processor struct {
	uc     UseCase
	logger *slog.Logger
}

func (p *processor) transform(intents flow.Flow[Intent], state func() ViewState) flow.Flow[Change] {
	return flow.Publish(intents, func(shared *flow.Shared[Intent]) flow.Flow[Change] {
		initial := flow.Take(flow.OfType[Intent, Initial](shared.Subscribe()), 1)

		refresh := flow.Filter(flow.OfType[Intent, Refresh](shared.Subscribe()), func(Refresh) bool {
			s := state()
			return !s.IsLoading && s.Error == nil
		})

		retry := flow.Filter(flow.OfType[Intent, Retry](shared.Subscribe()), func(Retry) bool {
			return state().Error != nil
		})

		remove := flow.OfType[Intent, RemoveUser](shared.Subscribe())

		return flow.Merge(
			flow.FlatMapConcat(initial, func(Initial) flow.Flow[Change] { return p.fetch() }),
			flow.FlatMapFirst(refresh, func(Refresh) flow.Flow[Change] { return p.refresh() }),
			flow.FlatMapFirst(retry, func(Retry) flow.Flow[Change] { return p.fetch() }),
			flow.FlatMapMerge(remove, func(i RemoveUser) flow.Flow[Change] { return p.remove(i.Item) }),
		)
	})
}

// fetch emits UsersLoading, then one change per list the use case emits. A
// failed load ends the stream.
func (p *processor) fetch() flow.Flow[Change] {
	users := flow.Map(p.uc.GetUsers(), func(r either.Either[*domain.UserError, []domain.User]) Change {
		return either.Fold(r,
			func(err *domain.UserError) Change {
				p.logger.Warn("load users failed", "error", err)
				return UsersError{Err: err}
			},
			func(users []domain.User) Change {
				items := make([]UserItem, 0, len(users))
				for _, u := range users {
					items = append(items, NewUserItem(u))
				}
				return UsersData{Users: items}
			},
		)
	})
	return flow.StartWith(users, Change(UsersLoading{}))
}

func (p *processor) refresh() flow.Flow[Change] {
	return func(ctx context.Context, emit func(Change) error) error {
		if err := emit(RefreshLoading{}); err != nil {
			return err
		}
		if err := p.uc.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return emit(RefreshFailure{Err: domain.ClassifyError(err)})
		}
		return emit(RefreshSuccess{})
	}
}

func (p *processor) remove(item UserItem) flow.Flow[Change] {
	return func(ctx context.Context, emit func(Change) error) error {
		if err := p.uc.Remove(ctx, item.User()); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("remove user failed", "user_id", item.ID, "error", err)
			return emit(RemoveFailure{Item: item, Err: domain.ClassifyError(err)})
		}
		return emit(RemoveSuccess{Item: item})
	}
}
