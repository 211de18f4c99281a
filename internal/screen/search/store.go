package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"mvi-users/internal/domain"
	"mvi-users/internal/mvi"
	"mvi-users/pkg/flow"
)

// DefaultDebounce is the quiet period before a typed query is submitted.
const DefaultDebounce = 300 * time.Millisecond

// UseCase is what the search screen needs from the application layer.
// Errors are always *domain.UserError.
type UseCase interface {
	Search(ctx context.Context, query string) ([]domain.User, error)
}

// Options tunes a search screen.
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// Store is a running search screen.
type Store = mvi.Store[Intent, ViewState, Event]

// NewStore starts a search screen backed by uc.
func NewStore(ctx context.Context, uc UseCase, opts Options) *Store {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	p := &processor{uc: uc, debounce: opts.Debounce, logger: opts.Logger.With("screen", "search")}
	return mvi.New(ctx, mvi.Config[Intent, ViewState, Event, Change]{
		Name:      "search",
		Initial:   InitialState(),
		Transform: p.transform,
		ToEvent:   toEvent,
		Logger:    opts.Logger,
	})
}

type processor struct {
	uc       UseCase
	debounce time.Duration
	logger   *slog.Logger
}

func (p *processor) transform(intents flow.Flow[Intent], state func() ViewState) flow.Flow[Change] {
	return flow.Publish(intents, func(shared *flow.Shared[Intent]) flow.Flow[Change] {
		queries := func() flow.Flow[string] {
			return flow.Map(flow.OfType[Intent, Search](shared.Subscribe()), func(s Search) string { return s.Query })
		}

		typed := flow.Map(queries(), func(q string) Change { return QueryChanged{Query: q} })

		cleared := flow.FilterMap(queries(), func(q string) (Change, bool) {
			return Cleared{}, isBlank(q)
		})

		// Blank queries take part in debouncing so they cancel a pending one,
		// and in distinct filtering so retyping a cleared query searches again.
		submitted := flow.Filter(
			flow.DistinctUntilChanged(flow.Map(flow.Debounce(queries(), p.debounce), strings.TrimSpace)),
			func(q string) bool { return q != "" },
		)

		retry := flow.FilterMap(flow.OfType[Intent, Retry](shared.Subscribe()), func(Retry) (string, bool) {
			s := state()
			return s.SubmittedQuery, s.Error != nil && !s.IsLoading
		})

		// A blank query abandons the search in flight.
		search := func(query string) flow.Flow[Change] {
			blanks := flow.Filter(queries(), isBlank)
			return flow.TakeUntil(p.search(query), blanks)
		}

		return flow.Merge(
			typed,
			cleared,
			flow.FlatMapFirst(submitted, search),
			flow.FlatMapFirst(retry, search),
		)
	})
}

func (p *processor) search(query string) flow.Flow[Change] {
	return func(ctx context.Context, emit func(Change) error) error {
		if err := emit(Loading{}); err != nil {
			return err
		}
		users, err := p.uc.Search(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("search failed", "query", query, "error", err)
			return emit(Failure{Err: domain.ClassifyError(err), Query: query})
		}
		return emit(Success{Users: users, Query: query})
	}
}

func isBlank(q string) bool { return strings.TrimSpace(q) == "" }
