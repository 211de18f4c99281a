package adduser

import (
	"context"
	"log/slog"

	"mvi-users/internal/domain"
	"mvi-users/internal/mvi"
	"mvi-users/pkg/flow"
)

// UseCase is what the form needs from the application layer. Errors are
// always *domain.UserError.
type UseCase interface {
	Add(ctx context.Context, user domain.User) error
}

// Store is a running form screen.
type Store = mvi.Store[Intent, ViewState, Event]

// NewStore starts a form screen backed by uc.
func NewStore(ctx context.Context, uc UseCase, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	p := &processor{uc: uc, logger: logger.With("screen", "adduser")}
	return mvi.New(ctx, mvi.Config[Intent, ViewState, Event, Change]{
		Name:      "adduser",
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

func (p *processor) transform(intents flow.Flow[Intent], _ func() ViewState) flow.Flow[Change] {
	return flow.Publish(intents, func(shared *flow.Shared[Intent]) flow.Flow[Change] {
		// Each subscription folds every intent in arrival order, so a Submit
		// always sees the fields sent before it.
		steps := func() flow.Flow[step] {
			return flow.Scan(shared.Subscribe(), step{form: initialForm()}, step.next)
		}

		edits := flow.FlatMapConcat(steps(), func(st step) flow.Flow[Change] {
			switch i := st.intent.(type) {
			case FieldChanged:
				return flow.Of[Change](FieldValueChanged(i), ErrorsChanged{Errors: st.form.errors()})
			case GenderChanged:
				return flow.Of[Change](GenderValueChanged(i), ErrorsChanged{Errors: st.form.errors()})
			}
			return flow.Empty[Change]()
		})

		submits := flow.FilterMap(steps(), func(st step) (domain.Validated[domain.User], bool) {
			_, ok := st.intent.(Submit)
			return st.form.validate(), ok
		})

		return flow.Merge(edits, flow.FlatMapFirst(submits, p.submit))
	})
}

func (p *processor) submit(v domain.Validated[domain.User]) flow.Flow[Change] {
	user, ok := v.RightValue()
	if !ok {
		return flow.Of[Change](AllFieldsTouched{})
	}
	return func(ctx context.Context, emit func(Change) error) error {
		if err := emit(AddLoading{}); err != nil {
			return err
		}
		if err := p.uc.Add(ctx, user); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("add user failed", "email", user.Email, "error", err)
			return emit(AddFailure{User: user, Err: domain.ClassifyError(err)})
		}
		return emit(AddSuccess{User: user})
	}
}
