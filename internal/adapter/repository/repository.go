// Package repository keeps the canonical user list. A single writer goroutine
// owns the list; callers send it changes and watch the lists it broadcasts.
package repository

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"mvi-users/internal/domain"
	"mvi-users/pkg/either"
	"mvi-users/pkg/flow"
)

// Options configures a Repository.
type Options struct {
	// Backoff is the retry policy of the initial fetch. Its ShouldRetry
	// defaults to domain.IsRetryableError.
	Backoff flow.Backoff
	Logger  *slog.Logger
}

// Repository serves the user list from a data source.
type Repository struct {
	source  domain.UserDataSource
	backoff flow.Backoff
	logger  *slog.Logger

	cmds      chan command
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type command interface{ isCommand() }

type (
	applyChange struct{ change domain.Change }
	subscribe   struct{ buf *flow.Buffer[[]domain.User] }
	unsubscribe struct{ buf *flow.Buffer[[]domain.User] }
)

func (applyChange) isCommand() {}
func (subscribe) isCommand()   {}
func (unsubscribe) isCommand() {}

// New creates a repository over source and starts its writer.
func New(source domain.UserDataSource, opts Options) *Repository {
	b := opts.Backoff
	if b.Times <= 0 {
		b = flow.DefaultBackoff()
	}
	if b.ShouldRetry == nil {
		b.ShouldRetry = domain.IsRetryableError
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "repository")
	if b.OnRetry == nil {
		b.OnRetry = func(attempt int, delay time.Duration, err error) {
			logger.Warn("fetch users failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		}
	}

	r := &Repository{
		source:  source,
		backoff: b,
		logger:  logger,
		cmds:    make(chan command, 64),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go r.write()
	return r
}

// write is the only goroutine that reads or modifies the list.
func (r *Repository) write() {
	defer close(r.done)

	var (
		users []domain.User
		subs  []*flow.Buffer[[]domain.User]
	)
	for {
		select {
		case <-r.stop:
			for _, b := range subs {
				b.Close()
			}
			return
		case cmd := <-r.cmds:
			switch cmd := cmd.(type) {
			case subscribe:
				subs = append(subs, cmd.buf)
			case unsubscribe:
				subs = slices.DeleteFunc(subs, func(b *flow.Buffer[[]domain.User]) bool { return b == cmd.buf })
				cmd.buf.Discard()
			case applyChange:
				users = cmd.change.Apply(users)
				r.logger.Debug("users changed", "change", changeName(cmd.change), "count", len(users))
				for _, b := range subs {
					b.Send(users)
				}
			}
		}
	}
}

func (r *Repository) send(ctx context.Context, cmd command) error {
	select {
	case <-r.stop:
		return domain.WrapOp("Repository", domain.ErrUnavailable)
	default:
	}
	select {
	case r.cmds <- cmd:
		return nil
	case <-r.stop:
		return domain.WrapOp("Repository", domain.ErrUnavailable)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetUsers fetches the list, retrying transient failures, and then streams
// every later version of it. A fetch that still fails is emitted as a Left
// value and ends the stream.
func (r *Repository) GetUsers() flow.Flow[either.Either[*domain.UserError, []domain.User]] {
	type result = either.Either[*domain.UserError, []domain.User]
	return func(ctx context.Context, emit func(result) error) error {
		users, err := flow.RetryWithExponentialBackoff(ctx, r.backoff, r.source.List)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return emit(either.Left[*domain.UserError, []domain.User](domain.ClassifyError(err)))
		}

		buf := flow.NewBuffer[[]domain.User]()
		if err := r.send(ctx, subscribe{buf: buf}); err != nil {
			return err
		}
		defer func() {
			if r.send(context.WithoutCancel(ctx), unsubscribe{buf: buf}) != nil {
				buf.Discard()
			}
		}()
		if err := r.send(ctx, applyChange{change: domain.UsersRefreshed{Users: users}}); err != nil {
			return err
		}

		return flow.Map(buf.Flow(), func(users []domain.User) result {
			return either.Right[*domain.UserError](users)
		})(ctx, emit)
	}
}

// Refresh reloads the list from the data source and broadcasts it.
func (r *Repository) Refresh(ctx context.Context) ([]domain.User, error) {
	users, err := r.source.List(ctx)
	if err != nil {
		return nil, domain.WrapOp("Repository.Refresh", err)
	}
	return users, r.send(ctx, applyChange{change: domain.UsersRefreshed{Users: users}})
}

// Remove deletes user and broadcasts the shorter list.
func (r *Repository) Remove(ctx context.Context, user domain.User) error {
	if err := r.source.Delete(ctx, user.ID); err != nil {
		return domain.WrapOp("Repository.Remove", err)
	}
	return r.send(ctx, applyChange{change: domain.UserRemoved{User: user}})
}

// Add creates user and broadcasts the longer list. It returns the user as
// stored, with its assigned ID.
func (r *Repository) Add(ctx context.Context, user domain.User) (domain.User, error) {
	created, err := r.source.Create(ctx, user)
	if err != nil {
		return domain.User{}, domain.WrapOp("Repository.Add", err)
	}
	return created, r.send(ctx, applyChange{change: domain.UserAdded{User: created}})
}

// Search queries the data source. The canonical list is not affected.
func (r *Repository) Search(ctx context.Context, query string) ([]domain.User, error) {
	users, err := r.source.Search(ctx, query)
	if err != nil {
		return nil, domain.WrapOp("Repository.Search", err)
	}
	return users, nil
}

// Close stops the writer. Open GetUsers streams complete.
func (r *Repository) Close() {
	r.closeOnce.Do(func() { close(r.stop) })
	<-r.done
}

func changeName(c domain.Change) string {
	switch c.(type) {
	case domain.UserAdded:
		return "added"
	case domain.UserRemoved:
		return "removed"
	case domain.UsersRefreshed:
		return "refreshed"
	}
	return "unknown"
}
