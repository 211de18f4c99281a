package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mvi-users/internal/adapter/datasource"
	"mvi-users/internal/adapter/journal"
	"mvi-users/internal/adapter/repository"
	"mvi-users/internal/domain"
	"mvi-users/internal/infra/config"
	"mvi-users/internal/usecase"
	"mvi-users/internal/usecase/eventbus"
	"mvi-users/internal/usecase/scheduling"
	"mvi-users/pkg/flow"
)

// application holds the wired core shared by the UI and the headless commands.
type application struct {
	users   *usecase.Users
	bus     *eventbus.Bus
	repo    *repository.Repository
	journal *journal.Journal // nil when disabled
	source  string

	closers []func() error
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func buildApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*application, error) {
	a := &application{}

	source, name, closeSource, err := buildDataSource(ctx, cfg.DataSource, log)
	if err != nil {
		return nil, err
	}
	a.source = name
	if closeSource != nil {
		a.closers = append(a.closers, closeSource)
	}

	a.repo = repository.New(source, repository.Options{
		Backoff: buildBackoff(cfg.Retry, log),
		Logger:  log,
	})
	a.closers = append(a.closers, func() error {
		a.repo.Close()
		return nil
	})

	a.bus = eventbus.New(log)
	if cfg.Journal.Enabled {
		j, err := openJournal(ctx, cfg.Journal, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.journal = j
		a.closers = append(a.closers, j.Close)
		j.Attach(a.bus, log)
	}
	// The bus closes first so queued events still reach the journal.
	a.closers = append(a.closers, func() error {
		a.bus.Close()
		return nil
	})

	a.users = usecase.NewUsers(a.repo, a.bus, log)
	return a, nil
}

// openJournal opens the event journal and applies its retention policy once.
func openJournal(ctx context.Context, cfg config.JournalConfig, log *slog.Logger) (*journal.Journal, error) {
	maxSize, err := journal.ParseSize(cfg.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("journal.max_size: %w", err)
	}
	j, err := journal.Open(cfg.Path)
	if err != nil {
		return nil, err
	}
	j.SetRetention(journal.RetentionPolicy{MaxAge: cfg.MaxAge, MaxSize: maxSize})
	if removed, err := j.EnforceRetention(ctx); err != nil {
		log.Warn("journal retention failed", "path", cfg.Path, "error", err)
	} else if removed > 0 {
		log.Info("journal pruned", "path", cfg.Path, "removed", removed)
	}
	return j, nil
}

// buildDataSource opens the configured driver and stacks the rate limiter and
// circuit breaker on top of it. The returned name is shown to the user.
func buildDataSource(ctx context.Context, cfg config.DataSourceConfig, log *slog.Logger) (domain.UserDataSource, string, func() error, error) {
	var seed []domain.User
	if cfg.Seed {
		seed = datasource.DefaultSeed()
	}

	var (
		source    domain.UserDataSource
		name      string
		closeFunc func() error
	)
	switch cfg.Driver {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, "", nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err := datasource.NewSQLite(ctx, cfg.Path, seed)
		if err != nil {
			return nil, "", nil, fmt.Errorf("open sqlite: %w", err)
		}
		source, name, closeFunc = db, "sqlite:"+filepath.Base(cfg.Path), db.Close
	case "memory", "":
		source = datasource.NewMemory(datasource.MemoryOptions{
			Seed:        seed,
			Latency:     cfg.Latency,
			FailureRate: cfg.FailureRate,
		})
		name = "memory"
	default:
		return nil, "", nil, fmt.Errorf("unknown data source driver %q", cfg.Driver)
	}

	if cfg.RateLimit.Enabled {
		source = datasource.NewRateLimited(source, cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	}
	if cfg.Breaker.Enabled {
		source = datasource.NewCircuitBreaker(source, datasource.BreakerOptions{
			MaxFailures: cfg.Breaker.MaxFailures,
			Timeout:     cfg.Breaker.Timeout,
			Interval:    cfg.Breaker.Interval,
		}, log)
	}
	log.Debug("data source ready", "driver", name,
		"rate_limit", cfg.RateLimit.Enabled, "breaker", cfg.Breaker.Enabled)
	return source, name, closeFunc, nil
}

func buildBackoff(cfg config.RetryConfig, log *slog.Logger) flow.Backoff {
	return flow.Backoff{
		Times:        cfg.Attempts,
		InitialDelay: cfg.InitialDelay,
		Factor:       cfg.Factor,
		MaxDelay:     cfg.MaxDelay,
		ShouldRetry:  domain.IsRetryableError,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			log.Warn("fetch users failed, retrying",
				"attempt", attempt, "delay", delay, "error", err)
		},
	}
}

// startScheduler registers the periodic refresh. It returns nil when no
// schedule is configured.
func startScheduler(ctx context.Context, cfg config.RefreshConfig, users *usecase.Users, log *slog.Logger) (*scheduling.Scheduler, error) {
	if cfg.Schedule == "" {
		return nil, nil
	}
	sched := scheduling.NewScheduler(log, scheduling.DefaultTaskTimeout)
	sched.RegisterAction(scheduling.ActionRefreshUsers, users.Refresh)
	if err := sched.AddTask(scheduling.ScheduledTask{
		Name:     "refresh-users",
		Schedule: cfg.Schedule,
		Action:   scheduling.ActionRefreshUsers,
	}); err != nil {
		return nil, fmt.Errorf("schedule refresh: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return nil, fmt.Errorf("start scheduler: %w", err)
	}
	log.Info("auto-refresh scheduled", "schedule", cfg.Schedule, "next", sched.NextRun())
	return sched, nil
}
