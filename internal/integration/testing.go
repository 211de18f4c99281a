package integration

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mvi-users/internal/adapter/datasource"
	"mvi-users/internal/adapter/journal"
	"mvi-users/internal/adapter/repository"
	"mvi-users/internal/domain"
	"mvi-users/internal/usecase"
	"mvi-users/internal/usecase/eventbus"
	"mvi-users/pkg/flow"
)

// Config holds integration test configuration from environment
type Config struct {
	// DataDir hosts the databases; a per-test temp dir when unset.
	DataDir     string
	TestTimeout time.Duration
	SkipSlow    bool
}

// LoadConfig loads integration test configuration from environment
func LoadConfig() *Config {
	return &Config{
		DataDir:     os.Getenv("MVIUSERS_IT_DATA_DIR"),
		TestTimeout: 30 * time.Second,
		SkipSlow:    os.Getenv("SKIP_SLOW_TESTS") == "1",
	}
}

// SkipIfShort skips integration tests in short mode
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// SkipIfSlow skips tests that wait on real timeouts when SKIP_SLOW_TESTS=1.
func SkipIfSlow(t *testing.T, cfg *Config) {
	t.Helper()
	if cfg.SkipSlow {
		t.Skip("Skipping slow integration test")
	}
}

// NewTestContext creates a context with timeout for integration tests
func NewTestContext(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// Stack is the production wiring below the screens: a data source behind a
// circuit breaker, the shared repository, the event bus with a journal and
// the users facade.
type Stack struct {
	Users   *usecase.Users
	Bus     *eventbus.Bus
	Journal *journal.Journal
	Logger  *slog.Logger

	closers []func()
}

// StackOptions tunes NewStack.
type StackOptions struct {
	Source  domain.UserDataSource
	Breaker datasource.BreakerOptions
	Backoff flow.Backoff
}

// NewSQLiteSource opens dbPath seeded with the default users and closes it
// when the test ends.
func NewSQLiteSource(t *testing.T, ctx context.Context, dbPath string) *datasource.SQLite {
	t.Helper()
	db, err := datasource.NewSQLite(ctx, dbPath, datasource.DefaultSeed())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// DBPath returns a database file under cfg.DataDir, or a temp dir.
func DBPath(t *testing.T, cfg *Config) string {
	t.Helper()
	dir := cfg.DataDir
	if dir == "" {
		dir = t.TempDir()
	}
	return filepath.Join(dir, "users.db")
}

// NewStack wires opts.Source and registers Close as a test cleanup.
func NewStack(t *testing.T, opts StackOptions) *Stack {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if testing.Verbose() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	source := datasource.NewCircuitBreaker(opts.Source, opts.Breaker, logger)
	repo := repository.New(source, repository.Options{Backoff: opts.Backoff, Logger: logger})
	bus := eventbus.New(logger)

	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.jsonl"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	j.Attach(bus, logger)

	s := &Stack{
		Users:   usecase.NewUsers(repo, bus, logger),
		Bus:     bus,
		Journal: j,
		Logger:  logger,
	}
	s.closers = []func(){repo.Close, bus.Close, func() { j.Close() }}
	t.Cleanup(s.Close)
	return s
}

// Close shuts the stack down; queued bus events are journaled first.
func (s *Stack) Close() {
	for _, c := range s.closers {
		c()
	}
	s.closers = nil
}

// AwaitState blocks until states yields a value satisfying cond.
func AwaitState[S any](t *testing.T, ctx context.Context, states flow.Flow[S], cond func(S) bool) S {
	t.Helper()
	s, err := flow.First(ctx, flow.Filter(states, cond))
	if err != nil {
		t.Fatalf("await state: %v", err)
	}
	return s
}

// AwaitEvent skips events until one of type T arrives.
func AwaitEvent[T, E any](t *testing.T, ctx context.Context, next func(context.Context) (E, error)) T {
	t.Helper()
	for {
		e, err := next(ctx)
		if err != nil {
			t.Fatalf("await event: %v", err)
		}
		if v, ok := any(e).(T); ok {
			return v
		}
	}
}
