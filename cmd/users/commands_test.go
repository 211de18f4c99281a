package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvi-users/internal/adapter/journal"
	"mvi-users/internal/domain"
	"mvi-users/internal/infra/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseFlags(t *testing.T) {
	flags := parseFlags([]string{
		"--email", "ada@example.com",
		"--first=Ada",
		"--last", "Lovelace",
		"--gender=f",
		"--config", "/tmp/c.yaml",
		"--json",
		"--limit=7",
		"extra", "words",
	})
	assert.Equal(t, "ada@example.com", flags.Email)
	assert.Equal(t, "Ada", flags.FirstName)
	assert.Equal(t, "Lovelace", flags.LastName)
	assert.Equal(t, "f", flags.Gender)
	assert.True(t, flags.JSON)
	assert.Equal(t, 7, flags.Limit)
	assert.Equal(t, []string{"extra", "words"}, flags.Args)
}

func TestParseFlagsTrailingFlagIsPositional(t *testing.T) {
	flags := parseFlags([]string{"--email"})
	assert.Empty(t, flags.Email)
	assert.Equal(t, []string{"--email"}, flags.Args)
}

func TestPrintUsersTable(t *testing.T) {
	var buf bytes.Buffer
	users := []domain.User{
		{ID: "1", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace", Gender: domain.GenderFemale},
	}
	require.NoError(t, printUsers(&buf, users, false))
	out := buf.String()
	assert.Contains(t, out, "EMAIL")
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "ada@example.com")
}

func TestPrintUsersEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsers(&buf, nil, false))
	assert.Equal(t, "No users.\n", buf.String())

	buf.Reset()
	require.NoError(t, printUsers(&buf, nil, true))
	assert.JSONEq(t, "[]", buf.String())
}

func TestPrintUsersJSON(t *testing.T) {
	var buf bytes.Buffer
	users := []domain.User{{ID: "1", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace", Gender: domain.GenderFemale}}
	require.NoError(t, printUsers(&buf, users, true))

	var got []domain.User
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, users, got)
}

func TestInteractiveLogConfig(t *testing.T) {
	for _, output := range []string{"", "stdout", "stderr"} {
		got := interactiveLogConfig(config.LoggerConfig{Output: output})
		assert.Equal(t, filepath.Join(config.DefaultDataDir(), "mvi-users.log"), got.Output, "output %q", output)
	}
	got := interactiveLogConfig(config.LoggerConfig{Output: "discard"})
	assert.Equal(t, "discard", got.Output)
}

func TestBuildBackoff(t *testing.T) {
	b := buildBackoff(config.RetryConfig{Attempts: 4, InitialDelay: time.Second, Factor: 3, MaxDelay: 5 * time.Second}, discardLogger())
	assert.Equal(t, 4, b.Times)
	assert.Equal(t, time.Second, b.InitialDelay)
	assert.Equal(t, 3.0, b.Factor)
	assert.Equal(t, 5*time.Second, b.MaxDelay)
	require.NotNil(t, b.ShouldRetry)
	assert.True(t, b.ShouldRetry(domain.NewNetworkError(nil)))
	assert.False(t, b.ShouldRetry(domain.NewUserNotFoundError("x")))
}

func TestBuildDataSourceUnknownDriver(t *testing.T) {
	_, _, _, err := buildDataSource(context.Background(), config.DataSourceConfig{Driver: "postgres"}, discardLogger())
	assert.ErrorContains(t, err, "postgres")
}

func TestBuildDataSourceSQLiteCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "users.db")
	cfg := config.DataSourceConfig{Driver: "sqlite", Path: path, Seed: true}
	source, name, closeSource, err := buildDataSource(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, closeSource)
	defer closeSource()

	assert.Equal(t, "sqlite:users.db", name)
	users, err := source.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 5)
}

func TestApplicationRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataSource.RateLimit.Enabled = true
	cfg.DataSource.RateLimit.PerSecond = 1000
	cfg.DataSource.RateLimit.Burst = 100

	ctx := context.Background()
	a, err := buildApp(ctx, cfg, discardLogger())
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "memory", a.source)

	users, err := loadUsers(ctx, a)
	require.NoError(t, err)
	require.Len(t, users, 5)

	created, err := a.users.Create(ctx, domain.User{
		Email: "barbara.liskov@example.com", FirstName: "Barbara", LastName: "Liskov", Gender: domain.GenderFemale,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	found, err := a.users.Search(ctx, "liskov")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	require.NoError(t, a.users.Remove(ctx, created))
	users, err = loadUsers(ctx, a)
	require.NoError(t, err)
	assert.Len(t, users, 5)

	// Closing drains the bus into the journal.
	require.NoError(t, a.Close())
	events, err := journal.ReadTail(cfg.Journal.Path, 0, domain.EventUserAdded, domain.EventUserRemoved)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventUserAdded, events[0].Type)
	assert.Equal(t, domain.EventUserRemoved, events[1].Type)
}

func TestApplicationJournalDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal.Enabled = false

	a, err := buildApp(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.journal)
}

func TestOpenJournalRejectsBadSize(t *testing.T) {
	cfg := testConfig(t).Journal
	cfg.MaxSize = "huge"
	_, err := openJournal(context.Background(), cfg, discardLogger())
	assert.ErrorContains(t, err, "journal.max_size")
}

func TestPrintEvents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printEvents(&buf, nil, false))
	assert.Equal(t, "No recorded activity.\n", buf.String())

	buf.Reset()
	events := []domain.Event{domain.NewEvent(domain.EventUsersRefreshed, domain.RefreshedPayload{Count: 3})}
	require.NoError(t, printEvents(&buf, events, false))
	assert.Contains(t, buf.String(), "users.refreshed")

	buf.Reset()
	require.NoError(t, printEvents(&buf, events, true))
	var got []domain.Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, domain.EventUsersRefreshed, got[0].Type)
}

func TestApplicationLoadFailureIsClassified(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataSource.FailureRate = 1
	cfg.Retry.Attempts = 1

	ctx := context.Background()
	a, err := buildApp(ctx, cfg, discardLogger())
	require.NoError(t, err)
	defer a.Close()

	_, err = loadUsers(ctx, a)
	var ue *domain.UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, domain.ErrNetwork, ue.Kind)
}

func TestStartScheduler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig(t)
	a, err := buildApp(ctx, cfg, discardLogger())
	require.NoError(t, err)
	defer a.Close()

	sched, err := startScheduler(ctx, config.RefreshConfig{}, a.users, discardLogger())
	require.NoError(t, err)
	assert.Nil(t, sched)

	sched, err = startScheduler(ctx, config.RefreshConfig{Schedule: "whenever"}, a.users, discardLogger())
	assert.Error(t, err)
	assert.Nil(t, sched)

	sched, err = startScheduler(ctx, config.RefreshConfig{Schedule: "1h"}, a.users, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, sched)
	defer sched.Stop()
	assert.WithinDuration(t, time.Now().Add(time.Hour), sched.NextRun(), time.Minute)
}
