package journal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mvi-users/internal/domain"
	"mvi-users/internal/usecase/eventbus"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "nested", "journal.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndReadTail(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()

	ada := domain.User{ID: "1", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, j.Record(ctx, domain.NewEvent(domain.EventUserAdded, domain.UserPayload{User: ada})))
	require.NoError(t, j.Record(ctx, domain.NewEvent(domain.EventUsersRefreshed, domain.RefreshedPayload{Count: 5})))
	require.NoError(t, j.Record(ctx, domain.Event{Type: domain.EventUserRemoved}))

	events, err := ReadTail(j.Path(), 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventUserAdded, events[0].Type)
	assert.False(t, events[2].Timestamp.IsZero(), "zero timestamps are stamped")

	var payload domain.UserPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, ada, payload.User)

	events, err = ReadTail(j.Path(), 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventUsersRefreshed, events[0].Type)

	events, err = ReadTail(j.Path(), 0, domain.EventUserAdded, domain.EventUserRemoved)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventUserRemoved, events[1].Type)
}

func TestFilePermissions(t *testing.T) {
	j := openTemp(t)
	info, err := os.Stat(j.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestReadTailMissingFile(t *testing.T) {
	events, err := ReadTail(filepath.Join(t.TempDir(), "absent.jsonl"), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestReadTailSkipsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	content := "not json\n\n{\"type\":\"user.added\",\"timestamp\":\"2026-01-02T03:04:05Z\"}\n{}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	events, err := ReadTail(path, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventUserAdded, events[0].Type)
}

func TestRecordAddsSpanEvent(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	j := openTemp(t)
	ctx, span := tp.Tracer("test").Start(context.Background(), "users.add")
	require.NoError(t, j.Record(ctx, domain.NewEvent(domain.EventUserAdded, nil)))
	span.End()

	spans := rec.Ended()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "journal.user.added", spans[0].Events()[0].Name)
}

func TestAttachRecordsBusEvents(t *testing.T) {
	j := openTemp(t)
	bus := eventbus.New(nil)

	detach := j.Attach(bus, nil)
	bus.Publish(context.Background(), domain.NewEvent(domain.EventUsersSearched, domain.SearchedPayload{Query: "ada", Count: 1}))
	bus.Close()
	detach()

	events, err := ReadTail(j.Path(), 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventUsersSearched, events[0].Type)
}

func TestEnforceRetentionMaxAge(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()

	old := domain.Event{Type: domain.EventUserAdded, Timestamp: time.Now().Add(-48 * time.Hour)}
	recent := domain.Event{Type: domain.EventUserRemoved, Timestamp: time.Now()}
	require.NoError(t, j.Record(ctx, old))
	require.NoError(t, j.Record(ctx, recent))

	j.SetRetention(RetentionPolicy{MaxAge: 24 * time.Hour})
	removed, err := j.EnforceRetention(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	// The journal keeps accepting writes after the rewrite.
	require.NoError(t, j.Record(ctx, domain.Event{Type: domain.EventUsersRefreshed}))

	events, err := ReadTail(j.Path(), 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventUserRemoved, events[0].Type)
	assert.Equal(t, domain.EventUsersRefreshed, events[1].Type)
}

func TestEnforceRetentionMaxSize(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for range 10 {
		require.NoError(t, j.Record(ctx, domain.Event{Type: domain.EventUsersRefreshed, Timestamp: at, Payload: json.RawMessage(`{"count":5}`)}))
	}
	info, err := os.Stat(j.Path())
	require.NoError(t, err)
	lineSize := info.Size() / 10

	j.SetRetention(RetentionPolicy{MaxSize: lineSize * 3})
	removed, err := j.EnforceRetention(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, removed)

	events, err := ReadTail(j.Path(), 0)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestEnforceRetentionNoPolicy(t *testing.T) {
	j := openTemp(t)
	require.NoError(t, j.Record(context.Background(), domain.Event{Type: domain.EventUserAdded}))

	removed, err := j.EnforceRetention(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"100", 100},
		{"100B", 100},
		{"2kb", 2048},
		{" 10MB ", 10 << 20},
		{"1GB", 1 << 30},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"lots", "MB", "-1KB"} {
		_, err := ParseSize(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, bad)
	}
}
