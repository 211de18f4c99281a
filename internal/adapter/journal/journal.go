// Package journal persists domain events as JSON lines so the activity of
// earlier sessions can be replayed.
package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mvi-users/internal/domain"
	"mvi-users/internal/infra/tracer"
)

// maxLine bounds a single journal entry when reading back.
const maxLine = 1024 * 1024

// RetentionPolicy controls how long entries are kept.
type RetentionPolicy struct {
	MaxAge  time.Duration // 0 = no limit
	MaxSize int64         // bytes; 0 = no limit
}

// Journal appends events to a file.
type Journal struct {
	mu        sync.Mutex
	file      *os.File
	path      string
	retention *RetentionPolicy
}

// Open creates the file (0600) and its directory if needed and opens it for
// appending.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	f, err := openAppend(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{file: f, path: path}, nil
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
}

// Path returns the journal file.
func (j *Journal) Path() string { return j.path }

// SetRetention configures the policy applied by EnforceRetention.
func (j *Journal) SetRetention(policy RetentionPolicy) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.retention = &policy
}

// Record writes event as a single JSON line. It is also added to the active
// span, if any.
func (j *Journal) Record(ctx context.Context, event domain.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return domain.NewDomainError("Journal.Record", domain.ErrInvalidInput, err.Error())
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.file.Write(append(data, '\n')); err != nil {
		return domain.WrapOp("Journal.Record", err)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("journal."+string(event.Type), trace.WithAttributes(
			tracer.IntAttr("journal.payload_bytes", len(event.Payload)),
		))
	}
	return nil
}

// Attach records every event published on bus until the returned function
// is called. Write failures are logged.
func (j *Journal) Attach(bus domain.EventBus, logger *slog.Logger) func() {
	if logger == nil {
		logger = slog.Default()
	}
	return bus.SubscribeAll(func(ctx context.Context, event domain.Event) {
		if err := j.Record(ctx, event); err != nil {
			logger.Warn("journal write failed", "type", event.Type, "error", err)
		}
	})
}

// Close closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// EnforceRetention rewrites the file keeping only entries that satisfy the
// retention policy and returns how many were dropped. Entries over MaxAge go
// first, then the oldest until the file fits MaxSize.
func (j *Journal) EnforceRetention(ctx context.Context) (removed int, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	policy := j.retention
	if policy == nil || (policy.MaxAge == 0 && policy.MaxSize == 0) {
		return 0, nil
	}
	if policy.MaxAge == 0 {
		info, err := os.Stat(j.path)
		if err != nil {
			return 0, fmt.Errorf("stat journal: %w", err)
		}
		if info.Size() <= policy.MaxSize {
			return 0, nil
		}
	}

	var cutoff time.Time
	if policy.MaxAge > 0 {
		cutoff = time.Now().Add(-policy.MaxAge)
	}

	lines, err := readLines(j.path)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	kept := lines[:0]
	var keptSize int64
	for _, line := range lines {
		if !cutoff.IsZero() {
			var entry struct {
				Timestamp time.Time `json:"timestamp"`
			}
			if json.Unmarshal(line, &entry) == nil && !entry.Timestamp.IsZero() && entry.Timestamp.Before(cutoff) {
				removed++
				continue
			}
		}
		kept = append(kept, line)
		keptSize += int64(len(line)) + 1
	}
	for policy.MaxSize > 0 && keptSize > policy.MaxSize && len(kept) > 0 {
		keptSize -= int64(len(kept[0])) + 1
		kept = kept[1:]
		removed++
	}
	if removed == 0 {
		return 0, nil
	}

	if err := j.file.Close(); err != nil {
		return 0, fmt.Errorf("close for retention: %w", err)
	}
	defer func() {
		f, openErr := openAppend(j.path)
		if openErr != nil && err == nil {
			err = fmt.Errorf("reopen after retention: %w", openErr)
		}
		j.file = f
	}()

	tmpPath := j.path + ".tmp"
	if err := writeLines(tmpPath, kept); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}
	if err := os.Rename(tmpPath, j.path); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("replace journal: %w", err)
	}
	return removed, nil
}

func readLines(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal for reading: %w", err)
	}
	defer f.Close()

	var lines [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLine)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		lines = append(lines, slices.Clone(scanner.Bytes()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	return lines, nil
}

func writeLines(path string, lines [][]byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create temp journal: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, line := range lines {
		w.Write(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write temp journal: %w", err)
	}
	return f.Close()
}

// ReadTail returns the last n events of the journal at path, oldest first,
// keeping only the given types when any are passed. n <= 0 returns all.
// A missing file yields no events. Lines that fail to decode are skipped.
func ReadTail(path string, n int, types ...domain.EventType) ([]domain.Event, error) {
	lines, err := readLines(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var events []domain.Event
	for _, line := range lines {
		var e domain.Event
		if json.Unmarshal(line, &e) != nil || e.Type == "" {
			continue
		}
		if len(types) > 0 && !slices.Contains(types, e.Type) {
			continue
		}
		events = append(events, e)
	}
	if n > 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	return events, nil
}

// ParseSize parses a human-readable size such as "512KB", "10MB" or "1GB".
// The empty string is zero.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1 << 30
		s = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1 << 20
		s = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1 << 10
		s = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSuffix(s, "B")
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("parse size %q: %w", s, domain.ErrInvalidInput)
	}
	return n * multiplier, nil
}
