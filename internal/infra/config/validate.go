package config

import (
	"fmt"
	"strings"

	"mvi-users/internal/usecase/scheduling"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	validateDataSource(cfg, ve)
	validateRetry(cfg, ve)
	validateSearch(cfg, ve)
	validateRefresh(cfg, ve)
	validateJournal(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateLogger(cfg *Config, ve *ValidationError) {
	switch strings.ToLower(cfg.Logger.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		ve.Add("logger.level %q is invalid (valid: debug, info, warn, error)", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "text", "json":
	default:
		ve.Add("logger.format %q is invalid (valid: text, json)", cfg.Logger.Format)
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !cfg.Tracer.Enabled {
		return
	}
	switch cfg.Tracer.Exporter {
	case "noop", "", "stdout":
	case "file":
		if cfg.Tracer.Output == "" {
			ve.Add("tracer.output is required for the file exporter")
		}
	default:
		ve.Add("tracer.exporter %q is invalid (valid: noop, stdout, file)", cfg.Tracer.Exporter)
	}
}

func validateDataSource(cfg *Config, ve *ValidationError) {
	ds := cfg.DataSource
	switch ds.Driver {
	case "memory":
	case "sqlite":
		if ds.Path == "" {
			ve.Add("datasource.path is required for the sqlite driver")
		}
	default:
		ve.Add("datasource.driver %q is invalid (valid: memory, sqlite)", ds.Driver)
	}
	if ds.Latency < 0 {
		ve.Add("datasource.latency must be >= 0")
	}
	if ds.FailureRate < 0 || ds.FailureRate > 1 {
		ve.Add("datasource.failure_rate must be between 0 and 1")
	}
	if ds.Breaker.Enabled {
		if ds.Breaker.MaxFailures == 0 {
			ve.Add("datasource.breaker.max_failures must be > 0")
		}
		if ds.Breaker.Timeout <= 0 {
			ve.Add("datasource.breaker.timeout must be > 0")
		}
	}
	if ds.RateLimit.Enabled {
		if ds.RateLimit.PerSecond <= 0 {
			ve.Add("datasource.rate_limit.per_second must be > 0")
		}
		if ds.RateLimit.Burst < 1 {
			ve.Add("datasource.rate_limit.burst must be >= 1")
		}
	}
}

func validateRetry(cfg *Config, ve *ValidationError) {
	r := cfg.Retry
	if r.Attempts < 1 {
		ve.Add("retry.attempts must be >= 1")
	}
	if r.InitialDelay <= 0 {
		ve.Add("retry.initial_delay must be > 0")
	}
	if r.Factor < 1 {
		ve.Add("retry.factor must be >= 1")
	}
	if r.MaxDelay != 0 && r.MaxDelay < r.InitialDelay {
		ve.Add("retry.max_delay must be 0 or >= retry.initial_delay")
	}
}

func validateSearch(cfg *Config, ve *ValidationError) {
	if cfg.Search.Debounce <= 0 {
		ve.Add("search.debounce must be > 0")
	}
}

func validateRefresh(cfg *Config, ve *ValidationError) {
	s := cfg.Refresh.Schedule
	if s == "" {
		return
	}
	if _, err := scheduling.ParseSchedule(s); err != nil {
		ve.Add("refresh.schedule: %v", err)
	}
}

func validateJournal(cfg *Config, ve *ValidationError) {
	j := cfg.Journal
	if !j.Enabled {
		return
	}
	if j.Path == "" {
		ve.Add("journal.path is required when the journal is enabled")
	}
	if j.MaxAge < 0 {
		ve.Add("journal.max_age must be >= 0")
	}
}
