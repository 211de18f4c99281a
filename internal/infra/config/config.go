package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Logger     LoggerConfig     `yaml:"logger"`
	Tracer     TracerConfig     `yaml:"tracer"`
	DataSource DataSourceConfig `yaml:"datasource"`
	Retry      RetryConfig      `yaml:"retry"`
	Search     SearchConfig     `yaml:"search"`
	Refresh    RefreshConfig    `yaml:"refresh"`
	Journal    JournalConfig    `yaml:"journal"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Output is stdout, stderr, discard or a file path.
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // noop, stdout or file
	Output   string `yaml:"output"`   // file path for the file exporter
}

// DataSourceConfig selects and tunes the system of record.
type DataSourceConfig struct {
	Driver string `yaml:"driver"` // memory or sqlite
	Path   string `yaml:"path"`   // sqlite database file
	// Seed fills an empty store with sample users.
	Seed bool `yaml:"seed"`
	// Latency and FailureRate simulate a remote service (memory driver only).
	Latency     time.Duration   `yaml:"latency"`
	FailureRate float64         `yaml:"failure_rate"`
	Breaker     BreakerConfig   `yaml:"breaker"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
}

// BreakerConfig configures the circuit breaker in front of the data source.
type BreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// RateLimitConfig configures client-side throttling of data source calls.
type RateLimitConfig struct {
	Enabled   bool    `yaml:"enabled"`
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// RetryConfig is the backoff policy of the initial user fetch.
type RetryConfig struct {
	Attempts     int           `yaml:"attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	Factor       float64       `yaml:"factor"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// SearchConfig tunes the search screen.
type SearchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// RefreshConfig schedules automatic refreshes of the user list.
type RefreshConfig struct {
	// Schedule is a cron expression or a duration such as "5m". Empty
	// disables auto-refresh.
	Schedule string `yaml:"schedule"`
}

// JournalConfig controls the on-disk record of domain events.
type JournalConfig struct {
	Enabled bool          `yaml:"enabled"`
	Path    string        `yaml:"path"`
	MaxAge  time.Duration `yaml:"max_age"`  // 0 keeps entries forever
	MaxSize string        `yaml:"max_size"` // e.g. "10MB"; empty means no limit
}

// DefaultDataDir returns the data directory under $HOME/.mvi-users.
// Falls back to "./data" if $HOME cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".mvi-users")
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
		DataSource: DataSourceConfig{
			Driver:  "memory",
			Path:    filepath.Join(DefaultDataDir(), "users.db"),
			Seed:    true,
			Latency: 300 * time.Millisecond,
			Breaker: BreakerConfig{
				Enabled:     true,
				MaxFailures: 5,
				Timeout:     30 * time.Second,
				Interval:    60 * time.Second,
			},
			RateLimit: RateLimitConfig{
				Enabled:   false,
				PerSecond: 10,
				Burst:     5,
			},
		},
		Retry: RetryConfig{
			Attempts:     3,
			InitialDelay: 500 * time.Millisecond,
			Factor:       2,
			MaxDelay:     2 * time.Second,
		},
		Search: SearchConfig{
			Debounce: 300 * time.Millisecond,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    filepath.Join(DefaultDataDir(), "journal.jsonl"),
			MaxAge:  30 * 24 * time.Hour,
			MaxSize: "10MB",
		},
	}
}

// Load reads a YAML config file and applies env var overrides. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := validatePermissions(path); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps MVIUSERS_* env vars to config fields. Values that do
// not parse are ignored.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MVIUSERS_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("MVIUSERS_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("MVIUSERS_LOGGER_OUTPUT"); v != "" {
		cfg.Logger.Output = v
	}
	if v := os.Getenv("MVIUSERS_TRACER_ENABLED"); v != "" {
		cfg.Tracer.Enabled = v == "true"
	}
	if v := os.Getenv("MVIUSERS_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("MVIUSERS_TRACER_OUTPUT"); v != "" {
		cfg.Tracer.Output = v
	}
	if v := os.Getenv("MVIUSERS_DATASOURCE_DRIVER"); v != "" {
		cfg.DataSource.Driver = v
	}
	if v := os.Getenv("MVIUSERS_DATASOURCE_PATH"); v != "" {
		cfg.DataSource.Path = v
	}
	if v := os.Getenv("MVIUSERS_DATASOURCE_SEED"); v != "" {
		cfg.DataSource.Seed = v == "true"
	}
	envDuration("MVIUSERS_DATASOURCE_LATENCY", &cfg.DataSource.Latency)
	if v := os.Getenv("MVIUSERS_DATASOURCE_FAILURE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.DataSource.FailureRate = f
		}
	}
	if v := os.Getenv("MVIUSERS_DATASOURCE_BREAKER_ENABLED"); v != "" {
		cfg.DataSource.Breaker.Enabled = v == "true"
	}
	if v := os.Getenv("MVIUSERS_DATASOURCE_RATE_LIMIT_ENABLED"); v != "" {
		cfg.DataSource.RateLimit.Enabled = v == "true"
	}
	if v := os.Getenv("MVIUSERS_RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retry.Attempts = n
		}
	}
	envDuration("MVIUSERS_RETRY_INITIAL_DELAY", &cfg.Retry.InitialDelay)
	envDuration("MVIUSERS_SEARCH_DEBOUNCE", &cfg.Search.Debounce)
	if v, ok := os.LookupEnv("MVIUSERS_REFRESH_SCHEDULE"); ok {
		cfg.Refresh.Schedule = strings.TrimSpace(v)
	}
	if v := os.Getenv("MVIUSERS_JOURNAL_ENABLED"); v != "" {
		cfg.Journal.Enabled = v == "true"
	}
	if v := os.Getenv("MVIUSERS_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
}

func envDuration(key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

// validatePermissions rejects config files writable by group or others.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	if mode&0o022 != 0 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
