package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mvi-users/internal/infra/config"
	"mvi-users/internal/usecase/scheduling"
)

// CheckStatus represents the result of a health check.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

// CheckResult holds the outcome of a single health check.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // optional fix suggestion
}

// Check is a named health check function.
type Check struct {
	Name string
	Fn   func(cfg *config.Config) CheckResult
}

// probeTimeout bounds the data source round trip.
const probeTimeout = 10 * time.Second

func runDoctor() error {
	cfgPath := configPath()
	cfg, cfgErr := config.Load(cfgPath)

	checks := []Check{
		{Name: "Config file", Fn: checkConfigFile(cfgPath, cfgErr)},
		{Name: "Data directory", Fn: checkDataDir},
		{Name: "Data source", Fn: checkDataSource},
		{Name: "Retry policy", Fn: checkRetry},
		{Name: "Auto-refresh", Fn: checkRefresh},
		{Name: "Tracing", Fn: checkTracer},
	}

	fmt.Println("mvi-users doctor")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()

	results := runChecks(cfg, checks)
	var pass, warn, fail int
	for _, result := range results {
		fmt.Printf("  %s %s: %s\n", statusIcon(result.Status), result.Name, result.Message)
		if result.Fix != "" {
			fmt.Printf("      Fix: %s\n", result.Fix)
		}
		switch result.Status {
		case StatusPass:
			pass++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("Results: %d passed, %d warnings, %d failed\n", pass, warn, fail)

	if fail > 0 {
		fmt.Println("\nFix the FAIL issues above to ensure mvi-users runs correctly.")
		return fmt.Errorf("%d check(s) failed", fail)
	}
	if warn > 0 {
		fmt.Println("\nmvi-users should work, but consider addressing the warnings.")
	} else {
		fmt.Println("\nAll checks passed! mvi-users is ready to run.")
	}
	return nil
}

func runChecks(cfg *config.Config, checks []Check) []CheckResult {
	results := make([]CheckResult, 0, len(checks))
	for _, check := range checks {
		result := check.Fn(cfg)
		result.Name = check.Name
		results = append(results, result)
	}
	return results
}

func statusIcon(s CheckStatus) string {
	switch s {
	case StatusPass:
		return "[PASS]"
	case StatusWarn:
		return "[WARN]"
	case StatusFail:
		return "[FAIL]"
	default:
		return "[????]"
	}
}

func notLoaded() CheckResult {
	return CheckResult{Status: StatusFail, Message: "cannot check: config not loaded"}
}

// checkConfigFile accepts a missing file, since the defaults are usable.
func checkConfigFile(cfgPath string, cfgErr error) func(*config.Config) CheckResult {
	return func(_ *config.Config) CheckResult {
		if cfgErr != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("config error: %v", cfgErr),
				Fix:     fmt.Sprintf("Check the syntax and permissions (0600) of %s", cfgPath),
			}
		}
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			return CheckResult{
				Status:  StatusWarn,
				Message: fmt.Sprintf("no config at %s, using defaults", cfgPath),
				Fix:     fmt.Sprintf("Create %s to customize the data source and logging", cfgPath),
			}
		}
		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("config loaded from %s", cfgPath),
		}
	}
}

func checkDataDir(cfg *config.Config) CheckResult {
	if cfg == nil {
		return notLoaded()
	}
	if cfg.DataSource.Driver != "sqlite" {
		return CheckResult{Status: StatusPass, Message: "memory driver needs no data directory"}
	}

	dir, _ := filepath.Abs(filepath.Dir(cfg.DataSource.Path))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("data directory %s cannot be created: %v", dir, err),
			Fix:     "Set datasource.path to a writable location",
		}
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("data directory %s is not writable: %v", dir, err),
			Fix:     fmt.Sprintf("chmod 700 %s", dir),
		}
	}
	probe.Close()
	os.Remove(probe.Name())
	return CheckResult{Status: StatusPass, Message: fmt.Sprintf("data directory %s is writable", dir)}
}

// checkDataSource opens the configured data source and lists the users once.
func checkDataSource(cfg *config.Config) CheckResult {
	if cfg == nil {
		return notLoaded()
	}
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	source, name, closeSource, err := buildDataSource(ctx, cfg.DataSource, quiet)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: err.Error(),
			Fix:     "Check datasource.driver and datasource.path",
		}
	}
	if closeSource != nil {
		defer closeSource()
	}

	start := time.Now()
	users, err := source.List(ctx)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("%s: list users failed: %v", name, err),
			Fix:     "Lower datasource.failure_rate or check the database file",
		}
	}
	result := CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s returned %d users in %s", name, len(users), time.Since(start).Round(time.Millisecond)),
	}
	if len(users) == 0 && !cfg.DataSource.Seed {
		result.Status = StatusWarn
		result.Fix = "Set datasource.seed: true to start with sample users"
	}
	return result
}

func checkRetry(cfg *config.Config) CheckResult {
	if cfg == nil {
		return notLoaded()
	}
	r := cfg.Retry
	if r.Attempts <= 1 {
		return CheckResult{
			Status:  StatusWarn,
			Message: "initial fetch is not retried",
			Fix:     "Set retry.attempts to 3 or more",
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%d attempts, %s initial delay, x%g", r.Attempts, r.InitialDelay, r.Factor),
	}
}

func checkRefresh(cfg *config.Config) CheckResult {
	if cfg == nil {
		return notLoaded()
	}
	if cfg.Refresh.Schedule == "" {
		return CheckResult{Status: StatusPass, Message: "disabled"}
	}
	sched, err := scheduling.ParseSchedule(cfg.Refresh.Schedule)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: err.Error(),
			Fix:     `Use a cron expression ("*/5 * * * *") or a duration ("5m")`,
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("next refresh at %s", sched.Next(time.Now()).Format(time.Kitchen)),
	}
}

func checkTracer(cfg *config.Config) CheckResult {
	if cfg == nil {
		return notLoaded()
	}
	t := cfg.Tracer
	if !t.Enabled || t.Exporter == "noop" {
		return CheckResult{Status: StatusPass, Message: "disabled"}
	}
	if t.Exporter == "stdout" {
		return CheckResult{
			Status:  StatusWarn,
			Message: "stdout exporter interferes with the interactive UI",
			Fix:     "Use tracer.exporter: file with tracer.output set",
		}
	}
	dir := filepath.Dir(t.Output)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return CheckResult{
			Status:  StatusWarn,
			Message: fmt.Sprintf("trace directory %s does not exist yet", dir),
		}
	}
	return CheckResult{Status: StatusPass, Message: fmt.Sprintf("writing spans to %s", t.Output)}
}
