package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mvi-users/internal/adapter/journal"
	"mvi-users/internal/adapter/tui/app"
	"mvi-users/internal/adapter/tui/uxerror"
	"mvi-users/internal/domain"
	"mvi-users/internal/infra/config"
	"mvi-users/internal/infra/logger"
	"mvi-users/internal/infra/tracer"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		}
	}

	if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = runList(os.Args[2:])
	case "search":
		err = runSearch(os.Args[2:])
	case "add":
		err = runAdd(os.Args[2:])
	case "remove":
		err = runRemove(os.Args[2:])
	case "history":
		err = runHistory(os.Args[2:])
	case "doctor":
		err = runDoctor()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'mvi-users --help' for usage information.\n", os.Args[1])
		os.Exit(1)
	}
	if err != nil {
		var ue *domain.UserError
		if errors.As(err, &ue) {
			fmt.Fprintln(os.Stderr, uxerror.Humanize(err).Render())
		} else {
			fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		}
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`mvi-users - Browse, add and search users from the terminal

USAGE:
    mvi-users [COMMAND] [FLAGS]

COMMANDS:
    list                 Print all users
    search QUERY         Print users matching QUERY
    add                  Add a user
                         Flags: --email, --first, --last, --gender
    remove ID            Remove the user with the given ID
    history [TYPE...]    Print recorded activity, optionally only of TYPE
                         (user.added, user.removed, users.refreshed, ...)
                         Flags: --limit N (default 20)
    doctor               Run health checks on your setup

    (no command) - Launch the interactive UI

FLAGS:
    -h, --help         Show this help message
    --config PATH      Specify config file path (default: ~/.mvi-users/config.yaml)
    --json             Print results as JSON

CONFIGURATION:
    Config file: ~/.mvi-users/config.yaml
    Environment: MVIUSERS_* variables override config

EXAMPLES:
    mvi-users                                  # Interactive UI
    mvi-users list --json                      # Dump users as JSON
    mvi-users search ada                       # Find users by name or email
    mvi-users add --email ada@example.com --first Ada --last Lovelace --gender f
    mvi-users history user.added --limit 5     # Last five additions
    mvi-users doctor                           # Check system health`)
}

// configPath resolves the config file from --config, MVIUSERS_CONFIG or the
// data directory, in that order.
func configPath() string {
	for i, arg := range os.Args {
		if arg == "--config" && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	if p := os.Getenv("MVIUSERS_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(config.DefaultDataDir(), "config.yaml")
}

// historySize is how many journal entries seed the Activity tab.
const historySize = 200

// interactiveLogConfig keeps log lines off the terminal while the UI owns it.
func interactiveLogConfig(cfg config.LoggerConfig) config.LoggerConfig {
	switch cfg.Output {
	case "", "stdout", "stderr":
		cfg.Output = filepath.Join(config.DefaultDataDir(), "mvi-users.log")
	}
	return cfg
}

func run() error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, closeLog, err := logger.New(interactiveLogConfig(cfg.Logger))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := startScheduler(ctx, cfg.Refresh, a.users, log)
	if err != nil {
		return err
	}
	if sched != nil {
		defer sched.Stop()
	}

	var history []domain.Event
	if a.journal != nil {
		history, err = journal.ReadTail(a.journal.Path(), historySize)
		if err != nil {
			log.Warn("read journal failed", "error", err)
		}
	}

	model := app.New(ctx, app.Deps{
		Users:    a.users,
		Bus:      a.bus,
		History:  history,
		Debounce: cfg.Search.Debounce,
		Source:   a.source,
		Logger:   log,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.SetProgramSender(func(msg tea.Msg) {
		p.Send(msg)
	})

	log.Info("ui started", "source", a.source)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}
