package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"mvi-users/internal/adapter/journal"
	"mvi-users/internal/adapter/tui/components"
	"mvi-users/internal/domain"
	"mvi-users/internal/infra/config"
	"mvi-users/internal/infra/logger"
	"mvi-users/pkg/flow"
)

// cliFlags holds the flags of the headless commands.
type cliFlags struct {
	JSON      bool
	Email     string
	FirstName string
	LastName  string
	Gender    string
	Limit     int
	Args      []string
}

func parseFlags(args []string) cliFlags {
	var flags cliFlags
	value := func(i *int, name string) (string, bool) {
		arg := args[*i]
		if arg == "--"+name && *i+1 < len(args) {
			*i++
			return args[*i], true
		}
		if v, ok := strings.CutPrefix(arg, "--"+name+"="); ok {
			return v, true
		}
		return "", false
	}
	for i := 0; i < len(args); i++ {
		if args[i] == "--json" {
			flags.JSON = true
			continue
		}
		if _, ok := value(&i, "config"); ok {
			continue
		}
		if v, ok := value(&i, "email"); ok {
			flags.Email = v
			continue
		}
		if v, ok := value(&i, "first"); ok {
			flags.FirstName = v
			continue
		}
		if v, ok := value(&i, "last"); ok {
			flags.LastName = v
			continue
		}
		if v, ok := value(&i, "gender"); ok {
			flags.Gender = v
			continue
		}
		if v, ok := value(&i, "limit"); ok {
			flags.Limit, _ = strconv.Atoi(v)
			continue
		}
		flags.Args = append(flags.Args, args[i])
	}
	return flags
}

// withApp loads the config, wires the core and runs fn with a context that is
// cancelled on SIGINT or SIGTERM.
func withApp(fn func(ctx context.Context, a *application) error) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// loadUsers takes the first emission of the user list.
func loadUsers(ctx context.Context, a *application) ([]domain.User, error) {
	result, err := flow.First(ctx, a.users.GetUsers())
	if err != nil {
		return nil, err
	}
	if ue, failed := result.LeftValue(); failed {
		return nil, ue
	}
	users, _ := result.RightValue()
	return users, nil
}

func runList(args []string) error {
	flags := parseFlags(args)
	return withApp(func(ctx context.Context, a *application) error {
		users, err := loadUsers(ctx, a)
		if err != nil {
			return err
		}
		return printUsers(os.Stdout, users, flags.JSON)
	})
}

func runSearch(args []string) error {
	flags := parseFlags(args)
	query := strings.Join(flags.Args, " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("usage: mvi-users search QUERY")
	}
	return withApp(func(ctx context.Context, a *application) error {
		users, err := a.users.Search(ctx, query)
		if err != nil {
			return err
		}
		return printUsers(os.Stdout, users, flags.JSON)
	})
}

func runAdd(args []string) error {
	flags := parseFlags(args)
	gender := domain.GenderMale
	if flags.Gender != "" {
		g, err := domain.ParseGender(flags.Gender)
		if err != nil {
			return err
		}
		gender = g
	}

	validated := domain.NewUser(flags.Email, flags.FirstName, flags.LastName, gender)
	if errs, invalid := validated.LeftValue(); invalid {
		return domain.NewValidationFailedError(errs)
	}
	user, _ := validated.RightValue()

	return withApp(func(ctx context.Context, a *application) error {
		created, err := a.users.Create(ctx, user)
		if err != nil {
			return err
		}
		if flags.JSON {
			return writeJSON(os.Stdout, created)
		}
		fmt.Printf("Added %s <%s> (id %s)\n", created.FullName(), created.Email, created.ID)
		return nil
	})
}

func runRemove(args []string) error {
	flags := parseFlags(args)
	if len(flags.Args) != 1 {
		return errors.New("usage: mvi-users remove ID")
	}
	id := flags.Args[0]
	return withApp(func(ctx context.Context, a *application) error {
		users, err := loadUsers(ctx, a)
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.ID != id {
				continue
			}
			if err := a.users.Remove(ctx, u); err != nil {
				return err
			}
			fmt.Printf("Removed %s <%s>\n", u.FullName(), u.Email)
			return nil
		}
		return domain.NewUserNotFoundError(id)
	})
}

// defaultHistoryLimit is the number of journal entries shown without --limit.
const defaultHistoryLimit = 20

func runHistory(args []string) error {
	flags := parseFlags(args)
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.Journal.Enabled {
		return errors.New("the journal is disabled (journal.enabled: false)")
	}
	limit := flags.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}

	var types []domain.EventType
	for _, arg := range flags.Args {
		types = append(types, domain.EventType(arg))
	}
	events, err := journal.ReadTail(cfg.Journal.Path, limit, types...)
	if err != nil {
		return err
	}
	return printEvents(os.Stdout, events, flags.JSON)
}

func printEvents(w io.Writer, events []domain.Event, asJSON bool) error {
	if asJSON {
		if events == nil {
			events = []domain.Event{}
		}
		return writeJSON(w, events)
	}
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No recorded activity.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tEVENT\tDETAIL")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Timestamp.Local().Format(time.DateTime), e.Type, components.Summarize(e))
	}
	return tw.Flush()
}

func printUsers(w io.Writer, users []domain.User, asJSON bool) error {
	if asJSON {
		if users == nil {
			users = []domain.User{}
		}
		return writeJSON(w, users)
	}
	if len(users) == 0 {
		_, err := fmt.Fprintln(w, "No users.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tGENDER")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.FullName(), u.Email, u.Gender)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
