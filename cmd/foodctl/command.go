package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/pageza/homefoods/backend/config"
	"github.com/pageza/homefoods/backend/internal/database"
	"github.com/pageza/homefoods/backend/internal/service"
	"github.com/pageza/homefoods/backend/internal/store"
)

// Command is one foodctl subcommand.
type Command struct {
	Flags *flag.FlagSet
	// Usage starts with the command name, e.g. "import FILE".
	Usage string
	Short string
	Exec  func(ctx context.Context, e *env, args []string) error
}

func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

func (c *Command) printHelp(w io.Writer) {
	fmt.Fprintf(w, "Usage: foodctl %s\n\n%s\n", c.Usage, c.Short)
	if c.Flags.HasFlags() {
		fmt.Fprint(w, "\nFlags:\n", c.Flags.FlagUsages())
	}
}

// env is what a command runs against. The store is opened on first use.
type env struct {
	out, errOut io.Writer
	cfg         *config.Config
	logger      *slog.Logger

	store store.Store
	foods *service.FoodService
}

// open connects to the configured store, migrating it when migrate is set.
func (e *env) open(ctx context.Context, migrate bool) (*service.FoodService, error) {
	if e.foods == nil {
		st, err := database.Open(ctx, e.cfg, e.logger)
		if err != nil {
			return nil, err
		}
		e.store = st
		e.foods = service.NewFoodService(st, nil, e.logger)
	}
	if migrate {
		if err := e.store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate store: %w", err)
		}
	}
	return e.foods, nil
}

func (e *env) close(ctx context.Context) {
	if e.store != nil {
		if err := e.store.Close(ctx); err != nil {
			e.logger.Warn("failed to close store", "error", err)
		}
	}
}

func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func commands() []*Command {
	return []*Command{
		migrateCmd(),
		walkthroughCmd(),
		listCmd(),
		importCmd(),
		exportCmd(),
		tokenCmd(),
	}
}

func printUsage(w io.Writer, cmds []*Command) {
	fmt.Fprintln(w, "Usage: foodctl <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range cmds {
		fmt.Fprintf(w, "  %-26s %s\n", c.Usage, c.Short)
	}
}

// run executes the command named by args[0] and returns the exit code.
func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	cmds := commands()
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(out, cmds)
		return 0
	}

	var cmd *Command
	for _, c := range cmds {
		if c.Name() == args[0] {
			cmd = c
		}
	}
	if cmd == nil {
		fmt.Fprintf(errOut, "error: unknown command %q\n\n", args[0])
		printUsage(errOut, cmds)
		return 1
	}

	cmd.Flags.SetOutput(io.Discard)
	if err := cmd.Flags.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			cmd.printHelp(out)
			return 0
		}
		fmt.Fprintln(errOut, "error:", err)
		fmt.Fprintln(errOut)
		cmd.printHelp(errOut)
		return 1
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	e := &env{out: out, errOut: errOut, cfg: cfg, logger: config.NewLogger(cfg, errOut)}
	defer e.close(context.WithoutCancel(ctx))

	if err := cmd.Exec(ctx, e, cmd.Flags.Args()); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}
