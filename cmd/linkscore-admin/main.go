package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/linkscore/linkscore-api/config"
	"github.com/linkscore/linkscore-api/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
	In     io.Reader
}

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultCommandTimeout   = 2 * time.Minute
)

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
		Out:    os.Stdout,
		In:     os.Stdin,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrations,
		},
		"replay-notification": {
			name:        "replay-notification",
			description: "Re-send the completion notification for a completed analysis",
			run:         runReplayNotification,
		},
		"list-exclusions": {
			name:        "list-exclusions",
			description: "List excluded domains",
			run:         runListExclusions,
		},
		"add-exclusion": {
			name:        "add-exclusion",
			description: "Add a domain to the exclusion list",
			run:         runAddExclusion,
		},
		"remove-exclusion": {
			name:        "remove-exclusion",
			description: "Remove a domain from the exclusion list",
			run:         runRemoveExclusion,
		},
		"refresh-exclusions": {
			name:        "refresh-exclusions",
			description: "Reload the exclusion list and republish the shared snapshot",
			run:         runRefreshExclusions,
		},
		"list-stuck": {
			name:        "list-stuck",
			description: "List analyses stuck in processing",
			run:         runListStuck,
		},
		"cleanup-stuck": {
			name:        "cleanup-stuck",
			description: "Fail analyses stuck in processing longer than --minutes",
			run:         runCleanupStuck,
		},
		"force-cleanup": {
			name:        "force-cleanup",
			description: "Fail a single analysis by id",
			run:         runForceCleanup,
		},
		"kill-queries": {
			name:        "kill-queries",
			description: "Terminate database queries running longer than --minutes",
			run:         runKillQueries,
		},
		"emergency-reset": {
			name:        "emergency-reset",
			description: "Fail every processing analysis and terminate long-running queries",
			run:         runEmergencyReset,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: linkscore-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	names := make([]string, 0, len(commands()))
	for name := range commands() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands()[name]
		if err := writef(w, "  %-22s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

type migrateOptions struct {
	Timeout time.Duration
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{}
	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultMigrationTimeout,
		"Maximum duration to wait for migrations to complete",
	)

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	cmdCtx.Logger.Info("running database migrations")
	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}
	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

// withServices connects infrastructure, builds the service container and runs f with a
// signal-aware context. withPipeline also builds the analysis pipeline.
func withServices(
	cmdCtx *commandContext,
	withPipeline bool,
	f func(context.Context, bootstrap.ServiceContainer) error,
) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, defaultCommandTimeout)
	defer cancel()

	cfg := cmdCtx.Config
	cfg.Services = string(config.ServiceModeHTTP)
	if withPipeline {
		cfg.Services += "," + string(config.ServiceModeAnalysisWorker)
	}

	db, redisClient, err := connectInfra(cmdCtx.Logger, &cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeInfra(db, redisClient); closeErr != nil {
			cmdCtx.Logger.Warn("close infrastructure failed", "error", closeErr)
		}
	}()

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          db,
		RedisClient: redisClient,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}
	if services.Dispatcher != nil {
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if shutdownErr := services.Dispatcher.Shutdown(shutdownCtx); shutdownErr != nil {
				cmdCtx.Logger.Warn("dispatcher shutdown failed", "error", shutdownErr)
			}
		}()
	}

	return f(ctx, services)
}

func runReplayNotification(cmdCtx *commandContext, args []string) error {
	id, err := singleArg("replay-notification", "analysis id", args)
	if err != nil {
		return err
	}
	return withServices(cmdCtx, true, func(ctx context.Context, svc bootstrap.ServiceContainer) error {
		if replayErr := svc.Orchestrator.ReplayNotification(ctx, id); replayErr != nil {
			return fmt.Errorf("replay notification: %w", replayErr)
		}
		return writef(cmdCtx.Out, "Completion notification re-sent for %s\n", id)
	})
}

func singleArg(cmd, what string, args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("usage: linkscore-admin %s <%s>", cmd, what)
	}
	return strings.TrimSpace(args[0]), nil
}

type confirmOptions struct {
	Yes     bool
	Warning string
}

func confirmAction(cmdCtx *commandContext, opts confirmOptions) error {
	if opts.Yes {
		return nil
	}
	if err := writeln(cmdCtx.Out, opts.Warning); err != nil {
		return fmt.Errorf("print confirmation warning: %w", err)
	}
	if err := write(cmdCtx.Out, "Continue? [y/N]: "); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	reader := bufio.NewReader(cmdCtx.In)
	resp, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("aborted by user: %w", err)
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp == "y" || resp == "yes" {
		return nil
	}
	return errors.New("aborted by user")
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func write(w io.Writer, args ...any) error {
	_, err := fmt.Fprint(w, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	_, err := fmt.Fprintln(w, args...)
	return err
}
