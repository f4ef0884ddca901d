package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/linkscore/linkscore-api/internal/bootstrap"
	"github.com/linkscore/linkscore-api/internal/domain/model"
)

const (
	defaultStuckMinutes = 10
	defaultQueryMinutes = 5
	maxMinutes          = 7 * 24 * 60
)

type minutesOptions struct {
	Minutes int
	Yes     bool
}

func parseMinutesFlags(name string, def int, args []string) (minutesOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts minutesOptions
	fs.IntVar(&opts.Minutes, "minutes", def, "Age threshold in minutes")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return minutesOptions{}, err
	}
	if opts.Minutes < 1 || opts.Minutes > maxMinutes {
		return minutesOptions{}, fmt.Errorf("--minutes must be between 1 and %d", maxMinutes)
	}
	return opts, nil
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

func runListStuck(cmdCtx *commandContext, args []string) error {
	opts, err := parseMinutesFlags("list-stuck", defaultStuckMinutes, args)
	if err != nil {
		return err
	}
	return withServices(cmdCtx, false, func(ctx context.Context, svc bootstrap.ServiceContainer) error {
		jobs, listErr := svc.Reaper.ListStuck(ctx, minutes(opts.Minutes))
		if listErr != nil {
			return fmt.Errorf("list stuck analyses: %w", listErr)
		}
		return printStuckJobs(cmdCtx.Out, jobs, time.Now())
	})
}

func runCleanupStuck(cmdCtx *commandContext, args []string) error {
	opts, err := parseMinutesFlags("cleanup-stuck", defaultStuckMinutes, args)
	if err != nil {
		return err
	}
	if confirmErr := confirmAction(cmdCtx, confirmOptions{
		Yes:     opts.Yes,
		Warning: fmt.Sprintf("This fails every analysis processing for more than %d minute(s).", opts.Minutes),
	}); confirmErr != nil {
		return confirmErr
	}
	return withServices(cmdCtx, false, func(ctx context.Context, svc bootstrap.ServiceContainer) error {
		n, cleanupErr := svc.Reaper.Cleanup(ctx, minutes(opts.Minutes))
		if cleanupErr != nil {
			return fmt.Errorf("cleanup stuck analyses: %w", cleanupErr)
		}
		return writef(cmdCtx.Out, "Failed %d stuck analysis job(s)\n", n)
	})
}

func runForceCleanup(cmdCtx *commandContext, args []string) error {
	id, err := singleArg("force-cleanup", "analysis id", args)
	if err != nil {
		return err
	}
	return withServices(cmdCtx, false, func(ctx context.Context, svc bootstrap.ServiceContainer) error {
		if cleanupErr := svc.Reaper.ForceCleanup(ctx, id); cleanupErr != nil {
			return fmt.Errorf("force cleanup: %w", cleanupErr)
		}
		return writef(cmdCtx.Out, "Analysis %s marked failed\n", id)
	})
}

func runKillQueries(cmdCtx *commandContext, args []string) error {
	opts, err := parseMinutesFlags("kill-queries", defaultQueryMinutes, args)
	if err != nil {
		return err
	}
	if confirmErr := confirmAction(cmdCtx, confirmOptions{
		Yes:     opts.Yes,
		Warning: fmt.Sprintf("This terminates database queries running longer than %d minute(s).", opts.Minutes),
	}); confirmErr != nil {
		return confirmErr
	}
	return withServices(cmdCtx, false, func(ctx context.Context, svc bootstrap.ServiceContainer) error {
		n, killErr := svc.Reaper.KillLongRunningQueries(ctx, minutes(opts.Minutes))
		if killErr != nil {
			return fmt.Errorf("kill queries: %w", killErr)
		}
		return writef(cmdCtx.Out, "Terminated %d query(ies)\n", n)
	})
}

func runEmergencyReset(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("emergency-reset", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return errors.New("emergency-reset takes no arguments")
	}
	if err := confirmAction(cmdCtx, confirmOptions{
		Yes:     *yes,
		Warning: "This fails EVERY processing analysis regardless of age.",
	}); err != nil {
		return err
	}
	return withServices(cmdCtx, false, func(ctx context.Context, svc bootstrap.ServiceContainer) error {
		n, resetErr := svc.Reaper.EmergencyReset(ctx)
		if resetErr != nil {
			return fmt.Errorf("emergency reset: %w", resetErr)
		}
		return writef(cmdCtx.Out, "Reset %d analysis job(s)\n", n)
	})
}

func printStuckJobs(w io.Writer, jobs []model.StuckAnalysisJob, now time.Time) error {
	if len(jobs) == 0 {
		return writeln(w, "No stuck analyses.")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writeln(tw, "ID\tDOMAIN\tSTEP\tPERCENT\tIDLE"); err != nil {
		return err
	}
	for _, j := range jobs {
		idle := now.Sub(j.UpdatedAt).Truncate(time.Second)
		if err := writef(tw, "%s\t%s\t%s\t%d%%\t%s\n", j.ID, j.Domain, j.Step, j.Percent, idle); err != nil {
			return err
		}
	}
	return tw.Flush()
}
