package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/linkscore/linkscore-api/internal/bootstrap"
	"github.com/linkscore/linkscore-api/internal/domain/model"
)

type addExclusionOptions struct {
	Domain string
	Reason string
}

func parseAddExclusionFlags(args []string) (addExclusionOptions, error) {
	fs := flag.NewFlagSet("add-exclusion", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts addExclusionOptions
	fs.StringVar(&opts.Domain, "domain", "", "Domain to exclude (required)")
	fs.StringVar(&opts.Reason, "reason", "", "Why the domain is excluded")

	if err := fs.Parse(args); err != nil {
		return addExclusionOptions{}, err
	}
	opts.Domain = strings.TrimSpace(opts.Domain)
	if opts.Domain == "" && fs.NArg() == 1 {
		opts.Domain = strings.TrimSpace(fs.Arg(0))
	}
	if opts.Domain == "" {
		return addExclusionOptions{}, errors.New("--domain is required")
	}
	return opts, nil
}

func runListExclusions(cmdCtx *commandContext, _ []string) error {
	return withServices(cmdCtx, false, func(ctx context.Context, svc bootstrap.ServiceContainer) error {
		domains, err := svc.Exclusions.List(ctx)
		if err != nil {
			return fmt.Errorf("list exclusions: %w", err)
		}
		return printExclusions(cmdCtx.Out, domains)
	})
}

func runAddExclusion(cmdCtx *commandContext, args []string) error {
	opts, err := parseAddExclusionFlags(args)
	if err != nil {
		return err
	}
	return withServices(cmdCtx, false, func(ctx context.Context, svc bootstrap.ServiceContainer) error {
		added, addErr := svc.Exclusions.Add(ctx, model.CreateExcludedDomainRequest{
			Domain: opts.Domain,
			Reason: opts.Reason,
		})
		if addErr != nil {
			return fmt.Errorf("add exclusion: %w", addErr)
		}
		return writef(cmdCtx.Out, "Excluded %s\n", added.Domain)
	})
}

func runRemoveExclusion(cmdCtx *commandContext, args []string) error {
	domain, err := singleArg("remove-exclusion", "domain", args)
	if err != nil {
		return err
	}
	return withServices(cmdCtx, false, func(ctx context.Context, svc bootstrap.ServiceContainer) error {
		removed, removeErr := svc.Exclusions.Remove(ctx, domain)
		if removeErr != nil {
			return fmt.Errorf("remove exclusion: %w", removeErr)
		}
		if !removed {
			return writef(cmdCtx.Out, "%s was not on the exclusion list\n", domain)
		}
		return writef(cmdCtx.Out, "Removed %s\n", domain)
	})
}

func runRefreshExclusions(cmdCtx *commandContext, _ []string) error {
	return withServices(cmdCtx, false, func(ctx context.Context, svc bootstrap.ServiceContainer) error {
		stats, err := svc.Exclusions.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("refresh exclusions: %w", err)
		}
		return printExclusionStats(cmdCtx.Out, stats)
	})
}

func printExclusions(w io.Writer, domains []model.ExcludedDomain) error {
	if len(domains) == 0 {
		return writeln(w, "No excluded domains.")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writeln(tw, "DOMAIN\tADDED\tREASON"); err != nil {
		return err
	}
	for _, d := range domains {
		if err := writef(tw, "%s\t%s\t%s\n", d.Domain, d.CreatedAt.UTC().Format(time.RFC3339), d.Reason); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(w, "\n%d domain(s)\n", len(domains))
}

func printExclusionStats(w io.Writer, stats model.ExclusionListStats) error {
	if err := writef(w, "Entries: %d\n", stats.Entries); err != nil {
		return err
	}
	if stats.Source != "" {
		if err := writef(w, "Source: %s\n", stats.Source); err != nil {
			return err
		}
	}
	if stats.LoadedAt != nil {
		if err := writef(w, "Loaded at: %s\n", stats.LoadedAt.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	if stats.LastError != "" {
		return writef(w, "Last error: %s\n", stats.LastError)
	}
	return nil
}
