// Package reaper runs the stuck-job reaper on a cron schedule.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linkscore/linkscore-api/config"
	"github.com/robfig/cron/v3"
)

// Sweeper performs one scheduled reaper pass.
type Sweeper interface {
	RunScheduled(ctx context.Context) error
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Reaper Sweeper // Required
	Config config.ReaperConfig
	Logger *slog.Logger

	// RunOnStart triggers a sweep immediately instead of waiting for the first tick.
	RunOnStart bool
}

// Runner schedules reaper sweeps with robfig/cron. Overlapping runs are skipped.
type Runner struct {
	reaper     Sweeper
	schedule   cron.Schedule
	spec       string
	runOnStart bool
	logger     *slog.Logger
}

// NewRunner creates a new reaper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Reaper == nil {
		return nil, errors.New("reaper is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	schedule, err := cron.ParseStandard(opts.Config.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse reaper schedule %q: %w", opts.Config.Schedule, err)
	}
	return &Runner{
		reaper:     opts.Reaper,
		schedule:   schedule,
		spec:       opts.Config.Schedule,
		runOnStart: opts.RunOnStart,
		logger:     logger.With("component", "reaper_runner"),
	}, nil
}

// Run starts the schedule and blocks until ctx is cancelled, then waits for a running sweep to finish.
func (r *Runner) Run(ctx context.Context) error {
	cronLogger := slogCronLogger{logger: r.logger}
	job := cron.NewChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	).Then(cron.FuncJob(func() { r.sweep(ctx) }))

	c := cron.New()
	c.Schedule(r.schedule, job)

	r.logger.InfoContext(ctx, "starting reaper runner", "schedule", r.spec, "next", r.Next(time.Now()))
	c.Start()
	if r.runOnStart {
		job.Run()
	}

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	r.logger.InfoContext(ctx, "reaper runner stopped")
	return nil
}

// Next returns the next scheduled run after t.
func (r *Runner) Next(t time.Time) time.Time {
	return r.schedule.Next(t)
}

func (r *Runner) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := r.reaper.RunScheduled(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			r.logger.Debug("reaper sweep cancelled", "error", err)
			return
		}
		r.logger.Error("reaper sweep failed", "error", err, "duration", time.Since(start))
		return
	}
	r.logger.Debug("reaper sweep finished", "duration", time.Since(start))
}

// slogCronLogger adapts slog to cron.Logger.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
