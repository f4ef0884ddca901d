package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/linkscore/linkscore-api/internal/core"
)

// AnalysisRunner runs a single analysis job to completion.
type AnalysisRunner interface {
	Run(ctx context.Context, jobID string) error
}

// DispatcherOptions groups dependencies for Dispatcher.
type DispatcherOptions struct {
	Runner      AnalysisRunner // Required
	Concurrency int
	Logger      *slog.Logger
}

// Dispatcher runs analyses as background goroutines, at most Concurrency at a time.
// A job id already queued or running is not dispatched twice.
type Dispatcher struct {
	runner AnalysisRunner
	logger *slog.Logger
	sem    chan struct{}

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	inflight map[string]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// NewDispatcher constructs a Dispatcher. Runs are bound to ctx; cancelling it interrupts them.
func NewDispatcher(ctx context.Context, opts DispatcherOptions) (*Dispatcher, error) {
	if opts.Runner == nil {
		return nil, errors.New("AnalysisRunner is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runCtx, cancel := context.WithCancel(ctx)
	return &Dispatcher{
		runner:   opts.Runner,
		logger:   logger.With("component", "dispatcher"),
		sem:      make(chan struct{}, max(opts.Concurrency, 1)),
		ctx:      runCtx,
		cancel:   cancel,
		inflight: make(map[string]struct{}),
	}, nil
}

// Dispatch schedules jobID without blocking. It returns false when the job is already
// in flight or the dispatcher is shut down.
func (d *Dispatcher) Dispatch(jobID string) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	if _, ok := d.inflight[jobID]; ok {
		d.mu.Unlock()
		return false
	}
	d.inflight[jobID] = struct{}{}
	d.wg.Add(1)
	d.mu.Unlock()

	go d.run(jobID)
	return true
}

func (d *Dispatcher) run(jobID string) {
	defer d.wg.Done()
	defer func() {
		d.mu.Lock()
		delete(d.inflight, jobID)
		d.mu.Unlock()
	}()

	select {
	case d.sem <- struct{}{}:
	case <-d.ctx.Done():
		return
	}
	defer func() { <-d.sem }()

	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("analysis run panicked", "analysis_id", jobID, "panic", rec)
		}
	}()

	if err := d.runner.Run(d.ctx, jobID); err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Error("analysis run failed", "analysis_id", jobID, "error", err)
	}
}

// InFlight returns the number of jobs queued or running.
func (d *Dispatcher) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}

// Available returns how many more jobs can start immediately.
func (d *Dispatcher) Available() int {
	return max(cap(d.sem)-d.InFlight(), 0)
}

// Shutdown stops accepting work and waits for running jobs until ctx expires,
// at which point in-flight runs are cancelled.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

// AnalysisWorkerOptions groups dependencies for AnalysisWorker.
type AnalysisWorkerOptions struct {
	Repo         core.AnalysisJobRepository // Required
	Dispatcher   *Dispatcher                // Required
	PollInterval time.Duration
	BatchSize    int
	Logger       *slog.Logger
}

// AnalysisWorker picks up pending jobs: once at start to resume work left behind by a
// restart, then periodically for jobs submitted by processes that do not run analyses.
type AnalysisWorker struct {
	repo       core.AnalysisJobRepository
	dispatcher *Dispatcher
	interval   time.Duration
	batch      int
	logger     *slog.Logger
}

// NewAnalysisWorker constructs an AnalysisWorker.
func NewAnalysisWorker(opts AnalysisWorkerOptions) (*AnalysisWorker, error) {
	if opts.Repo == nil {
		return nil, errors.New("AnalysisJobRepository is required")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &AnalysisWorker{
		repo:       opts.Repo,
		dispatcher: opts.Dispatcher,
		interval:   interval,
		batch:      max(opts.BatchSize, 1),
		logger:     logger.With("component", "analysis_worker"),
	}, nil
}

// ResumePending dispatches up to one batch of pending jobs and returns how many were dispatched.
func (w *AnalysisWorker) ResumePending(ctx context.Context) (int, error) {
	limit := min(w.batch, w.dispatcher.Available())
	if limit == 0 {
		return 0, nil
	}
	ids, err := w.repo.ListPendingIDs(ctx, limit)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if w.dispatcher.Dispatch(id) {
			n++
		}
	}
	return n, nil
}

// Run resumes pending jobs and then polls until ctx is cancelled.
func (w *AnalysisWorker) Run(ctx context.Context) error {
	if n, err := w.ResumePending(ctx); err != nil {
		w.logger.ErrorContext(ctx, "resume pending analyses", "error", err)
	} else if n > 0 {
		w.logger.InfoContext(ctx, "resumed pending analyses", "count", n)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := w.ResumePending(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.ErrorContext(ctx, "poll pending analyses", "error", err)
				continue
			}
			if n > 0 {
				w.logger.DebugContext(ctx, "dispatched pending analyses", "count", n)
			}
		}
	}
}
