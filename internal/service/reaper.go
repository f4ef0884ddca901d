package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linkscore/linkscore-api/config"
	"github.com/linkscore/linkscore-api/internal/core"
	"github.com/linkscore/linkscore-api/internal/domain/model"
	apperrors "github.com/linkscore/linkscore-api/internal/errors"
	obserrors "github.com/linkscore/linkscore-api/internal/observability/errors"
	"github.com/linkscore/linkscore-api/internal/observability/metrics"
	"github.com/linkscore/linkscore-api/internal/observability/statsd"
)

const (
	emergencyResetMessage = "Cancelled by emergency reset"
	forceCleanupMessage   = "Force cleaned up by administrator"
)

// Reaper actions used for metric tags.
const (
	reaperActionStuck     = "fail_stuck"
	reaperActionPending   = "fail_pending"
	reaperActionKill      = "kill_queries"
	reaperActionEmergency = "emergency_reset"
	reaperActionForce     = "force_cleanup"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Repo    core.AnalysisReaperRepository // Required: analysis job cleanup
	Admin   core.DatabaseAdminRepository  // Optional: enables query termination
	Config  config.ReaperConfig
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// ReaperService recovers analysis jobs abandoned by crashed or hung workers.
//
// Scheduled runs fail processing jobs without a recent heartbeat, fail pending jobs
// that were never picked up, and optionally terminate long-running queries.
// The remaining operations are invoked by administrators.
type ReaperService struct {
	repo    core.AnalysisReaperRepository
	admin   core.DatabaseAdminRepository
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("AnalysisReaperRepository is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "reaper_service")
	logger.Debug("ReaperService initialized",
		"schedule", opts.Config.Schedule,
		"stuck_after", opts.Config.StuckAfter,
		"pending_max_age", opts.Config.PendingMaxAge,
		"query_max_age", opts.Config.QueryMaxAge,
	)

	return &ReaperService{
		repo:    opts.Repo,
		admin:   opts.Admin,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Cleanup fails processing jobs whose heartbeat is older than age and returns how many were failed.
func (s *ReaperService) Cleanup(ctx context.Context, age time.Duration) (int64, error) {
	if err := validateAge(age); err != nil {
		return 0, err
	}
	msg := fmt.Sprintf("Analysis timed out after %d minutes without progress", int(age.Minutes()))
	n, err := s.repo.FailStuckProcessing(ctx, age, msg)
	metrics.EmitReaper(s.metrics, reaperActionStuck, n, suppressContextCancellation(err))
	if err != nil {
		return 0, fmt.Errorf("fail stuck analyses: %w", err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "failed stuck analyses", "count", n, "max_age", age)
	}
	return n, nil
}

// CleanupPending fails pending jobs older than age in batches until none remain.
func (s *ReaperService) CleanupPending(ctx context.Context, age time.Duration) (int64, error) {
	if err := validateAge(age); err != nil {
		return 0, err
	}
	var total int64
	for {
		n, err := s.repo.FailStalePending(ctx, age, s.config.BatchSize)
		if err != nil {
			metrics.EmitReaper(s.metrics, reaperActionPending, total, suppressContextCancellation(err))
			return total, fmt.Errorf("fail stale pending analyses: %w", err)
		}
		total += n
		if n == 0 || n < int64(s.config.BatchSize) {
			break
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}

	metrics.EmitReaper(s.metrics, reaperActionPending, total, nil)
	if total > 0 {
		s.logger.InfoContext(ctx, "failed stale pending analyses", "count", total, "max_age", age)
	}
	return total, nil
}

// KillLongRunningQueries terminates database backends running a query for longer than age.
func (s *ReaperService) KillLongRunningQueries(ctx context.Context, age time.Duration) (int64, error) {
	if err := validateAge(age); err != nil {
		return 0, err
	}
	if s.admin == nil {
		return 0, apperrors.Unavailable("query termination is not configured")
	}
	n, err := s.admin.TerminateLongRunningQueries(ctx, age)
	metrics.EmitReaper(s.metrics, reaperActionKill, n, suppressContextCancellation(err))
	if err != nil {
		return 0, fmt.Errorf("terminate long-running queries: %w", err)
	}
	if n > 0 {
		s.logger.WarnContext(ctx, "terminated long-running queries", "count", n, "max_age", age)
	}
	return n, nil
}

// EmergencyReset cancels every processing job.
func (s *ReaperService) EmergencyReset(ctx context.Context) (int64, error) {
	n, err := s.repo.CancelAllProcessing(ctx, emergencyResetMessage)
	metrics.EmitReaper(s.metrics, reaperActionEmergency, n, err)
	if err != nil {
		return 0, fmt.Errorf("emergency reset: %w", err)
	}
	s.logger.WarnContext(ctx, "emergency reset cancelled processing analyses", "count", n)
	return n, nil
}

// ListStuck returns non-terminal jobs without a heartbeat for longer than age.
func (s *ReaperService) ListStuck(ctx context.Context, age time.Duration) ([]model.StuckAnalysisJob, error) {
	if err := validateAge(age); err != nil {
		return nil, err
	}
	jobs, err := s.repo.ListStuck(ctx, age)
	if err != nil {
		return nil, fmt.Errorf("list stuck analyses: %w", err)
	}
	return jobs, nil
}

// ForceCleanup fails a single non-terminal job regardless of its age.
func (s *ReaperService) ForceCleanup(ctx context.Context, id string) error {
	ok, err := s.repo.ForceFail(ctx, id, forceCleanupMessage)
	if err != nil {
		metrics.EmitReaper(s.metrics, reaperActionForce, 0, err)
		return fmt.Errorf("force cleanup: %w", err)
	}
	if !ok {
		metrics.EmitReaper(s.metrics, reaperActionForce, 0, nil)
		return apperrors.StateConflictf("analysis %s does not exist or has already finished", id)
	}
	metrics.EmitReaper(s.metrics, reaperActionForce, 1, nil)
	s.logger.WarnContext(ctx, "analysis force cleaned up", "analysis_id", id)
	return nil
}

// RunScheduled performs one scheduled sweep. Every step runs even if an earlier one fails.
func (s *ReaperService) RunScheduled(ctx context.Context) error {
	steps := []struct {
		label string
		fn    func(context.Context) (int64, error)
	}{
		{"fail stuck analyses", func(ctx context.Context) (int64, error) {
			return s.Cleanup(ctx, s.config.StuckAfter)
		}},
		{"fail stale pending analyses", func(ctx context.Context) (int64, error) {
			return s.CleanupPending(ctx, s.config.PendingMaxAge)
		}},
	}
	if s.config.KillQueries && s.admin != nil {
		steps = append(steps, struct {
			label string
			fn    func(context.Context) (int64, error)
		}{"terminate long-running queries", func(ctx context.Context) (int64, error) {
			return s.KillLongRunningQueries(ctx, s.config.QueryMaxAge)
		}})
	}

	start := time.Now()
	var (
		errs               []error
		allContextCanceled = true
	)
	for _, step := range steps {
		if _, err := step.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.label, err))
			allContextCanceled = allContextCanceled && isContextCancellation(err)
		}
	}
	s.emitRunMetrics(time.Since(start), errors.Join(errs...))

	if len(errs) > 0 {
		joined := errors.Join(errs...)
		if allContextCanceled {
			return context.Canceled
		}
		return fmt.Errorf("reaper run failed: %w", joined)
	}
	return nil
}

func (s *ReaperService) emitRunMetrics(elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}
	tags := map[string]string{"result": metrics.ResultSuccess}
	if err != nil && !isContextCancellation(err) {
		tags["result"] = metrics.ResultError
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}
	s.metrics.Count("reaper.run", 1, tags)
	s.metrics.Timing("reaper.run_duration", elapsed, map[string]string{"result": tags["result"]})
	if err == nil {
		s.metrics.Gauge("reaper.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}

func validateAge(age time.Duration) error {
	if age <= 0 {
		return apperrors.ValidationField("minutes", "minutes must be positive")
	}
	return nil
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
