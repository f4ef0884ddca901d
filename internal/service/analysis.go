package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/linkscore/linkscore-api/config"
	"github.com/linkscore/linkscore-api/internal/core"
	"github.com/linkscore/linkscore-api/internal/data"
	"github.com/linkscore/linkscore-api/internal/domain/hostname"
	"github.com/linkscore/linkscore-api/internal/domain/model"
	apperrors "github.com/linkscore/linkscore-api/internal/errors"
	"github.com/linkscore/linkscore-api/internal/observability/metrics"
	"github.com/linkscore/linkscore-api/internal/observability/statsd"
)

const (
	submitRateLimitPrefix = "linkscore:ratelimit:submit:"
	userCancelReason      = "Cancelled by user"
)

// Submission outcomes used for metrics.
const (
	submitAccepted    = "accepted"
	submitInvalid     = "invalid"
	submitRateLimited = "rate_limited"
	submitExcluded    = "excluded"
)

// JobDispatcher starts an analysis in the background.
type JobDispatcher interface {
	Dispatch(jobID string) bool
}

// AnalysisServiceOptions groups dependencies for AnalysisService.
type AnalysisServiceOptions struct {
	Repo       core.AnalysisJobRepository // Required
	Exclusions ExclusionChecker           // Required
	Cache      core.CacheRepository       // Optional: enables the submission rate limit
	Dispatcher JobDispatcher              // Optional: nil leaves jobs for the polling worker
	RateLimit  config.RateLimitConfig
	Validator  *validator.Validate
	Logger     *slog.Logger
	Metrics    statsd.Sink
}

// AnalysisService is the boundary for submitting, polling, and cancelling analyses.
type AnalysisService struct {
	repo       core.AnalysisJobRepository
	exclusions ExclusionChecker
	cache      core.CacheRepository
	dispatcher JobDispatcher
	rateLimit  config.RateLimitConfig
	validate   *validator.Validate
	logger     *slog.Logger
	metrics    statsd.Sink
}

// NewAnalysisService constructs an AnalysisService.
func NewAnalysisService(opts AnalysisServiceOptions) (*AnalysisService, error) {
	if opts.Repo == nil {
		return nil, errors.New("AnalysisJobRepository is required")
	}
	if opts.Exclusions == nil {
		return nil, errors.New("ExclusionChecker is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	validate := opts.Validator
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return &AnalysisService{
		repo:       opts.Repo,
		exclusions: opts.Exclusions,
		cache:      opts.Cache,
		dispatcher: opts.Dispatcher,
		rateLimit:  opts.RateLimit,
		validate:   validate,
		logger:     logger.With("component", "analysis_service"),
		metrics:    opts.Metrics,
	}, nil
}

// Submit validates the request, checks the exclusion list and rate limit, creates a
// pending job and hands it to the dispatcher. It returns before any stage runs.
func (s *AnalysisService) Submit(
	ctx context.Context,
	req model.SubmitAnalysisRequest,
	clientKey string,
) (*model.SubmitAnalysisResponse, error) {
	normalizeSubmission(&req)
	if err := s.validate.Struct(req); err != nil {
		metrics.EmitSubmission(s.metrics, submitInvalid)
		return nil, validationError(err)
	}

	if err := s.checkRateLimit(ctx, clientKey); err != nil {
		metrics.EmitSubmission(s.metrics, submitRateLimited)
		return nil, err
	}

	excluded, err := s.exclusions.IsExcluded(ctx, req.Domain)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "exclusion list unavailable")
	}
	if excluded {
		metrics.EmitSubmission(s.metrics, submitExcluded)
		s.logger.InfoContext(ctx, "submission rejected by exclusion list", "domain", req.Domain)
		return nil, apperrors.Unavailable("analysis is not available for this domain")
	}

	job, err := s.repo.Create(ctx, req.Params())
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("create analysis: %w", err))
	}
	metrics.EmitSubmission(s.metrics, submitAccepted)
	s.logger.InfoContext(ctx, "analysis submitted", "analysis_id", job.ID, "domain", job.Params.Domain)

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(job.ID)
	}
	return &model.SubmitAnalysisResponse{ID: job.ID, Status: job.Status}, nil
}

// Status returns the status poll view for a job.
func (s *AnalysisService) Status(ctx context.Context, id string) (*model.AnalysisStatusView, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := FormatStatus(job)
	return &view, nil
}

// Results returns the results document. Jobs that have not completed yield a NotReady error.
func (s *AnalysisService) Results(ctx context.Context, id string) (*model.AnalysisResults, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != model.AnalysisStatusCompleted {
		return nil, apperrors.NotReady(fmt.Sprintf("analysis is %s", job.Status))
	}
	results := FormatResults(job)
	return &results, nil
}

// Cancel moves a pending or processing job to cancelled. Cancelling an already
// cancelled job succeeds; completed and failed jobs are rejected.
func (s *AnalysisService) Cancel(ctx context.Context, id string) (*model.AnalysisStatusView, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !job.Status.Terminal() {
		ok, err := s.repo.Cancel(ctx, job.ID, userCancelReason)
		if err != nil {
			return nil, fmt.Errorf("cancel analysis: %w", err)
		}
		if ok {
			metrics.EmitTransition(s.metrics, metrics.Transition{
				To:     string(model.AnalysisStatusCancelled),
				Result: metrics.ResultSuccess,
			})
			s.logger.InfoContext(ctx, "analysis cancelled", "analysis_id", job.ID, "previous_status", job.Status)
		}
		// Re-read: the job may have reached a terminal state concurrently.
		if job, err = s.load(ctx, id); err != nil {
			return nil, err
		}
	}

	switch job.Status {
	case model.AnalysisStatusCancelled:
		view := FormatStatus(job)
		return &view, nil
	case model.AnalysisStatusPending, model.AnalysisStatusProcessing,
		model.AnalysisStatusCompleted, model.AnalysisStatusFailed:
	}
	return nil, apperrors.StateConflictf("cannot cancel an analysis that is %s", job.Status)
}

func (s *AnalysisService) load(ctx context.Context, id string) (*model.AnalysisJob, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return nil, apperrors.NotFoundf("analysis %q not found", id)
	}
	job, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, data.ErrAnalysisJobNotFound) {
			return nil, apperrors.NotFoundf("analysis %q not found", id)
		}
		return nil, apperrors.MapDBError(err)
	}
	return job, nil
}

// checkRateLimit applies a fixed-window limit per client key. Cache errors fail open.
func (s *AnalysisService) checkRateLimit(ctx context.Context, clientKey string) error {
	if s.cache == nil || !s.rateLimit.Enabled || clientKey == "" {
		return nil
	}
	key := submitRateLimitPrefix + clientKey
	n, err := s.cache.Increment(ctx, key, s.rateLimit.Window)
	if err != nil {
		s.logger.WarnContext(ctx, "submission rate limit unavailable", "error", err)
		return nil
	}
	if n <= int64(s.rateLimit.Submissions) {
		return nil
	}

	retryAfter, err := s.cache.TTL(ctx, key)
	if err != nil || retryAfter <= 0 {
		retryAfter = s.rateLimit.Window
	}
	return apperrors.RateLimited(
		fmt.Sprintf("too many submissions; limit is %d per %s", s.rateLimit.Submissions, s.rateLimit.Window),
		retryAfter,
	)
}

func normalizeSubmission(req *model.SubmitAnalysisRequest) {
	req.Domain = hostname.Canonical(req.Domain)
	req.ContactEmail = strings.TrimSpace(req.ContactEmail)
	req.LocationCode = strings.TrimSpace(req.LocationCode)

	keywords := make([]string, 0, len(req.Keywords))
	for _, kw := range req.Keywords {
		keywords = append(keywords, strings.Join(strings.Fields(kw), " "))
	}
	req.Keywords = keywords
}

// validationError converts the first validator failure into a field-scoped AppError.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Validation(err.Error())
	}
	fe := verrs[0]
	field := jsonFieldName(fe.StructField())
	return apperrors.ValidationField(field, validationMessage(field, fe))
}

func jsonFieldName(structField string) string {
	switch structField {
	case "Domain":
		return "domain"
	case "ContactEmail":
		return "contact_email"
	case "LocationCode":
		return "location"
	case "MonthlySpend":
		return "monthly_spend"
	case "InvestmentMonths":
		return "investment_months"
	case "Keywords":
		return "keywords"
	case "Reason":
		return "reason"
	}
	return strings.ToLower(structField)
}

func validationMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "fqdn":
		return field + " must be a valid domain name"
	case "email":
		return field + " must be a valid email address"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "unique":
		return field + " must not contain duplicates"
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
