package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/linkscore/linkscore-api/internal/domain/model"
)

// RepoConfig holds configuration options shared by the job repositories.
type RepoConfig struct {
	Logger *slog.Logger
	Clock  Clock
}

// AnalysisJobRepo provides database operations for analysis jobs.
// Writes carry status guards in their WHERE clauses so terminal jobs are never modified.
type AnalysisJobRepo struct {
	DB     *sql.DB
	clock  Clock
	logger *slog.Logger
}

// NewAnalysisJobRepo creates a new AnalysisJobRepo with the given database connection and configuration.
func NewAnalysisJobRepo(db *sql.DB, cfg RepoConfig) *AnalysisJobRepo {
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisJobRepo{
		DB:     db,
		clock:  clock,
		logger: logger.With("component", "analysis_job_repo"),
	}
}

const analysisJobColumns = `id, status, params, metrics, scores, lead, progress, error_message,
  processing_time_ms, created_at, updated_at, started_at, completed_at, notified_at`

// Create inserts a pending analysis job.
func (r *AnalysisJobRepo) Create(ctx context.Context, params model.CampaignParams) (*model.AnalysisJob, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	now := r.clock.Now().UTC()
	progressJSON, err := json.Marshal(model.Progress{
		Step:      model.StepQueued,
		Message:   "Analysis queued",
		Percent:   0,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal progress: %w", err)
	}

	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO analysis_jobs (status, params, metrics, progress, created_at, updated_at)
		VALUES ('pending', $1, '{}'::jsonb, $2, $3, $3)
		RETURNING `+analysisJobColumns,
		paramsJSON, progressJSON, now)

	job, err := scanAnalysisJob(row)
	if err != nil {
		return nil, fmt.Errorf("insert analysis job: %w", err)
	}
	return job, nil
}

// GetByID returns a single analysis job.
func (r *AnalysisJobRepo) GetByID(ctx context.Context, id string) (*model.AnalysisJob, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrAnalysisJobIDRequired
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+analysisJobColumns+` FROM analysis_jobs WHERE id = $1`, id)
	job, err := scanAnalysisJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAnalysisJobNotFound
		}
		return nil, fmt.Errorf("get analysis job: %w", err)
	}
	return job, nil
}

// GetStatus returns only the status column; used for cooperative cancellation checks.
func (r *AnalysisJobRepo) GetStatus(ctx context.Context, id string) (model.AnalysisStatus, error) {
	var status model.AnalysisStatus
	err := r.DB.QueryRowContext(ctx, `SELECT status FROM analysis_jobs WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrAnalysisJobNotFound
		}
		return "", fmt.Errorf("get analysis status: %w", err)
	}
	return status, nil
}

// MarkProcessing moves a job from pending to processing and writes the first snapshot.
// Only one caller can win this transition.
func (r *AnalysisJobRepo) MarkProcessing(ctx context.Context, id string, progress model.Progress) (bool, error) {
	progressJSON, err := json.Marshal(progress)
	if err != nil {
		return false, fmt.Errorf("marshal progress: %w", err)
	}
	now := r.clock.Now().UTC()
	return r.execGuarded(ctx, "mark processing", `
		UPDATE analysis_jobs
		SET status = 'processing',
			started_at = $2,
			updated_at = $2,
			progress = $3
		WHERE id = $1 AND status = 'pending'
	`, id, now, progressJSON)
}

// UpdateProgress overwrites the progress snapshot of a processing job.
// A snapshot with a lower percentage than the stored one is ignored.
func (r *AnalysisJobRepo) UpdateProgress(ctx context.Context, id string, progress model.Progress) (bool, error) {
	progressJSON, err := json.Marshal(progress)
	if err != nil {
		return false, fmt.Errorf("marshal progress: %w", err)
	}
	now := r.clock.Now().UTC()
	return r.execGuarded(ctx, "update progress", `
		UPDATE analysis_jobs
		SET progress = $2,
			updated_at = $3
		WHERE id = $1
		  AND status = 'processing'
		  AND COALESCE((progress->>'percent')::int, 0) <= $4
	`, id, progressJSON, now, progress.Percent)
}

// UpdateMetrics writes derived metrics and a progress snapshot for a processing job.
func (r *AnalysisJobRepo) UpdateMetrics(
	ctx context.Context,
	id string,
	metrics model.AnalysisMetrics,
	progress model.Progress,
) (bool, error) {
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return false, fmt.Errorf("marshal metrics: %w", err)
	}
	progressJSON, err := json.Marshal(progress)
	if err != nil {
		return false, fmt.Errorf("marshal progress: %w", err)
	}
	now := r.clock.Now().UTC()
	return r.execGuarded(ctx, "update metrics", `
		UPDATE analysis_jobs
		SET metrics = $2,
			progress = CASE WHEN COALESCE((progress->>'percent')::int, 0) <= $5 THEN $3::jsonb ELSE progress END,
			updated_at = $4
		WHERE id = $1 AND status = 'processing'
	`, id, metricsJSON, progressJSON, now, progress.Percent)
}

// Complete marks a processing job completed, writing every score field in the same statement.
func (r *AnalysisJobRepo) Complete(ctx context.Context, id string, result model.CompletionResult) (bool, error) {
	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		return false, fmt.Errorf("marshal metrics: %w", err)
	}
	scoresJSON, err := json.Marshal(result.Scores)
	if err != nil {
		return false, fmt.Errorf("marshal scores: %w", err)
	}
	leadJSON, err := json.Marshal(result.Lead)
	if err != nil {
		return false, fmt.Errorf("marshal lead: %w", err)
	}
	progressJSON, err := json.Marshal(result.Progress)
	if err != nil {
		return false, fmt.Errorf("marshal progress: %w", err)
	}
	now := r.clock.Now().UTC()
	return r.execGuarded(ctx, "complete", `
		UPDATE analysis_jobs
		SET status = 'completed',
			metrics = $2,
			scores = $3,
			lead = $4,
			progress = $5,
			processing_time_ms = $6,
			completed_at = $7,
			updated_at = $7
		WHERE id = $1 AND status = 'processing'
	`, id, metricsJSON, scoresJSON, leadJSON, progressJSON, result.ProcessingTimeMs, now)
}

// Fail marks a non-terminal job failed. Partial metrics are left in place.
func (r *AnalysisJobRepo) Fail(ctx context.Context, id, errMsg string) (bool, error) {
	now := r.clock.Now().UTC()
	return r.execGuarded(ctx, "fail", `
		UPDATE analysis_jobs
		SET status = 'failed',
			error_message = $2,
			processing_time_ms = CASE
				WHEN started_at IS NULL THEN NULL
				ELSE (EXTRACT(EPOCH FROM ($3::timestamptz - started_at)) * 1000)::bigint
			END,
			completed_at = $3,
			updated_at = $3
		WHERE id = $1 AND status IN ('pending', 'processing')
	`, id, errMsg, now)
}

// Cancel marks a pending or processing job cancelled.
func (r *AnalysisJobRepo) Cancel(ctx context.Context, id, reason string) (bool, error) {
	now := r.clock.Now().UTC()
	return r.execGuarded(ctx, "cancel", `
		UPDATE analysis_jobs
		SET status = 'cancelled',
			error_message = $2,
			completed_at = $3,
			updated_at = $3
		WHERE id = $1 AND status IN ('pending', 'processing')
	`, id, reason, now)
}

// MarkNotified records a successful completion notification.
func (r *AnalysisJobRepo) MarkNotified(ctx context.Context, id string) error {
	now := r.clock.Now().UTC()
	_, err := r.DB.ExecContext(ctx, `
		UPDATE analysis_jobs
		SET notified_at = $2
		WHERE id = $1 AND status = 'completed'
	`, id, now)
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	return nil
}

// ListPendingIDs returns the oldest pending job ids, first-come-first-served.
func (r *AnalysisJobRepo) ListPendingIDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id FROM analysis_jobs
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending analysis jobs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.WarnContext(ctx, "close rows", "error", closeErr)
		}
	}()

	var ids []string
	for rows.Next() {
		var id string
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("scan pending id: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate pending ids: %w", rowsErr)
	}
	return ids, nil
}

func (r *AnalysisJobRepo) execGuarded(ctx context.Context, op, query string, args ...any) (bool, error) {
	if id, ok := args[0].(string); ok && strings.TrimSpace(id) == "" {
		return false, ErrAnalysisJobIDRequired
	}
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows affected: %w", op, err)
	}
	return n > 0, nil
}

type analysisRowScanner interface {
	Scan(dest ...any) error
}

type analysisRowData struct {
	params, metrics, scores, lead, progress []byte
	errorMessage                            sql.NullString
	processingTimeMs                        sql.NullInt64
	startedAt, completedAt, notifiedAt      sql.NullTime
}

func scanAnalysisJob(scanner analysisRowScanner) (*model.AnalysisJob, error) {
	job := &model.AnalysisJob{}
	var d analysisRowData
	if err := scanner.Scan(
		&job.ID,
		&job.Status,
		&d.params,
		&d.metrics,
		&d.scores,
		&d.lead,
		&d.progress,
		&d.errorMessage,
		&d.processingTimeMs,
		&job.CreatedAt,
		&job.UpdatedAt,
		&d.startedAt,
		&d.completedAt,
		&d.notifiedAt,
	); err != nil {
		return nil, err
	}
	if err := d.apply(job); err != nil {
		return nil, err
	}
	return job, nil
}

func (d *analysisRowData) apply(job *model.AnalysisJob) error {
	if err := json.Unmarshal(d.params, &job.Params); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	if len(d.metrics) > 0 {
		if err := json.Unmarshal(d.metrics, &job.Metrics); err != nil {
			return fmt.Errorf("decode metrics: %w", err)
		}
	}
	if len(d.scores) > 0 && string(d.scores) != "null" {
		var scores model.ScoreBreakdown
		if err := json.Unmarshal(d.scores, &scores); err != nil {
			return fmt.Errorf("decode scores: %w", err)
		}
		job.Scores = &scores
	}
	if len(d.lead) > 0 && string(d.lead) != "null" {
		var lead model.LeadScore
		if err := json.Unmarshal(d.lead, &lead); err != nil {
			return fmt.Errorf("decode lead: %w", err)
		}
		job.Lead = &lead
	}
	if len(d.progress) > 0 {
		if err := json.Unmarshal(d.progress, &job.Progress); err != nil {
			return fmt.Errorf("decode progress: %w", err)
		}
	}
	job.ErrorMessage = cloneNullableString(d.errorMessage)
	if d.processingTimeMs.Valid {
		ms := d.processingTimeMs.Int64
		job.ProcessingTimeMs = &ms
	}
	job.StartedAt = cloneNullableTime(d.startedAt)
	job.CompletedAt = cloneNullableTime(d.completedAt)
	job.NotifiedAt = cloneNullableTime(d.notifiedAt)
	job.CreatedAt = job.CreatedAt.UTC()
	job.UpdatedAt = job.UpdatedAt.UTC()
	return nil
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func cloneNullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
