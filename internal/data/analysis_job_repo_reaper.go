package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/linkscore/linkscore-api/internal/data/pgxutil"
	"github.com/linkscore/linkscore-api/internal/domain/model"
)

// Advisory lock namespace for reaper operations, keyed (major, minor).
// Major key 1000 is reserved for linkscore reaper operations.
const (
	advisoryLockReaperMajor          = 1000
	advisoryLockReaperStuck          = 1 // FailStuckProcessing
	advisoryLockReaperStalePending   = 2 // FailStalePending
	advisoryLockReaperCancelAll      = 3 // CancelAllProcessing
	stalePendingAnalysisErrorMessage = "Analysis timed out waiting to start"
)

// FailStuckProcessing fails processing jobs whose last heartbeat is older than maxAge.
// Returns 0 without touching anything when another reaper holds the lock.
func (r *AnalysisJobRepo) FailStuckProcessing(ctx context.Context, maxAge time.Duration, message string) (int64, error) {
	now := r.clock.Now().UTC()
	cutoff := now.Add(-maxAge)
	return r.withReaperLock(ctx, advisoryLockReaperStuck, lockTry, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx, `
			UPDATE analysis_jobs
			SET status = 'failed',
				error_message = $1,
				completed_at = $2,
				updated_at = $2
			WHERE status = 'processing'
			  AND updated_at < $3
		`, message, now, cutoff)
	})
}

// FailStalePending fails pending jobs created before now-maxAge, oldest first, up to batchSize.
func (r *AnalysisJobRepo) FailStalePending(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	now := r.clock.Now().UTC()
	cutoff := now.Add(-maxAge)
	return r.withReaperLock(ctx, advisoryLockReaperStalePending, lockTry, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx, `
			UPDATE analysis_jobs
			SET status = 'failed',
				error_message = $1,
				completed_at = $2,
				updated_at = $2
			WHERE id IN (
				SELECT id FROM analysis_jobs
				WHERE status = 'pending'
				  AND created_at < $3
				ORDER BY created_at
				LIMIT $4
			)
		`, stalePendingAnalysisErrorMessage, now, cutoff, batchSize)
	})
}

// CancelAllProcessing cancels every processing job. Used by the emergency reset.
// A concurrent reset is waited for rather than skipped, so the count is always real.
func (r *AnalysisJobRepo) CancelAllProcessing(ctx context.Context, message string) (int64, error) {
	now := r.clock.Now().UTC()
	return r.withReaperLock(ctx, advisoryLockReaperCancelAll, lockWait, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx, `
			UPDATE analysis_jobs
			SET status = 'cancelled',
				error_message = $1,
				completed_at = $2,
				updated_at = $2
			WHERE status = 'processing'
		`, message, now)
	})
}

// ListStuck returns processing jobs whose heartbeat is older than maxAge.
func (r *AnalysisJobRepo) ListStuck(ctx context.Context, maxAge time.Duration) ([]model.StuckAnalysisJob, error) {
	cutoff := r.clock.Now().UTC().Add(-maxAge)
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, params->>'domain', status,
			COALESCE(progress->>'step', ''),
			COALESCE((progress->>'percent')::int, 0),
			started_at, updated_at
		FROM analysis_jobs
		WHERE status = 'processing'
		  AND updated_at < $1
		ORDER BY updated_at ASC
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stuck analysis jobs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.WarnContext(ctx, "close rows", "error", closeErr)
		}
	}()

	var out []model.StuckAnalysisJob
	for rows.Next() {
		var (
			job       model.StuckAnalysisJob
			startedAt sql.NullTime
			step      string
		)
		if scanErr := rows.Scan(
			&job.ID, &job.Domain, &job.Status, &step, &job.Percent, &startedAt, &job.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("scan stuck job: %w", scanErr)
		}
		job.Step = model.ProgressStep(step)
		job.StartedAt = cloneNullableTime(startedAt)
		job.UpdatedAt = job.UpdatedAt.UTC()
		out = append(out, job)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate stuck jobs: %w", rowsErr)
	}
	return out, nil
}

// ForceFail fails a single non-terminal job regardless of age.
func (r *AnalysisJobRepo) ForceFail(ctx context.Context, id, message string) (bool, error) {
	return r.Fail(ctx, id, message)
}

type lockMode int

const (
	// lockTry skips the work when another session holds the lock. Scheduled sweeps use it.
	lockTry lockMode = iota
	// lockWait blocks until the lock is free. Manual operator actions use it.
	lockWait
)

func (r *AnalysisJobRepo) withReaperLock(
	ctx context.Context,
	minor int,
	mode lockMode,
	fn func(tx *sql.Tx) (sql.Result, error),
) (int64, error) {
	var rowsAffected int64
	err := pgxutil.WithTx(ctx, r.DB, nil, func(tx *sql.Tx) error {
		locked, err := acquireReaperLock(ctx, tx, minor, mode)
		if err != nil {
			return err
		}
		if !locked {
			r.logger.DebugContext(ctx, "reaper lock held elsewhere", "minor", minor)
			return nil
		}

		res, err := fn(tx)
		if err != nil {
			return fmt.Errorf("reaper update: %w", err)
		}
		ra, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		rowsAffected = ra
		return nil
	})
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}

func acquireReaperLock(ctx context.Context, tx *sql.Tx, minor int, mode lockMode) (bool, error) {
	if mode == lockWait {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1, $2)", advisoryLockReaperMajor, minor); err != nil {
			return false, fmt.Errorf("wait for advisory lock: %w", err)
		}
		return true, nil
	}
	var locked bool
	if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)", advisoryLockReaperMajor, minor).
		Scan(&locked); err != nil {
		return false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	return locked, nil
}
