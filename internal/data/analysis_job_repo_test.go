package data

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkscore/linkscore-api/internal/domain/model"
)

var analysisTestNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newMockAnalysisRepo(t *testing.T) (*AnalysisJobRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	repo := NewAnalysisJobRepo(db, RepoConfig{Clock: NewFixedClock(analysisTestNow)})
	return repo, mock
}

func analysisJobRowColumns() []string {
	return []string{
		"id", "status", "params", "metrics", "scores", "lead", "progress", "error_message",
		"processing_time_ms", "created_at", "updated_at", "started_at", "completed_at", "notified_at",
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestAnalysisJobRepo_Create(t *testing.T) {
	repo, mock := newMockAnalysisRepo(t)
	params := model.CampaignParams{
		Domain:           "acme.com.au",
		ContactEmail:     "owner@acme.com.au",
		LocationCode:     "Australia",
		MonthlySpend:     2000,
		InvestmentMonths: 9,
		Keywords:         []string{"plumber sydney", "emergency plumber"},
	}

	row := sqlmock.NewRows(analysisJobRowColumns()).AddRow(
		"6f1f7c84-4a59-4d0c-9c55-6f5e0a7c1d11", "pending", mustJSON(t, params), []byte(`{}`), nil, nil,
		[]byte(`{"step":"queued","message":"Analysis queued","percent":0,"updated_at":"2025-03-01T10:00:00Z"}`),
		nil, nil, analysisTestNow, analysisTestNow, nil, nil, nil,
	)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO analysis_jobs")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), analysisTestNow).
		WillReturnRows(row)

	job, err := repo.Create(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusPending, job.Status)
	assert.Equal(t, params, job.Params)
	assert.Equal(t, model.StepQueued, job.Progress.Step)
	assert.Nil(t, job.Scores)
	assert.Nil(t, job.Lead)
	assert.Nil(t, job.StartedAt)
}

func TestAnalysisJobRepo_GetByID(t *testing.T) {
	t.Run("decodes completed job", func(t *testing.T) {
		repo, mock := newMockAnalysisRepo(t)
		started := analysisTestNow.Add(-time.Minute)
		scores := model.ScoreBreakdown{CompetitivePosition: 15, Performance: 3, Velocity: 10, MarketShare: 8, CostEfficiency: 4, Overall: 40}
		lead := model.LeadScore{Priority: 80, Potential: 90, Score: 85, Type: model.LeadTypePriority, Urgency: model.LeadUrgencyHigh}
		current := 12

		mock.ExpectQuery(regexp.QuoteMeta("FROM analysis_jobs WHERE id = $1")).
			WithArgs("job-1").
			WillReturnRows(sqlmock.NewRows(analysisJobRowColumns()).AddRow(
				"job-1", "completed",
				[]byte(`{"domain":"acme.com.au","keywords":["a","b"]}`),
				mustJSON(t, model.AnalysisMetrics{CurrentAuthorityLinks: &current}),
				mustJSON(t, scores), mustJSON(t, lead),
				[]byte(`{"step":"completed","message":"Analysis complete","percent":100,"updated_at":"2025-03-01T10:00:00Z"}`),
				nil, int64(60000), started, analysisTestNow, started, analysisTestNow, nil,
			))

		job, err := repo.GetByID(context.Background(), "job-1")
		require.NoError(t, err)
		assert.Equal(t, model.AnalysisStatusCompleted, job.Status)
		require.NotNil(t, job.Scores)
		assert.Equal(t, scores, *job.Scores)
		require.NotNil(t, job.Lead)
		assert.Equal(t, lead, *job.Lead)
		require.NotNil(t, job.Metrics.CurrentAuthorityLinks)
		assert.Equal(t, 12, *job.Metrics.CurrentAuthorityLinks)
		assert.Equal(t, 100, job.Progress.Percent)
		require.NotNil(t, job.ProcessingTimeMs)
		assert.Equal(t, int64(60000), *job.ProcessingTimeMs)
		assert.Nil(t, job.NotifiedAt)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockAnalysisRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM analysis_jobs WHERE id = $1")).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrAnalysisJobNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		repo, _ := newMockAnalysisRepo(t)
		_, err := repo.GetByID(context.Background(), " ")
		assert.ErrorIs(t, err, ErrAnalysisJobIDRequired)
	})
}

func TestAnalysisJobRepo_GuardedTransitions(t *testing.T) {
	progress := model.Progress{Step: model.StepStarting, Message: "Starting analysis", Percent: 1, UpdatedAt: analysisTestNow}

	tests := []struct {
		name     string
		affected int64
		pattern  string
		call     func(r *AnalysisJobRepo) (bool, error)
		want     bool
	}{
		{
			name:     "mark processing wins",
			affected: 1,
			pattern:  "WHERE id = $1 AND status = 'pending'",
			call: func(r *AnalysisJobRepo) (bool, error) {
				return r.MarkProcessing(context.Background(), "job-1", progress)
			},
			want: true,
		},
		{
			name:     "mark processing loses when not pending",
			affected: 0,
			pattern:  "WHERE id = $1 AND status = 'pending'",
			call: func(r *AnalysisJobRepo) (bool, error) {
				return r.MarkProcessing(context.Background(), "job-1", progress)
			},
			want: false,
		},
		{
			name:     "complete ignored on terminal job",
			affected: 0,
			pattern:  "SET status = 'completed'",
			call: func(r *AnalysisJobRepo) (bool, error) {
				return r.Complete(context.Background(), "job-1", model.CompletionResult{Progress: progress})
			},
			want: false,
		},
		{
			name:     "fail processing job",
			affected: 1,
			pattern:  "WHERE id = $1 AND status IN ('pending', 'processing')",
			call: func(r *AnalysisJobRepo) (bool, error) {
				return r.Fail(context.Background(), "job-1", "provider unavailable")
			},
			want: true,
		},
		{
			name:     "cancel already-completed job",
			affected: 0,
			pattern:  "SET status = 'cancelled'",
			call: func(r *AnalysisJobRepo) (bool, error) {
				return r.Cancel(context.Background(), "job-1", "Cancelled by user")
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockAnalysisRepo(t)
			mock.ExpectExec(regexp.QuoteMeta(tt.pattern)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			got, err := tt.call(repo)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalysisJobRepo_UpdateProgressPassesPercentGuard(t *testing.T) {
	repo, mock := newMockAnalysisRepo(t)
	progress := model.Progress{Step: model.StepAnalyzingGaps, Message: "Analyzing link gaps", Percent: 72, UpdatedAt: analysisTestNow}

	mock.ExpectExec(regexp.QuoteMeta("COALESCE((progress->>'percent')::int, 0) <= $4")).
		WithArgs("job-1", sqlmock.AnyArg(), analysisTestNow, 72).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateProgress(context.Background(), "job-1", progress)
	require.NoError(t, err)
	assert.False(t, ok, "lower percentages are ignored")
}

func TestAnalysisJobRepo_ListPendingIDs(t *testing.T) {
	repo, mock := newMockAnalysisRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'pending'")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a").AddRow("b"))

	ids, err := repo.ListPendingIDs(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestAnalysisJobRepo_ReaperLock(t *testing.T) {
	t.Run("skips when another reaper holds the lock", func(t *testing.T) {
		repo, mock := newMockAnalysisRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT pg_try_advisory_xact_lock($1, $2)")).
			WithArgs(advisoryLockReaperMajor, advisoryLockReaperStalePending).
			WillReturnRows(sqlmock.NewRows([]string{"locked"}).AddRow(false))
		mock.ExpectCommit()

		n, err := repo.FailStalePending(context.Background(), time.Hour, 50)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("fails stuck processing jobs", func(t *testing.T) {
		repo, mock := newMockAnalysisRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT pg_try_advisory_xact_lock($1, $2)")).
			WithArgs(advisoryLockReaperMajor, advisoryLockReaperStuck).
			WillReturnRows(sqlmock.NewRows([]string{"locked"}).AddRow(true))
		mock.ExpectExec(regexp.QuoteMeta("WHERE status = 'processing'")).
			WithArgs("Analysis timed out", analysisTestNow, analysisTestNow.Add(-10*time.Minute)).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		n, err := repo.FailStuckProcessing(context.Background(), 10*time.Minute, "Analysis timed out")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("emergency reset waits for the lock instead of skipping", func(t *testing.T) {
		repo, mock := newMockAnalysisRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1, $2)")).
			WithArgs(advisoryLockReaperMajor, advisoryLockReaperCancelAll).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("SET status = 'cancelled'")).
			WithArgs("Emergency reset", analysisTestNow).
			WillReturnResult(sqlmock.NewResult(0, 4))
		mock.ExpectCommit()

		n, err := repo.CancelAllProcessing(context.Background(), "Emergency reset")
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
	})

	t.Run("emergency reset surfaces lock errors", func(t *testing.T) {
		repo, mock := newMockAnalysisRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1, $2)")).
			WillReturnError(errors.New("canceling statement due to lock timeout"))
		mock.ExpectRollback()

		_, err := repo.CancelAllProcessing(context.Background(), "Emergency reset")
		require.ErrorContains(t, err, "wait for advisory lock")
	})

	t.Run("rolls back on update error", func(t *testing.T) {
		repo, mock := newMockAnalysisRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1, $2)")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("SET status = 'cancelled'")).
			WillReturnError(driver.ErrBadConn)
		mock.ExpectRollback()

		_, err := repo.CancelAllProcessing(context.Background(), "Emergency reset")
		require.Error(t, err)
	})
}

func TestAnalysisJobRepo_ListStuck(t *testing.T) {
	repo, mock := newMockAnalysisRepo(t)
	started := analysisTestNow.Add(-20 * time.Minute)
	mock.ExpectQuery(regexp.QuoteMeta("FROM analysis_jobs")).
		WithArgs(analysisTestNow.Add(-10 * time.Minute)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "domain", "status", "step", "percent", "started_at", "updated_at"}).
			AddRow("job-9", "acme.com.au", "processing", "fetching_competitor_backlinks", 55, started, started))

	stuck, err := repo.ListStuck(context.Background(), 10*time.Minute)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, "acme.com.au", stuck[0].Domain)
	assert.Equal(t, model.StepFetchingCompetitorBacklinks, stuck[0].Step)
	assert.Equal(t, 55, stuck[0].Percent)
	require.NotNil(t, stuck[0].StartedAt)
}

func TestDBAdminRepo_TerminateLongRunningQueries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("pg_terminate_backend(pid)")).
		WithArgs(int64(300)).
		WillReturnRows(sqlmock.NewRows([]string{"pid", "pg_terminate_backend"}).
			AddRow(int64(101), true).
			AddRow(int64(102), false))

	repo := NewDBAdminRepo(db, nil)
	n, err := repo.TerminateLongRunningQueries(context.Background(), 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = repo.TerminateLongRunningQueries(context.Background(), 0)
	assert.Error(t, err)
}
