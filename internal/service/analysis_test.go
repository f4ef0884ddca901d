package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linkscore/linkscore-api/config"
	"github.com/linkscore/linkscore-api/internal/domain/model"
	apperrors "github.com/linkscore/linkscore-api/internal/errors"
	"github.com/linkscore/linkscore-api/internal/mocks"
	"github.com/linkscore/linkscore-api/internal/observability/metrics"
	"github.com/linkscore/linkscore-api/internal/observability/statsd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingDispatcher struct {
	ids []string
}

func (d *recordingDispatcher) Dispatch(id string) bool {
	d.ids = append(d.ids, id)
	return true
}

func validSubmission() model.SubmitAnalysisRequest {
	return model.SubmitAnalysisRequest{
		Domain:           "https://www.Acme.com.au/",
		ContactEmail:     " owner@acme.com.au ",
		LocationCode:     "sydney",
		MonthlySpend:     3000,
		InvestmentMonths: 12,
		Keywords:         []string{"plumber  sydney", "emergency plumber"},
	}
}

type analysisFixture struct {
	repo       *memJobRepo
	dispatcher *recordingDispatcher
	metrics    *statsd.Recorder
	svc        *AnalysisService
}

func newAnalysisFixture(t *testing.T, exclusions ExclusionChecker) *analysisFixture {
	t.Helper()
	f := &analysisFixture{
		repo:       newMemJobRepo(nil),
		dispatcher: &recordingDispatcher{},
		metrics:    &statsd.Recorder{},
	}
	svc, err := NewAnalysisService(AnalysisServiceOptions{
		Repo:       f.repo,
		Exclusions: exclusions,
		Dispatcher: f.dispatcher,
		Metrics:    f.metrics,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestAnalysisService_SubmitCreatesPendingJob(t *testing.T) {
	f := newAnalysisFixture(t, staticExclusions{})
	ctx := context.Background()

	resp, err := f.svc.Submit(ctx, validSubmission(), "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusPending, resp.Status)
	assert.Equal(t, []string{resp.ID}, f.dispatcher.ids)

	job, err := f.repo.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme.com.au", job.Params.Domain)
	assert.Equal(t, "owner@acme.com.au", job.Params.ContactEmail)
	assert.Equal(t, []string{"plumber sydney", "emergency plumber"}, job.Params.Keywords)
}

func TestAnalysisService_SubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.SubmitAnalysisRequest)
		field  string
	}{
		{"spend below minimum", func(r *model.SubmitAnalysisRequest) { r.MonthlySpend = 999 }, "monthly_spend"},
		{"too short investment", func(r *model.SubmitAnalysisRequest) { r.InvestmentMonths = 5 }, "investment_months"},
		{"one keyword", func(r *model.SubmitAnalysisRequest) { r.Keywords = []string{"plumber"} }, "keywords"},
		{"six keywords", func(r *model.SubmitAnalysisRequest) { r.Keywords = []string{"a", "b", "c", "d", "e", "f"} }, "keywords"},
		{"duplicate keywords", func(r *model.SubmitAnalysisRequest) { r.Keywords = []string{"a", "a"} }, "keywords"},
		{"bad email", func(r *model.SubmitAnalysisRequest) { r.ContactEmail = "nope" }, "contact_email"},
		{"bad domain", func(r *model.SubmitAnalysisRequest) { r.Domain = "not a domain" }, "domain"},
		{"missing location", func(r *model.SubmitAnalysisRequest) { r.LocationCode = " " }, "location"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAnalysisFixture(t, staticExclusions{})
			req := validSubmission()
			tt.mutate(&req)

			_, err := f.svc.Submit(context.Background(), req, "")
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err), "got %v", err)
			assert.Equal(t, tt.field, apperrors.GetField(err))
			assert.Empty(t, f.dispatcher.ids)
		})
	}
}

func TestAnalysisService_SubmitExcludedDomain(t *testing.T) {
	f := newAnalysisFixture(t, staticExclusions{"acme.com.au": true})

	_, err := f.svc.Submit(context.Background(), validSubmission(), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))

	ids, _ := f.repo.ListPendingIDs(context.Background(), 10)
	assert.Empty(t, ids, "no job is created for excluded domains")
	submitted := f.metrics.Named(metrics.MetricAnalysisSubmitted)
	require.Len(t, submitted, 1)
	assert.Equal(t, "excluded", submitted[0].Tags["outcome"])
}

func TestAnalysisService_SubmitRateLimited(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheRepository(ctrl)
	repo := newMemJobRepo(nil)
	svc, err := NewAnalysisService(AnalysisServiceOptions{
		Repo:       repo,
		Exclusions: staticExclusions{},
		Cache:      cache,
		RateLimit:  config.RateLimitConfig{Enabled: true, Submissions: 2, Window: time.Hour},
	})
	require.NoError(t, err)

	key := "linkscore:ratelimit:submit:203.0.113.7"
	gomock.InOrder(
		cache.EXPECT().Increment(gomock.Any(), key, time.Hour).Return(int64(1), nil),
		cache.EXPECT().Increment(gomock.Any(), key, time.Hour).Return(int64(2), nil),
		cache.EXPECT().Increment(gomock.Any(), key, time.Hour).Return(int64(3), nil),
		cache.EXPECT().TTL(gomock.Any(), key).Return(40*time.Minute, nil),
	)

	ctx := context.Background()
	for range 2 {
		_, err := svc.Submit(ctx, validSubmission(), "203.0.113.7")
		require.NoError(t, err)
	}
	_, err = svc.Submit(ctx, validSubmission(), "203.0.113.7")
	require.Error(t, err)
	assert.True(t, apperrors.IsRateLimited(err))
	assert.Equal(t, 40*time.Minute, apperrors.GetRetryAfter(err))
}

func TestAnalysisService_RateLimitFailsOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc, err := NewAnalysisService(AnalysisServiceOptions{
		Repo:       newMemJobRepo(nil),
		Exclusions: staticExclusions{},
		Cache:      cache,
		RateLimit:  config.RateLimitConfig{Enabled: true, Submissions: 1, Window: time.Hour},
	})
	require.NoError(t, err)
	cache.EXPECT().Increment(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), errors.New("redis down"))

	_, err = svc.Submit(context.Background(), validSubmission(), "198.51.100.1")
	require.NoError(t, err)
}

func TestAnalysisService_StatusAndResults(t *testing.T) {
	f := newAnalysisFixture(t, staticExclusions{})
	ctx := context.Background()
	resp, err := f.svc.Submit(ctx, validSubmission(), "")
	require.NoError(t, err)

	status, err := f.svc.Status(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusPending, status.Status)
	assert.Equal(t, model.StepQueued, status.Progress.Step)

	_, err = f.svc.Results(ctx, resp.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotReady(err))

	_, err = f.svc.Status(ctx, "not-a-uuid")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = f.svc.Status(ctx, "6f1c1e9e-8d7e-4c1a-9a51-3f1f0c6d2b10")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAnalysisService_CancelIsIdempotent(t *testing.T) {
	f := newAnalysisFixture(t, staticExclusions{})
	ctx := context.Background()
	resp, err := f.svc.Submit(ctx, validSubmission(), "")
	require.NoError(t, err)

	for range 2 {
		view, err := f.svc.Cancel(ctx, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AnalysisStatusCancelled, view.Status)
		assert.Equal(t, "Analysis was cancelled", view.Progress.Message)
	}
}

func TestAnalysisService_CancelTerminalJobsConflict(t *testing.T) {
	f := newAnalysisFixture(t, staticExclusions{})
	ctx := context.Background()

	completed, err := f.repo.Create(ctx, acmeParams())
	require.NoError(t, err)
	_, _ = f.repo.MarkProcessing(ctx, completed.ID, model.Progress{})
	_, _ = f.repo.Complete(ctx, completed.ID, model.CompletionResult{})

	failed, err := f.repo.Create(ctx, acmeParams())
	require.NoError(t, err)
	_, _ = f.repo.MarkProcessing(ctx, failed.ID, model.Progress{})
	_, _ = f.repo.Fail(ctx, failed.ID, "boom")

	for _, id := range []string{completed.ID, failed.ID} {
		_, err := f.svc.Cancel(ctx, id)
		require.Error(t, err)
		assert.True(t, apperrors.IsStateConflict(err))
	}

	job, err := f.repo.GetByID(ctx, completed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusCompleted, job.Status, "terminal state must not change")
}
