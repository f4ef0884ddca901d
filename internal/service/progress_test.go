package service

import (
	"context"
	"testing"
	"time"

	"github.com/linkscore/linkscore-api/internal/domain/model"
	"github.com/linkscore/linkscore-api/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestProgressReporter_NeverDecreases(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p := NewProgressReporter(nil, "job", func() time.Time { return now })

	assert.Equal(t, 40, p.Snapshot(model.StepFetchingCompetitorBacklinks, "a", 40, nil).Percent)
	assert.Equal(t, 40, p.Snapshot(model.StepFetchingCompetitorBacklinks, "b", 25, nil).Percent)
	assert.Equal(t, 100, p.Snapshot(model.StepCompleted, "c", 140, nil).Percent)
	assert.Equal(t, model.StepCompleted, p.Step())

	snap := p.Snapshot(model.StepCompleted, "d", 0, nil)
	assert.Equal(t, 100, snap.Percent)
	assert.Equal(t, now, snap.UpdatedAt)
}

func TestProgressReporter_ReportPersists(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAnalysisJobRepository(ctrl)

	repo.EXPECT().
		UpdateProgress(gomock.Any(), "job-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, p model.Progress) (bool, error) {
			assert.Equal(t, model.StepResolvingCompetitors, p.Step)
			assert.Equal(t, 5, p.Percent)
			assert.Equal(t, model.KeywordsFound{Keywords: []string{"a"}}, p.Data)
			return true, nil
		})
	repo.EXPECT().UpdateMetrics(gomock.Any(), "job-1", gomock.Any(), gomock.Any()).Return(false, nil)

	p := NewProgressReporter(repo, "job-1", nil)
	ok, err := p.Report(context.Background(), model.StepResolvingCompetitors, "Finding competitors", 5,
		model.KeywordsFound{Keywords: []string{"a"}})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.ReportMetrics(context.Background(), model.AnalysisMetrics{}, model.StepAnalyzingGaps, "x", 85, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
