package service

import (
	"context"
	"sync"
	"time"

	"github.com/linkscore/linkscore-api/internal/core"
	"github.com/linkscore/linkscore-api/internal/domain/model"
)

// ProgressReporter writes progress snapshots for a single job and never lets the percentage go backwards.
// It is safe for concurrent use by the per-competitor fetchers.
type ProgressReporter struct {
	repo  core.AnalysisJobRepository
	jobID string
	now   func() time.Time

	mu      sync.Mutex
	percent int
	step    model.ProgressStep
}

// NewProgressReporter returns a reporter for jobID starting from the given snapshot percentage.
func NewProgressReporter(repo core.AnalysisJobRepository, jobID string, now func() time.Time) *ProgressReporter {
	if now == nil {
		now = time.Now
	}
	return &ProgressReporter{repo: repo, jobID: jobID, now: now, step: model.StepQueued}
}

// Snapshot builds the next snapshot, raising percent to the last reported value when lower.
func (p *ProgressReporter) Snapshot(
	step model.ProgressStep,
	message string,
	percent int,
	data model.ProgressPayload,
) model.Progress {
	p.mu.Lock()
	defer p.mu.Unlock()

	percent = max(model.ClampPercent(percent), p.percent)
	p.percent = percent
	p.step = step
	return model.Progress{
		Step:      step,
		Message:   message,
		Percent:   percent,
		Data:      data,
		UpdatedAt: p.now().UTC(),
	}
}

// Report persists a snapshot. It returns false when the job is no longer processing.
func (p *ProgressReporter) Report(
	ctx context.Context,
	step model.ProgressStep,
	message string,
	percent int,
	data model.ProgressPayload,
) (bool, error) {
	return p.repo.UpdateProgress(ctx, p.jobID, p.Snapshot(step, message, percent, data))
}

// ReportMetrics persists metrics together with a snapshot.
func (p *ProgressReporter) ReportMetrics(
	ctx context.Context,
	metrics model.AnalysisMetrics,
	step model.ProgressStep,
	message string,
	percent int,
	data model.ProgressPayload,
) (bool, error) {
	return p.repo.UpdateMetrics(ctx, p.jobID, metrics, p.Snapshot(step, message, percent, data))
}

// Step returns the most recently reported step.
func (p *ProgressReporter) Step() model.ProgressStep {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.step
}

// Percent returns the highest reported percentage.
func (p *ProgressReporter) Percent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percent
}
