package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/linkscore/linkscore-api/internal/core"
	"github.com/linkscore/linkscore-api/internal/data"
	"github.com/linkscore/linkscore-api/internal/domain/model"
)

// memJobRepo is an in-memory AnalysisJobRepository applying the same status guards as the SQL repo.
type memJobRepo struct {
	mu      sync.Mutex
	jobs    map[string]*model.AnalysisJob
	order   []string
	percent map[string][]int
	now     func() time.Time

	// afterProgress runs after every successful progress write, outside the lock.
	afterProgress func(id string, p model.Progress)
}

var _ core.AnalysisJobRepository = (*memJobRepo)(nil)

func newMemJobRepo(now func() time.Time) *memJobRepo {
	if now == nil {
		now = time.Now
	}
	return &memJobRepo{
		jobs:    make(map[string]*model.AnalysisJob),
		percent: make(map[string][]int),
		now:     now,
	}
}

func (m *memJobRepo) Create(_ context.Context, params model.CampaignParams) (*model.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	job := &model.AnalysisJob{
		ID:        uuid.NewString(),
		Status:    model.AnalysisStatusPending,
		Params:    params,
		Progress:  model.Progress{Step: model.StepQueued, Message: "Queued", UpdatedAt: now},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	out := *job
	return &out, nil
}

func (m *memJobRepo) GetByID(_ context.Context, id string) (*model.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, data.ErrAnalysisJobNotFound
	}
	out := *job
	return &out, nil
}

func (m *memJobRepo) GetStatus(ctx context.Context, id string) (model.AnalysisStatus, error) {
	job, err := m.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return job.Status, nil
}

// transition applies fn when the job is in one of the allowed statuses.
func (m *memJobRepo) transition(id string, allowed []model.AnalysisStatus, fn func(j *model.AnalysisJob, now time.Time)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || !slices.Contains(allowed, job.Status) {
		return false
	}
	now := m.now().UTC()
	fn(job, now)
	job.UpdatedAt = now
	return true
}

// setProgress records the percent as written, then stores it without letting it drop.
func (m *memJobRepo) setProgress(j *model.AnalysisJob, p model.Progress) {
	m.percent[j.ID] = append(m.percent[j.ID], p.Percent)
	p.Percent = max(p.Percent, j.Progress.Percent)
	j.Progress = p
}

func (m *memJobRepo) MarkProcessing(_ context.Context, id string, p model.Progress) (bool, error) {
	return m.transition(id, []model.AnalysisStatus{model.AnalysisStatusPending}, func(j *model.AnalysisJob, now time.Time) {
		j.Status = model.AnalysisStatusProcessing
		j.StartedAt = &now
		j.Progress = p
		m.percent[j.ID] = append(m.percent[j.ID], p.Percent)
	}), nil
}

func (m *memJobRepo) UpdateProgress(_ context.Context, id string, p model.Progress) (bool, error) {
	ok := m.transition(id, []model.AnalysisStatus{model.AnalysisStatusProcessing}, func(j *model.AnalysisJob, _ time.Time) {
		m.setProgress(j, p)
	})
	if ok && m.afterProgress != nil {
		m.afterProgress(id, p)
	}
	return ok, nil
}

func (m *memJobRepo) UpdateMetrics(_ context.Context, id string, metrics model.AnalysisMetrics, p model.Progress) (bool, error) {
	ok := m.transition(id, []model.AnalysisStatus{model.AnalysisStatusProcessing}, func(j *model.AnalysisJob, _ time.Time) {
		j.Metrics = metrics
		m.setProgress(j, p)
	})
	if ok && m.afterProgress != nil {
		m.afterProgress(id, p)
	}
	return ok, nil
}

func (m *memJobRepo) Complete(_ context.Context, id string, r model.CompletionResult) (bool, error) {
	return m.transition(id, []model.AnalysisStatus{model.AnalysisStatusProcessing}, func(j *model.AnalysisJob, now time.Time) {
		scores, lead, ms := r.Scores, r.Lead, r.ProcessingTimeMs
		j.Status = model.AnalysisStatusCompleted
		j.Metrics = r.Metrics
		j.Scores = &scores
		j.Lead = &lead
		j.ProcessingTimeMs = &ms
		j.CompletedAt = &now
		m.setProgress(j, r.Progress)
	}), nil
}

func (m *memJobRepo) Fail(_ context.Context, id, errMsg string) (bool, error) {
	return m.transition(id, []model.AnalysisStatus{model.AnalysisStatusProcessing}, func(j *model.AnalysisJob, now time.Time) {
		j.Status = model.AnalysisStatusFailed
		j.ErrorMessage = &errMsg
		j.CompletedAt = &now
	}), nil
}

func (m *memJobRepo) Cancel(_ context.Context, id, reason string) (bool, error) {
	allowed := []model.AnalysisStatus{model.AnalysisStatusPending, model.AnalysisStatusProcessing}
	return m.transition(id, allowed, func(j *model.AnalysisJob, now time.Time) {
		j.Status = model.AnalysisStatusCancelled
		j.ErrorMessage = &reason
		j.CompletedAt = &now
	}), nil
}

func (m *memJobRepo) MarkNotified(_ context.Context, id string) error {
	m.transition(id, []model.AnalysisStatus{model.AnalysisStatusCompleted}, func(j *model.AnalysisJob, now time.Time) {
		j.NotifiedAt = &now
	})
	return nil
}

func (m *memJobRepo) ListPendingIDs(_ context.Context, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, id := range m.order {
		if len(out) == limit {
			break
		}
		if m.jobs[id].Status == model.AnalysisStatusPending {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memJobRepo) percents(id string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.percent[id])
}
