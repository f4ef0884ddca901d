package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linkscore/linkscore-api/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingRunner struct {
	release chan struct{}
	running atomic.Int32
	peak    atomic.Int32

	mu   sync.Mutex
	runs []string
}

func (r *blockingRunner) Run(ctx context.Context, id string) error {
	n := r.running.Add(1)
	defer r.running.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}
	r.mu.Lock()
	r.runs = append(r.runs, id)
	r.mu.Unlock()

	select {
	case <-r.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func TestDispatcher_BoundsConcurrencyAndDedupes(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	d, err := NewDispatcher(context.Background(), DispatcherOptions{Runner: runner, Concurrency: 2})
	require.NoError(t, err)

	assert.True(t, d.Dispatch("a"))
	assert.False(t, d.Dispatch("a"), "in-flight job must not be dispatched twice")
	assert.True(t, d.Dispatch("b"))
	assert.True(t, d.Dispatch("c"))
	assert.Equal(t, 3, d.InFlight())
	assert.Equal(t, 0, d.Available())

	require.Eventually(t, func() bool { return runner.running.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(runner.release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	assert.Equal(t, int32(2), runner.peak.Load())
	assert.ElementsMatch(t, []string{"a", "b", "c"}, runner.runs)
	assert.False(t, d.Dispatch("d"), "dispatch after shutdown is rejected")
}

func TestDispatcher_ShutdownDeadlineCancelsRuns(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	d, err := NewDispatcher(context.Background(), DispatcherOptions{Runner: runner, Concurrency: 1})
	require.NoError(t, err)

	d.Dispatch("slow")
	require.Eventually(t, func() bool { return runner.running.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = d.Shutdown(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, d.InFlight())
}

func TestAnalysisWorker_ResumePending(t *testing.T) {
	repo := newMemJobRepo(nil)
	ctx := context.Background()
	for range 3 {
		_, err := repo.Create(ctx, model.CampaignParams{Domain: "acme.com.au"})
		require.NoError(t, err)
	}

	runner := &blockingRunner{release: make(chan struct{})}
	close(runner.release)
	d, err := NewDispatcher(ctx, DispatcherOptions{Runner: runner, Concurrency: 2})
	require.NoError(t, err)
	w, err := NewAnalysisWorker(AnalysisWorkerOptions{Repo: repo, Dispatcher: d, BatchSize: 10})
	require.NoError(t, err)

	n, err := w.ResumePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "limited by free dispatcher slots")

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(shutdownCtx))
}

func TestAnalysisWorker_RunStopsOnCancel(t *testing.T) {
	repo := newMemJobRepo(nil)
	runner := &blockingRunner{release: make(chan struct{})}
	d, err := NewDispatcher(context.Background(), DispatcherOptions{Runner: runner})
	require.NoError(t, err)
	w, err := NewAnalysisWorker(AnalysisWorkerOptions{Repo: repo, Dispatcher: d, PollInterval: 10 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	_, err = repo.Create(context.Background(), model.CampaignParams{Domain: "late.com.au"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return runner.running.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	close(runner.release)
}
