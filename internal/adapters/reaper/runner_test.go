package reaper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linkscore/linkscore-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
	ran   chan struct{}
}

func (s *countingSweeper) RunScheduled(context.Context) error {
	if s.calls.Add(1) == 1 && s.ran != nil {
		close(s.ran)
	}
	return s.err
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(RunnerOptions{Config: config.ReaperConfig{Schedule: "@every 5m"}})
	require.Error(t, err)

	_, err = NewRunner(RunnerOptions{Reaper: &countingSweeper{}, Config: config.ReaperConfig{Schedule: "nope"}})
	require.Error(t, err)
}

func TestRunner_Next(t *testing.T) {
	r, err := NewRunner(RunnerOptions{Reaper: &countingSweeper{}, Config: config.ReaperConfig{Schedule: "@every 5m"}})
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(5*time.Minute), r.Next(now))
}

func TestRunner_RunOnStartAndStop(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("db down"), ran: make(chan struct{})}
	r, err := NewRunner(RunnerOptions{
		Reaper:     sweeper,
		Config:     config.ReaperConfig{Schedule: "@every 1h"},
		RunOnStart: true,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case <-sweeper.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not run on start")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Equal(t, int32(1), sweeper.calls.Load())
}
