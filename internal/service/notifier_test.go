package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/linkscore/linkscore-api/internal/domain/model"
	"github.com/linkscore/linkscore-api/internal/observability/metrics"
	"github.com/linkscore/linkscore-api/internal/observability/notify"
	"github.com/linkscore/linkscore-api/internal/observability/statsd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompletionSink struct {
	name string
	err  error

	mu     sync.Mutex
	events []notify.AnalysisCompletedEvent
}

func (s *fakeCompletionSink) Name() string { return s.name }

func (s *fakeCompletionSink) SendAnalysisCompleted(_ context.Context, e notify.AnalysisCompletedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func TestCompletionNotifier_DeliversToEverySink(t *testing.T) {
	crm := &fakeCompletionSink{name: "crm", err: errors.New("502 bad gateway")}
	slack := &fakeCompletionSink{name: "slack"}
	rec := &statsd.Recorder{}
	n := NewCompletionNotifier(CompletionNotifierOptions{
		Sinks:   []notify.CompletionSink{crm, nil, slack},
		Metrics: rec,
	})
	require.True(t, n.Enabled())

	job := &model.AnalysisJob{ID: "job-1", Status: model.AnalysisStatusCompleted, Params: acmeParams()}
	err := n.NotifyCompleted(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crm")

	assert.Len(t, crm.events, 1)
	require.Len(t, slack.events, 1, "one failing sink must not block the others")
	assert.Equal(t, "job-1", slack.events[0].Analysis.ID)

	results := map[string]string{}
	for _, m := range rec.Named(metrics.MetricNotification) {
		results[m.Tags["sink"]] = m.Tags["result"]
	}
	assert.Equal(t, map[string]string{"crm": metrics.ResultError, "slack": metrics.ResultSuccess}, results)
}

func TestCompletionNotifier_Disabled(t *testing.T) {
	n := NewCompletionNotifier(CompletionNotifierOptions{})
	assert.False(t, n.Enabled())
	require.NoError(t, n.NotifyCompleted(context.Background(), &model.AnalysisJob{}))

	var nilNotifier *CompletionNotifierService
	assert.False(t, nilNotifier.Enabled())
}
