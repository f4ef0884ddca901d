package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/linkscore/linkscore-api/internal/domain/model"
	"github.com/linkscore/linkscore-api/internal/observability/metrics"
	"github.com/linkscore/linkscore-api/internal/observability/notify"
	"github.com/linkscore/linkscore-api/internal/observability/statsd"
)

// CompletionNotifierOptions groups dependencies for CompletionNotifierService.
type CompletionNotifierOptions struct {
	Sinks   []notify.CompletionSink
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// CompletionNotifierService delivers completion events to every configured sink independently.
type CompletionNotifierService struct {
	sinks   []notify.CompletionSink
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewCompletionNotifier constructs a CompletionNotifierService. Nil sinks are dropped.
func NewCompletionNotifier(opts CompletionNotifierOptions) *CompletionNotifierService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var sinks []notify.CompletionSink
	for _, s := range opts.Sinks {
		if s != nil {
			sinks = append(sinks, s)
		}
	}
	return &CompletionNotifierService{
		sinks:   sinks,
		logger:  logger.With("component", "completion_notifier"),
		metrics: opts.Metrics,
	}
}

// Enabled reports whether any sink is configured.
func (n *CompletionNotifierService) Enabled() bool {
	return n != nil && len(n.sinks) > 0
}

// NotifyCompleted builds the completion event for job and sends it to every sink.
// One sink failing does not prevent delivery to the others; all failures are joined.
func (n *CompletionNotifierService) NotifyCompleted(ctx context.Context, job *model.AnalysisJob) error {
	if !n.Enabled() {
		return nil
	}
	event := BuildCompletedEvent(job)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, sink := range n.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := sink.SendAnalysisCompleted(ctx, event)
			metrics.EmitNotification(n.metrics, sink.Name(), err)
			if err != nil {
				n.logger.WarnContext(ctx, "completion notification delivery failed",
					"sink", sink.Name(),
					"analysis_id", job.ID,
					"error", err,
				)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
				mu.Unlock()
				return
			}
			n.logger.DebugContext(ctx, "completion notification delivered", "sink", sink.Name(), "analysis_id", job.ID)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}
