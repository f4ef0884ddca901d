// Package metrics defines the analysis-pipeline metric names and tag conventions.
package metrics

import (
	"maps"
	"time"

	obserrors "github.com/linkscore/linkscore-api/internal/observability/errors"
	"github.com/linkscore/linkscore-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Metric names.
const (
	MetricAnalysisSubmitted  = "analysis.submitted"
	MetricAnalysisTransition = "analysis.transition"
	MetricAnalysisDuration   = "analysis.duration"
	MetricStageDuration      = "analysis.stage.duration"
	MetricNotification       = "analysis.notification"
	MetricReaperJobs         = "reaper.jobs"
	MetricReaperQueries      = "reaper.queries_terminated"
	MetricExclusionRefresh   = "exclusions.refresh"
	MetricExclusionEntries   = "exclusions.entries"
)

// Transition is a lifecycle event for an analysis job.
type Transition struct {
	// To is the status the job moved to (or attempted to).
	To       string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitTransition emits a lifecycle counter and, when a duration is known, the total job duration.
func EmitTransition(sink statsd.Sink, in Transition) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"to":     in.To,
		"result": in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count(MetricAnalysisTransition, 1, tags)
	if in.Duration > 0 {
		sink.Timing(MetricAnalysisDuration, in.Duration, maps.Clone(tags))
	}
}

// EmitStage records the duration of one pipeline stage.
func EmitStage(sink statsd.Sink, stage string, d time.Duration, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"stage": stage, "result": ResultSuccess}
	if err != nil {
		tags["result"] = ResultError
		tags["error_class"] = obserrors.Classify(err)
	}
	sink.Timing(MetricStageDuration, d, tags)
}

// EmitSubmission counts a submission attempt by outcome (accepted, rate_limited, excluded, invalid).
func EmitSubmission(sink statsd.Sink, outcome string) {
	if sink == nil {
		return
	}
	sink.Count(MetricAnalysisSubmitted, 1, map[string]string{"outcome": outcome})
}

// EmitNotification counts a completion delivery attempt per sink.
func EmitNotification(sink statsd.Sink, name string, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"sink": name, "result": ResultSuccess}
	if err != nil {
		tags["result"] = ResultError
	}
	sink.Count(MetricNotification, 1, tags)
}

// EmitReaper reports how many jobs or queries a reaper action affected.
func EmitReaper(sink statsd.Sink, action string, n int64, err error) {
	if sink == nil {
		return
	}
	name := MetricReaperJobs
	if action == "kill_queries" {
		name = MetricReaperQueries
	}
	tags := map[string]string{"action": action, "result": resultFor(n, err)}
	sink.Count(name, n, tags)
}

func resultFor(n int64, err error) string {
	switch {
	case err != nil:
		return ResultError
	case n == 0:
		return ResultNoop
	default:
		return ResultSuccess
	}
}
