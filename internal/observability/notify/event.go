// Package notify defines the payloads and sink contracts for outbound analysis notifications.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// AnalysisFailurePayload captures the data emitted when an analysis fails.
type AnalysisFailurePayload struct {
	AnalysisID string
	Domain     string
	Step       string
	Error      string
	ErrorClass string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming analysis failure notifications.
type Sink interface {
	SendAnalysisFailure(ctx context.Context, payload AnalysisFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload AnalysisFailurePayload) error

// SendAnalysisFailure implements the Sink interface.
func (f SinkFunc) SendAnalysisFailure(ctx context.Context, payload AnalysisFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
