package notify

import (
	"context"
	"time"

	"github.com/linkscore/linkscore-api/internal/domain/model"
)

// EventAnalysisCompleted is the event name carried by AnalysisCompletedEvent.
const EventAnalysisCompleted = "analysis.completed"

// AnalysisCompletedEvent is delivered to every completion sink when an analysis completes.
type AnalysisCompletedEvent struct {
	Event      string                `json:"event"`
	Analysis   AnalysisMeta          `json:"analysis"`
	Contact    Contact               `json:"contact"`
	Campaign   model.CampaignSummary `json:"campaign"`
	Results    model.AnalysisResults `json:"results"`
	Lead       model.LeadScore       `json:"lead"`
	SalesNotes []string              `json:"sales_notes"`
}

// AnalysisMeta identifies the analysis an event refers to.
type AnalysisMeta struct {
	ID               string     `json:"id"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ProcessingTimeMs int64      `json:"processing_time_ms"`
}

// Contact is the submitter of an analysis.
type Contact struct {
	Email  string `json:"email"`
	Domain string `json:"domain"`
}

// CompletionSink consumes analysis-completed events.
type CompletionSink interface {
	Name() string
	SendAnalysisCompleted(ctx context.Context, event AnalysisCompletedEvent) error
}
