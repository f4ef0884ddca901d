// Package model defines the core data types shared across the LinkScore analysis pipeline.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AnalysisStatus represents the lifecycle state of an analysis job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type AnalysisStatus string

const (
	// AnalysisStatusPending indicates the job was created and is waiting for a worker.
	AnalysisStatusPending AnalysisStatus = "pending"
	// AnalysisStatusProcessing indicates the orchestrator owns the job.
	AnalysisStatusProcessing AnalysisStatus = "processing"
	// AnalysisStatusCompleted indicates every stage ran and all score components are stored.
	AnalysisStatusCompleted AnalysisStatus = "completed"
	// AnalysisStatusFailed indicates a stage failed or the job was reaped.
	AnalysisStatusFailed AnalysisStatus = "failed"
	// AnalysisStatusCancelled indicates the job was cancelled by a caller or an administrator.
	AnalysisStatusCancelled AnalysisStatus = "cancelled"
)

// ErrInvalidTransition is returned when a status change would leave a terminal state
// or skip backwards along the lifecycle.
var ErrInvalidTransition = errors.New("invalid analysis status transition")

// Valid returns true if the status is one of the known values.
func (s AnalysisStatus) Valid() bool {
	switch s {
	case AnalysisStatusPending, AnalysisStatusProcessing, AnalysisStatusCompleted,
		AnalysisStatusFailed, AnalysisStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s AnalysisStatus) Terminal() bool {
	return s == AnalysisStatusCompleted || s == AnalysisStatusFailed || s == AnalysisStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed.
// pending may move to processing, failed, or cancelled; processing may move to any terminal state.
func (s AnalysisStatus) CanTransitionTo(next AnalysisStatus) bool {
	switch s {
	case AnalysisStatusPending:
		return next == AnalysisStatusProcessing || next == AnalysisStatusFailed || next == AnalysisStatusCancelled
	case AnalysisStatusProcessing:
		return next.Terminal()
	case AnalysisStatusCompleted, AnalysisStatusFailed, AnalysisStatusCancelled:
		return false
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler so statuses can be parsed from flags and query strings.
func (s *AnalysisStatus) UnmarshalText(text []byte) error {
	v := AnalysisStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid AnalysisStatus: %q", v)
	}
	*s = v
	return nil
}

// CampaignParams are the immutable inputs captured at submission time.
type CampaignParams struct {
	Domain           string   `json:"domain"`
	ContactEmail     string   `json:"contact_email"`
	LocationCode     string   `json:"location"`
	MonthlySpend     float64  `json:"monthly_spend"`
	InvestmentMonths int      `json:"investment_months"`
	Keywords         []string `json:"keywords"`
}

// TotalInvestment is the monthly spend multiplied by the campaign duration.
func (p CampaignParams) TotalInvestment() float64 {
	return p.MonthlySpend * float64(p.InvestmentMonths)
}

// CampaignStart returns the estimated campaign start relative to now.
func (p CampaignParams) CampaignStart(now time.Time) time.Time {
	return now.AddDate(0, -p.InvestmentMonths, 0)
}

// AnalysisMetrics holds the derived values written progressively by the orchestrator.
// Pointer fields stay nil until the stage that produces them has run.
type AnalysisMetrics struct {
	CurrentAuthorityLinks  *int                        `json:"current_authority_links,omitempty"`
	AuthorityLinksAtStart  *int                        `json:"authority_links_at_start,omitempty"`
	AuthorityLinksGained   *int                        `json:"authority_links_gained,omitempty"`
	CompetitorAverageLinks *float64                    `json:"competitor_average_links,omitempty"`
	Competitors            []string                    `json:"competitors,omitempty"`
	CompetitorHistory      []CompetitorHistoricalEntry `json:"competitor_history,omitempty"`
	LinkGaps               []LinkGapRecord             `json:"link_gaps,omitempty"`
	LinkGapsTotal          *int                        `json:"link_gaps_total,omitempty"`
	LinkGapsHighPriority   *int                        `json:"link_gaps_high_priority,omitempty"`
	RedFlags               []RedFlag                   `json:"red_flags,omitempty"`
	CostPerAuthorityLink   *float64                    `json:"cost_per_authority_link,omitempty"`
}

// CompetitorHistoricalEntry records a competitor's authority-link count at campaign start and now.
type CompetitorHistoricalEntry struct {
	Domain       string `json:"domain"`
	LinksAtStart int    `json:"links_at_start"`
	LinksNow     int    `json:"links_now"`
}

// AnalysisJob is the persisted record driven through the analysis lifecycle.
type AnalysisJob struct {
	ID               string          `json:"id"                           db:"id"`
	Status           AnalysisStatus  `json:"status"                       db:"status"`
	Params           CampaignParams  `json:"params"                       db:"params"`
	Metrics          AnalysisMetrics `json:"metrics"                      db:"metrics"`
	Scores           *ScoreBreakdown `json:"scores,omitempty"             db:"scores"`
	Lead             *LeadScore      `json:"lead,omitempty"               db:"lead"`
	Progress         Progress        `json:"progress"                     db:"progress"`
	ErrorMessage     *string         `json:"error_message,omitempty"      db:"error_message"`
	ProcessingTimeMs *int64          `json:"processing_time_ms,omitempty" db:"processing_time_ms"`
	CreatedAt        time.Time       `json:"created_at"                   db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"                   db:"updated_at"`
	StartedAt        *time.Time      `json:"started_at,omitempty"         db:"started_at"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"       db:"completed_at"`
	NotifiedAt       *time.Time      `json:"notified_at,omitempty"        db:"notified_at"`
}

// SubmitAnalysisRequest is the boundary input for creating an analysis job.
type SubmitAnalysisRequest struct {
	Domain           string   `json:"domain"            validate:"required,fqdn,max=253"`
	ContactEmail     string   `json:"contact_email"     validate:"required,email,max=320"`
	LocationCode     string   `json:"location"          validate:"required,max=100"`
	MonthlySpend     float64  `json:"monthly_spend"     validate:"gte=1000"`
	InvestmentMonths int      `json:"investment_months" validate:"gte=6,lte=120"`
	Keywords         []string `json:"keywords"          validate:"min=2,max=5,unique,dive,required,max=100"`
}

// Params converts the request into campaign parameters.
func (r *SubmitAnalysisRequest) Params() CampaignParams {
	keywords := make([]string, len(r.Keywords))
	copy(keywords, r.Keywords)
	return CampaignParams{
		Domain:           r.Domain,
		ContactEmail:     r.ContactEmail,
		LocationCode:     r.LocationCode,
		MonthlySpend:     r.MonthlySpend,
		InvestmentMonths: r.InvestmentMonths,
		Keywords:         keywords,
	}
}

// CompletionResult carries everything written atomically when a job completes.
type CompletionResult struct {
	Metrics          AnalysisMetrics
	Scores           ScoreBreakdown
	Lead             LeadScore
	ProcessingTimeMs int64
	Progress         Progress
}

// StuckAnalysisJob is a lightweight view returned by the reaper listing.
type StuckAnalysisJob struct {
	ID        string         `json:"id"`
	Domain    string         `json:"domain"`
	Status    AnalysisStatus `json:"status"`
	Step      ProgressStep   `json:"step"`
	Percent   int            `json:"percent"`
	StartedAt *time.Time     `json:"started_at,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}
