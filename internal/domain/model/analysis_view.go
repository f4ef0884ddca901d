package model

import "time"

// AnalysisStatusView is returned by the status poll.
type AnalysisStatusView struct {
	ID       string         `json:"id"`
	Status   AnalysisStatus `json:"status"`
	Progress ProgressView   `json:"progress"`
	Error    *string        `json:"error,omitempty"`
}

// ProgressView is the client-facing projection of a progress snapshot.
type ProgressView struct {
	Step      ProgressStep    `json:"step"`
	Message   string          `json:"message"`
	Percent   int             `json:"percent"`
	DataKind  PayloadKind     `json:"data_kind,omitempty"`
	Data      ProgressPayload `json:"data,omitempty"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

// SubmitAnalysisResponse is returned when a job is accepted.
type SubmitAnalysisResponse struct {
	ID     string         `json:"id"`
	Status AnalysisStatus `json:"status"`
}

// AnalysisResults is the full results document for a completed job.
type AnalysisResults struct {
	ID               string             `json:"id"`
	Score            ScoreView          `json:"score"`
	Interpretation   Interpretation     `json:"interpretation"`
	Campaign         CampaignSummary    `json:"campaign"`
	Competitive      CompetitiveSummary `json:"competitive"`
	LinkGaps         LinkGapSummary     `json:"link_gaps"`
	RedFlags         []RedFlag          `json:"red_flags"`
	Lead             LeadScore          `json:"lead"`
	ProcessingTimeMs int64              `json:"processing_time_ms"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// ScoreView is the overall score plus components.
type ScoreView struct {
	Overall    int            `json:"overall"`
	Components ScoreBreakdown `json:"components"`
}

// CampaignSummary describes the campaign and investment.
type CampaignSummary struct {
	Domain               string   `json:"domain"`
	Location             string   `json:"location"`
	Keywords             []string `json:"keywords"`
	MonthlySpend         float64  `json:"monthly_spend"`
	InvestmentMonths     int      `json:"investment_months"`
	TotalInvestment      float64  `json:"total_investment"`
	ExpectedLinks        int      `json:"expected_links"`
	CostPerAuthorityLink float64  `json:"cost_per_authority_link"`
}

// CompetitiveSummary compares the customer against competitors.
type CompetitiveSummary struct {
	CurrentLinks      int                         `json:"current_links"`
	LinksAtStart      int                         `json:"links_at_start"`
	LinksGained       int                         `json:"links_gained"`
	CompetitorAverage float64                     `json:"competitor_average"`
	Competitors       []CompetitorHistoricalEntry `json:"competitors"`
}

// LinkGapSummary carries the top opportunities and the full-set counts.
type LinkGapSummary struct {
	Total        int             `json:"total"`
	HighPriority int             `json:"high_priority"`
	Top          []LinkGapRecord `json:"top"`
}
