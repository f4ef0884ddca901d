package service

import (
	"github.com/linkscore/linkscore-api/internal/domain/model"
	"github.com/linkscore/linkscore-api/internal/domain/scoring"
	"github.com/linkscore/linkscore-api/internal/observability/notify"
)

// cancelledMessage is reported by the status poll for cancelled jobs.
const cancelledMessage = "Analysis was cancelled"

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// FormatStatus projects a job onto the status-poll view.
func FormatStatus(job *model.AnalysisJob) model.AnalysisStatusView {
	p := job.Progress
	view := model.AnalysisStatusView{
		ID:     job.ID,
		Status: job.Status,
		Progress: model.ProgressView{
			Step:    p.Step,
			Message: p.Message,
			Percent: model.ClampPercent(p.Percent),
			Data:    p.Data,
		},
	}
	if p.Data != nil {
		view.Progress.DataKind = p.Data.PayloadKind()
	}
	if !p.UpdatedAt.IsZero() {
		updated := p.UpdatedAt
		view.Progress.UpdatedAt = &updated
	}
	if view.Progress.Step == "" {
		view.Progress.Step = model.StepQueued
	}

	switch job.Status {
	case model.AnalysisStatusCompleted:
		view.Progress.Step = model.StepCompleted
		view.Progress.Percent = 100
	case model.AnalysisStatusFailed:
		view.Error = job.ErrorMessage
	case model.AnalysisStatusCancelled:
		view.Progress.Message = cancelledMessage
	case model.AnalysisStatusPending, model.AnalysisStatusProcessing:
	}
	return view
}

// FormatResults builds the results document for a job. Missing values fall back to
// zero or empty defaults so partially populated rows still render.
func FormatResults(job *model.AnalysisJob) model.AnalysisResults {
	m := job.Metrics
	p := job.Params

	var scores model.ScoreBreakdown
	if job.Scores != nil {
		scores = *job.Scores
	}
	var lead model.LeadScore
	if job.Lead != nil {
		lead = *job.Lead
	}
	var processing int64
	if job.ProcessingTimeMs != nil {
		processing = *job.ProcessingTimeMs
	}

	current := intOr(m.CurrentAuthorityLinks, 0)
	atStart := intOr(m.AuthorityLinksAtStart, 0)
	competitors := nonNil(m.CompetitorHistory)

	return model.AnalysisResults{
		ID: job.ID,
		Score: model.ScoreView{
			Overall:    scores.Overall,
			Components: scores,
		},
		Interpretation: scoring.Interpret(scores.Overall),
		Campaign:       campaignSummary(p, m),
		Competitive: model.CompetitiveSummary{
			CurrentLinks:      current,
			LinksAtStart:      atStart,
			LinksGained:       intOr(m.AuthorityLinksGained, current-atStart),
			CompetitorAverage: floatOr(m.CompetitorAverageLinks, scoring.CompetitorAverage(competitors)),
			Competitors:       competitors,
		},
		LinkGaps: model.LinkGapSummary{
			Total:        intOr(m.LinkGapsTotal, len(m.LinkGaps)),
			HighPriority: intOr(m.LinkGapsHighPriority, 0),
			Top:          nonNil(m.LinkGaps),
		},
		RedFlags:         nonNil(m.RedFlags),
		Lead:             lead,
		ProcessingTimeMs: processing,
		CompletedAt:      job.CompletedAt,
		CreatedAt:        job.CreatedAt,
	}
}

func campaignSummary(p model.CampaignParams, m model.AnalysisMetrics) model.CampaignSummary {
	return model.CampaignSummary{
		Domain:               p.Domain,
		Location:             p.LocationCode,
		Keywords:             nonNil(p.Keywords),
		MonthlySpend:         p.MonthlySpend,
		InvestmentMonths:     p.InvestmentMonths,
		TotalInvestment:      p.TotalInvestment(),
		ExpectedLinks:        scoring.ExpectedLinks(p.MonthlySpend, p.InvestmentMonths),
		CostPerAuthorityLink: floatOr(m.CostPerAuthorityLink, 0),
	}
}

// BuildCompletedEvent assembles the completion notification for a completed job.
func BuildCompletedEvent(job *model.AnalysisJob) notify.AnalysisCompletedEvent {
	results := FormatResults(job)
	return notify.AnalysisCompletedEvent{
		Event: notify.EventAnalysisCompleted,
		Analysis: notify.AnalysisMeta{
			ID:               job.ID,
			CreatedAt:        job.CreatedAt,
			CompletedAt:      job.CompletedAt,
			ProcessingTimeMs: results.ProcessingTimeMs,
		},
		Contact: notify.Contact{
			Email:  job.Params.ContactEmail,
			Domain: job.Params.Domain,
		},
		Campaign: results.Campaign,
		Results:  results,
		Lead:     results.Lead,
		SalesNotes: scoring.SalesNotes(scoring.SalesNotesInput{
			Domain:            job.Params.Domain,
			Scores:            results.Score.Components,
			Lead:              results.Lead,
			MonthlySpend:      job.Params.MonthlySpend,
			InvestmentMonths:  job.Params.InvestmentMonths,
			CurrentLinks:      results.Competitive.CurrentLinks,
			CompetitorAverage: results.Competitive.CompetitorAverage,
			Competitors:       len(results.Competitive.Competitors),
			LinkGapsTotal:     results.LinkGaps.Total,
			HighPriorityGaps:  results.LinkGaps.HighPriority,
			RedFlags:          results.RedFlags,
		}),
	}
}
