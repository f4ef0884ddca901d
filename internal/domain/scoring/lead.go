package scoring

import (
	"math"

	"github.com/linkscore/linkscore-api/internal/domain/model"
)

// LeadInput carries the sales signals used for lead scoring.
type LeadInput struct {
	MonthlySpend      float64
	InvestmentMonths  int
	CurrentLinks      int
	CompetitorAverage float64
	HighPriorityGaps  int
	RedFlags          []model.RedFlag
	LinkScore         int
}

// CompetitiveGap is the fraction by which the customer trails the competitor average.
// Zero when the customer is level or ahead, or when there is no average.
func (in LeadInput) CompetitiveGap() float64 {
	if in.CompetitorAverage <= 0 {
		return 0
	}
	gap := (in.CompetitorAverage - float64(in.CurrentLinks)) / in.CompetitorAverage
	if gap < 0 {
		return 0
	}
	return gap
}

// PriorityScore rates how urgently sales should engage (0-100).
func PriorityScore(in LeadInput) int {
	score := 0
	switch {
	case in.MonthlySpend >= 10000:
		score += 40
	case in.MonthlySpend >= 5000:
		score += 30
	case in.MonthlySpend >= 2500:
		score += 20
	default:
		score += 10
	}

	switch gap := in.CompetitiveGap(); {
	case gap >= 0.5:
		score += 30
	case gap >= 0.25:
		score += 20
	case gap > 0:
		score += 10
	}

	critical := 0
	for _, f := range in.RedFlags {
		if f.Severity == model.SeverityCritical {
			critical++
		}
	}
	score += min(critical*10, 30)

	return min(score, 100)
}

// PotentialScore rates the long-term account value (0-100).
func PotentialScore(in LeadInput) int {
	score := 0
	switch {
	case in.InvestmentMonths >= 24:
		score += 30
	case in.InvestmentMonths >= 12:
		score += 20
	default:
		score += 10
	}

	switch {
	case in.MonthlySpend >= 5000:
		score += 25
	case in.MonthlySpend >= 2500:
		score += 15
	default:
		score += 5
	}

	switch {
	case in.HighPriorityGaps >= 5:
		score += 25
	case in.HighPriorityGaps >= 1:
		score += 15
	}

	switch {
	case in.LinkScore <= 40:
		score += 20
	case in.LinkScore <= 60:
		score += 10
	}

	return min(score, 100)
}

// Lead computes the priority and potential scores and derives type and urgency.
func Lead(in LeadInput) model.LeadScore {
	priority := PriorityScore(in)
	potential := PotentialScore(in)
	return model.LeadScore{
		Priority:  priority,
		Potential: potential,
		Score:     int(math.Round(float64(priority+potential) / 2)),
		Type:      LeadTypeFor(priority, potential),
		Urgency:   LeadUrgencyFor(priority, in.LinkScore),
	}
}

// LeadTypeFor classifies a lead from its priority and potential scores.
func LeadTypeFor(priority, potential int) model.LeadType {
	switch {
	case priority >= 70:
		return model.LeadTypePriority
	case potential >= 60:
		return model.LeadTypePotential
	default:
		return model.LeadTypeNurture
	}
}

// LeadUrgencyFor combines the priority score with the LinkScore.
func LeadUrgencyFor(priority, linkScore int) model.LeadUrgency {
	switch {
	case priority >= 70 || linkScore <= 40:
		return model.LeadUrgencyHigh
	case priority >= 40 || linkScore <= 60:
		return model.LeadUrgencyMedium
	default:
		return model.LeadUrgencyLow
	}
}
