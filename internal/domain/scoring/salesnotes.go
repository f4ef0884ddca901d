package scoring

import (
	"fmt"

	"github.com/linkscore/linkscore-api/internal/domain/model"
)

// SalesNotesInput is the subset of a completed analysis used to brief sales.
type SalesNotesInput struct {
	Domain            string
	Scores            model.ScoreBreakdown
	Lead              model.LeadScore
	MonthlySpend      float64
	InvestmentMonths  int
	CurrentLinks      int
	CompetitorAverage float64
	Competitors       int
	LinkGapsTotal     int
	HighPriorityGaps  int
	RedFlags          []model.RedFlag
}

// SalesNotes renders short, deterministic talking points for the completion notification.
func SalesNotes(in SalesNotesInput) []string {
	interp := Interpret(in.Scores.Overall)
	notes := []string{
		fmt.Sprintf("%s scored %d/100 (%s, %s); strategy %s.",
			in.Domain, in.Scores.Overall, interp.Grade, interp.Label, interp.Strategy),
		fmt.Sprintf("Lead %s with %s urgency (priority %d, potential %d).",
			in.Lead.Type, in.Lead.Urgency, in.Lead.Priority, in.Lead.Potential),
		fmt.Sprintf("Investing $%.0f/month for %d months ($%.0f total).",
			in.MonthlySpend, in.InvestmentMonths, in.MonthlySpend*float64(in.InvestmentMonths)),
	}

	if in.Competitors > 0 {
		notes = append(notes, fmt.Sprintf("Holds %d authority links against a competitor average of %.0f across %d competitors.",
			in.CurrentLinks, in.CompetitorAverage, in.Competitors))
	} else {
		notes = append(notes, fmt.Sprintf("Holds %d authority links; no comparable competitors were found.", in.CurrentLinks))
	}

	if in.LinkGapsTotal > 0 {
		notes = append(notes, fmt.Sprintf("%d link-gap opportunities, %d high priority.", in.LinkGapsTotal, in.HighPriorityGaps))
	}

	for _, f := range in.RedFlags {
		if f.Severity == model.SeverityCritical {
			notes = append(notes, "Critical: "+f.Message+".")
		}
	}

	switch interp.Strategy {
	case model.StrategyCrisis:
		notes = append(notes, "Lead with a recovery plan; current spend is not producing competitive authority.")
	case model.StrategyOpportunity:
		notes = append(notes, "Position targeted link acquisition against the top gap domains.")
	case model.StrategyOptimization:
		notes = append(notes, "Focus on efficiency gains and closing the remaining gaps.")
	case model.StrategySuccess:
		notes = append(notes, "Reinforce results and discuss expanding keyword coverage.")
	}

	return notes
}
