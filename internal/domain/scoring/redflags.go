package scoring

import (
	"fmt"

	"github.com/linkscore/linkscore-api/internal/domain/model"
)

// Red flag codes.
const (
	FlagLostLinks        = "LOST_LINKS"
	FlagCompetitiveGap   = "COMPETITIVE_GAP"
	FlagUnderperformance = "UNDERPERFORMANCE"
	FlagHighCostPerLink  = "HIGH_COST_PER_LINK"
)

// RedFlags inspects the scoring input and returns problems worth surfacing, most severe first.
func RedFlags(in Input) []model.RedFlag {
	var flags []model.RedFlag
	gained := in.Gained()

	if gained < 0 {
		flags = append(flags, model.RedFlag{
			Code:     FlagLostLinks,
			Severity: model.SeverityCritical,
			Message:  fmt.Sprintf("Net loss of %d authority links since the campaign started", -gained),
		})
	}

	if len(in.Competitors) >= minCompetitorsForComparison {
		if avg := CompetitorAverage(in.Competitors); avg > 0 {
			ratio := float64(in.CurrentLinks) / avg
			switch {
			case ratio < 0.5:
				flags = append(flags, model.RedFlag{
					Code:     FlagCompetitiveGap,
					Severity: model.SeverityCritical,
					Message:  fmt.Sprintf("Authority links are %.0f%% of the competitor average (%.0f)", ratio*100, avg),
				})
			case ratio < 0.8:
				flags = append(flags, model.RedFlag{
					Code:     FlagCompetitiveGap,
					Severity: model.SeverityWarning,
					Message:  fmt.Sprintf("Authority links are %.0f%% of the competitor average (%.0f)", ratio*100, avg),
				})
			}
		}
	}

	expected := ExpectedLinks(in.MonthlySpend, in.InvestmentMonths)
	if expected > 0 && gained >= 0 {
		ratio := float64(gained) / float64(expected)
		switch {
		case ratio < 0.25:
			flags = append(flags, model.RedFlag{
				Code:     FlagUnderperformance,
				Severity: model.SeverityCritical,
				Message:  fmt.Sprintf("Gained %d authority links against %d expected for the spend", gained, expected),
			})
		case ratio < 0.5:
			flags = append(flags, model.RedFlag{
				Code:     FlagUnderperformance,
				Severity: model.SeverityWarning,
				Message:  fmt.Sprintf("Gained %d authority links against %d expected for the spend", gained, expected),
			})
		}
	}

	if actual, ok := CostPerLink(in.TotalInvestment(), gained); ok && expected > 0 {
		expectedCPL := in.TotalInvestment() / float64(expected)
		if actual > 2*expectedCPL {
			flags = append(flags, model.RedFlag{
				Code:     FlagHighCostPerLink,
				Severity: model.SeverityWarning,
				Message:  fmt.Sprintf("Cost per authority link is $%.0f against a $%.0f benchmark", actual, expectedCPL),
			})
		}
	}

	return sortBySeverity(flags)
}

func sortBySeverity(flags []model.RedFlag) []model.RedFlag {
	out := make([]model.RedFlag, 0, len(flags))
	for _, f := range flags {
		if f.Severity == model.SeverityCritical {
			out = append(out, f)
		}
	}
	for _, f := range flags {
		if f.Severity != model.SeverityCritical {
			out = append(out, f)
		}
	}
	return out
}

// CountCritical returns the number of critical flags.
func CountCritical(flags []model.RedFlag) int {
	n := 0
	for _, f := range flags {
		if f.Severity == model.SeverityCritical {
			n++
		}
	}
	return n
}
