// Package scoring computes the LinkScore breakdown, its interpretation, and lead scores.
// Every function here is pure; callers supply already-retrieved metrics.
package scoring

import (
	"math"

	"github.com/linkscore/linkscore-api/internal/domain/model"
)

// SpendPerExpectedLink is the monthly spend that buys one expected authority link per month.
const SpendPerExpectedLink = 667.0

// Component maxima.
const (
	MaxCompetitivePosition = 30
	MaxPerformance         = 25
	MaxVelocity            = 20
	MaxMarketShare         = 15
	MaxCostEfficiency      = 10
)

// Neutral values used when there is not enough data to compare.
const (
	NeutralCompetitivePosition = 15
	NeutralPerformance         = 12
	NeutralVelocity            = 10
	NeutralMarketShare         = 8
	NeutralCostEfficiency      = 5
)

// minCompetitorsForComparison is the smallest competitor set that yields a meaningful average.
const minCompetitorsForComparison = 2

// Input is everything the scoring engine needs.
type Input struct {
	CurrentLinks     int
	LinksAtStart     int
	Competitors      []model.CompetitorHistoricalEntry
	MonthlySpend     float64
	InvestmentMonths int
}

// Gained returns the customer's authority links gained, negative when links were lost.
func (in Input) Gained() int {
	return in.CurrentLinks - in.LinksAtStart
}

// TotalInvestment returns monthly spend times months.
func (in Input) TotalInvestment() float64 {
	return in.MonthlySpend * float64(in.InvestmentMonths)
}

type breakpoint struct {
	min   float64
	score int
}

// byBreakpoints returns the score of the first breakpoint whose minimum v meets, else floor.
// Breakpoints must be ordered by descending minimum.
func byBreakpoints(v float64, bps []breakpoint, floor int) int {
	for _, bp := range bps {
		if v >= bp.min {
			return bp.score
		}
	}
	return floor
}

var (
	competitiveBreakpoints = []breakpoint{
		{1.5, 30}, {1.2, 27}, {1.0, 24}, {0.8, 20}, {0.6, 15}, {0.4, 10}, {0.2, 5},
	}
	performanceBreakpoints = []breakpoint{
		{1.5, 25}, {1.2, 22}, {1.0, 20}, {0.8, 16}, {0.6, 12}, {0.4, 8}, {0.2, 4},
	}
	velocityBreakpoints = []breakpoint{
		{1.5, 20}, {1.2, 17}, {1.0, 15}, {0.8, 12}, {0.6, 9}, {0.4, 6},
	}
	marketShareBreakpoints = []breakpoint{
		{0.02, 15}, {0.01, 13}, {0.005, 11}, {0, 8}, {-0.005, 5}, {-0.01, 3},
	}
	costEfficiencyBreakpoints = []breakpoint{
		{1.5, 10}, {1.2, 9}, {1.0, 8}, {0.8, 6}, {0.6, 4}, {0.4, 2},
	}
)

// ExpectedLinks returns round(spend*months/667).
func ExpectedLinks(monthlySpend float64, months int) int {
	if monthlySpend <= 0 || months <= 0 {
		return 0
	}
	return int(math.Round(monthlySpend * float64(months) / SpendPerExpectedLink))
}

// CompetitorAverage returns the mean current link count across competitors, or 0 when empty.
func CompetitorAverage(competitors []model.CompetitorHistoricalEntry) float64 {
	if len(competitors) == 0 {
		return 0
	}
	total := 0
	for _, c := range competitors {
		total += c.LinksNow
	}
	return float64(total) / float64(len(competitors))
}

// CostPerLink returns total investment divided by links gained.
// ok is false when no links were gained.
func CostPerLink(totalInvestment float64, gained int) (float64, bool) {
	if gained <= 0 || totalInvestment <= 0 {
		return 0, false
	}
	return totalInvestment / float64(gained), true
}

// Calculate computes all five components and the clamped overall score.
func Calculate(in Input) model.ScoreBreakdown {
	b := model.ScoreBreakdown{
		CompetitivePosition: CompetitivePosition(in.CurrentLinks, in.Competitors),
		Performance:         Performance(in.Gained(), ExpectedLinks(in.MonthlySpend, in.InvestmentMonths)),
		Velocity:            Velocity(in.Gained(), in.InvestmentMonths, in.Competitors),
		MarketShare:         MarketShare(in.CurrentLinks, in.LinksAtStart, in.Competitors),
		CostEfficiency:      CostEfficiency(in.TotalInvestment(), in.Gained(), ExpectedLinks(in.MonthlySpend, in.InvestmentMonths)),
	}
	b.Overall = clamp(b.CompetitivePosition+b.Performance+b.Velocity+b.MarketShare+b.CostEfficiency, 0, 100)
	return b
}

// CompetitivePosition scores current links against the competitor average (0-30).
func CompetitivePosition(current int, competitors []model.CompetitorHistoricalEntry) int {
	avg := CompetitorAverage(competitors)
	if len(competitors) < minCompetitorsForComparison || avg <= 0 {
		return NeutralCompetitivePosition
	}
	return byBreakpoints(float64(current)/avg, competitiveBreakpoints, 2)
}

// Performance scores links gained against the spend-driven expectation (0-25).
func Performance(gained, expected int) int {
	if expected <= 0 {
		return NeutralPerformance
	}
	if gained < 0 {
		return 0
	}
	return byBreakpoints(float64(gained)/float64(expected), performanceBreakpoints, 1)
}

// Velocity scores the customer's acquisition rate against the competitors' mean rate (0-20).
func Velocity(gained, months int, competitors []model.CompetitorHistoricalEntry) int {
	if len(competitors) < minCompetitorsForComparison || months <= 0 {
		return NeutralVelocity
	}
	total := 0
	for _, c := range competitors {
		total += c.LinksNow - c.LinksAtStart
	}
	competitorVelocity := float64(total) / float64(len(competitors)) / float64(months)
	if competitorVelocity <= 0 {
		return NeutralVelocity
	}
	customerVelocity := float64(gained) / float64(months)
	if customerVelocity <= 0 {
		return 3
	}
	return byBreakpoints(customerVelocity/competitorVelocity, velocityBreakpoints, 3)
}

// MarketShare scores the change in the customer's share of the combined link pool (0-15).
func MarketShare(current, atStart int, competitors []model.CompetitorHistoricalEntry) int {
	if len(competitors) == 0 {
		return NeutralMarketShare
	}
	poolNow, poolStart := current, atStart
	for _, c := range competitors {
		poolNow += c.LinksNow
		poolStart += c.LinksAtStart
	}
	if poolNow <= 0 || poolStart <= 0 {
		return NeutralMarketShare
	}
	return MarketShareFromChange(float64(current)/float64(poolNow) - float64(atStart)/float64(poolStart))
}

// MarketShareFromChange maps a share delta onto the market-share breakpoints.
func MarketShareFromChange(change float64) int {
	return byBreakpoints(change, marketShareBreakpoints, 1)
}

// CostEfficiency scores expected cost-per-link against actual cost-per-link (0-10).
func CostEfficiency(totalInvestment float64, gained, expected int) int {
	actual, ok := CostPerLink(totalInvestment, gained)
	if !ok || expected <= 0 {
		return NeutralCostEfficiency
	}
	expectedCPL := totalInvestment / float64(expected)
	if expectedCPL <= 0 || actual <= 0 {
		return NeutralCostEfficiency
	}
	return CostEfficiencyFromRatio(expectedCPL / actual)
}

// CostEfficiencyFromRatio maps an efficiency ratio onto the cost-efficiency breakpoints.
func CostEfficiencyFromRatio(ratio float64) int {
	if ratio <= 0 {
		return NeutralCostEfficiency
	}
	return byBreakpoints(ratio, costEfficiencyBreakpoints, 1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
