package scoring

import "github.com/linkscore/linkscore-api/internal/domain/model"

type band struct {
	min     int
	grade   string
	label   string
	urgency string
}

var bands = []band{
	{90, "A+", "Exceptional", "low"},
	{80, "A", "Excellent", "low"},
	{70, "B+", "Very Good", "low"},
	{60, "B", "Good", "moderate"},
	{50, "C+", "Average", "moderate"},
	{40, "C", "Below Average", "high"},
	{30, "D", "Poor", "high"},
}

var failBand = band{0, "F", "Critical", "critical"}

func bandFor(score int) band {
	for _, b := range bands {
		if score >= b.min {
			return b
		}
	}
	return failBand
}

// Grade returns the letter grade for an overall LinkScore.
func Grade(score int) string {
	return bandFor(score).grade
}

// Strategy classifies the overall score for downstream messaging.
func Strategy(score int) model.ResultStrategy {
	switch {
	case score <= 40:
		return model.StrategyCrisis
	case score <= 60:
		return model.StrategyOpportunity
	case score < 80:
		return model.StrategyOptimization
	default:
		return model.StrategySuccess
	}
}

// Interpret returns grade, label, urgency, and strategy for an overall score.
func Interpret(score int) model.Interpretation {
	b := bandFor(score)
	return model.Interpretation{
		Grade:    b.grade,
		Label:    b.label,
		Urgency:  b.urgency,
		Strategy: Strategy(score),
	}
}
