package model

// ScoreBreakdown holds the five LinkScore components and their sum.
type ScoreBreakdown struct {
	CompetitivePosition int `json:"competitive_position"`
	Performance         int `json:"performance"`
	Velocity            int `json:"velocity"`
	MarketShare         int `json:"market_share"`
	CostEfficiency      int `json:"cost_efficiency"`
	Overall             int `json:"overall"`
}

// ResultStrategy drives downstream messaging; consumers branch on these exact values.
type ResultStrategy string

const (
	StrategyCrisis       ResultStrategy = "CRISIS"
	StrategyOpportunity  ResultStrategy = "OPPORTUNITY"
	StrategyOptimization ResultStrategy = "OPTIMIZATION"
	StrategySuccess      ResultStrategy = "SUCCESS"
)

// Interpretation is derived from the overall score and never stored.
type Interpretation struct {
	Grade    string         `json:"grade"`
	Label    string         `json:"label"`
	Urgency  string         `json:"urgency"`
	Strategy ResultStrategy `json:"strategy"`
}

// LeadType classifies a lead for sales follow-up.
type LeadType string

const (
	LeadTypePriority  LeadType = "PRIORITY"
	LeadTypePotential LeadType = "POTENTIAL"
	LeadTypeNurture   LeadType = "NURTURE"
)

// LeadUrgency is the sales urgency for a lead.
type LeadUrgency string

const (
	LeadUrgencyHigh   LeadUrgency = "HIGH"
	LeadUrgencyMedium LeadUrgency = "MEDIUM"
	LeadUrgencyLow    LeadUrgency = "LOW"
)

// LeadScore is the internal sales-prioritization score, independent of the LinkScore.
type LeadScore struct {
	Priority  int         `json:"priority"`
	Potential int         `json:"potential"`
	Score     int         `json:"score"`
	Type      LeadType    `json:"type"`
	Urgency   LeadUrgency `json:"urgency"`
}

// RedFlagSeverity is the severity of a red flag.
type RedFlagSeverity string

const (
	SeverityCritical RedFlagSeverity = "critical"
	SeverityWarning  RedFlagSeverity = "warning"
)

// RedFlag describes a notable problem found during analysis.
type RedFlag struct {
	Code     string          `json:"code"`
	Severity RedFlagSeverity `json:"severity"`
	Message  string          `json:"message"`
}
