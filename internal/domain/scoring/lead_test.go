package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linkscore/linkscore-api/internal/domain/model"
)

func TestLead_PriorityLead(t *testing.T) {
	in := LeadInput{
		MonthlySpend:      12000,
		InvestmentMonths:  12,
		CurrentLinks:      20,
		CompetitorAverage: 100,
		HighPriorityGaps:  6,
		RedFlags: []model.RedFlag{
			{Code: FlagLostLinks, Severity: model.SeverityCritical},
		},
		LinkScore: 35,
	}

	lead := Lead(in)
	assert.Equal(t, 80, lead.Priority) // 40 spend + 30 gap + 10 flag
	assert.Equal(t, 90, lead.Potential)
	assert.Equal(t, 85, lead.Score)
	assert.Equal(t, model.LeadTypePriority, lead.Type)
	assert.Equal(t, model.LeadUrgencyHigh, lead.Urgency)
}

func TestLead_ScoreIsRoundedAverage(t *testing.T) {
	in := LeadInput{MonthlySpend: 1000, InvestmentMonths: 6, LinkScore: 85}
	lead := Lead(in)
	assert.Equal(t, 10, lead.Priority)
	assert.Equal(t, 15, lead.Potential)
	assert.Equal(t, 13, lead.Score)
	assert.Equal(t, model.LeadTypeNurture, lead.Type)
	assert.Equal(t, model.LeadUrgencyLow, lead.Urgency)
}

func TestPriorityScore_CapsCriticalFlags(t *testing.T) {
	flags := make([]model.RedFlag, 5)
	for i := range flags {
		flags[i].Severity = model.SeverityCritical
	}
	in := LeadInput{MonthlySpend: 1000, RedFlags: flags}
	assert.Equal(t, 40, PriorityScore(in))
}

func TestLeadUrgencyFor(t *testing.T) {
	assert.Equal(t, model.LeadUrgencyHigh, LeadUrgencyFor(70, 90))
	assert.Equal(t, model.LeadUrgencyHigh, LeadUrgencyFor(10, 40))
	assert.Equal(t, model.LeadUrgencyMedium, LeadUrgencyFor(40, 90))
	assert.Equal(t, model.LeadUrgencyMedium, LeadUrgencyFor(10, 60))
	assert.Equal(t, model.LeadUrgencyLow, LeadUrgencyFor(39, 61))
}

func TestLeadTypeFor(t *testing.T) {
	assert.Equal(t, model.LeadTypePriority, LeadTypeFor(70, 0))
	assert.Equal(t, model.LeadTypePotential, LeadTypeFor(69, 60))
	assert.Equal(t, model.LeadTypeNurture, LeadTypeFor(69, 59))
}

func TestCompetitiveGap(t *testing.T) {
	assert.InDelta(t, 0.5, LeadInput{CurrentLinks: 50, CompetitorAverage: 100}.CompetitiveGap(), 1e-9)
	assert.Zero(t, LeadInput{CurrentLinks: 150, CompetitorAverage: 100}.CompetitiveGap())
	assert.Zero(t, LeadInput{CurrentLinks: 10}.CompetitiveGap())
}
