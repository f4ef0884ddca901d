package linkgap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkscore/linkscore-api/internal/domain/model"
)

func ad(domain string, rank int) model.AuthorityDomain {
	return model.AuthorityDomain{Domain: domain, Rank: rank}
}

func TestComputeGaps_Ordering(t *testing.T) {
	customer := []model.AuthorityDomain{ad("shared.com", 60)}
	competitors := map[string][]model.AuthorityDomain{
		"rival-a.com": {ad("shared.com", 60), ad("news.com", 70), ad("blog.com", 30), ad("dir.com", 45)},
		"rival-b.com": {ad("news.com", 72), ad("dir.com", 45), ad("forum.com", 90)},
		"rival-c.com": {ad("dir.com", 45)},
	}

	res := ComputeGaps(customer, competitors)
	require.Equal(t, 4, res.Total)

	var order []string
	for _, r := range res.All {
		order = append(order, r.Domain)
	}
	// dir.com is held by 3; news.com by 2; then singles by rank desc.
	assert.Equal(t, []string{"dir.com", "news.com", "forum.com", "blog.com"}, order)

	assert.Equal(t, []string{"rival-a.com", "rival-b.com", "rival-c.com"}, res.All[0].Competitors)
	assert.Equal(t, model.GapPriorityHigh, res.All[0].Priority)
	assert.Equal(t, 72, res.All[1].Rank, "rank is the max observed across competitors")
	assert.Equal(t, model.GapPriorityHigh, res.All[1].Priority)
	assert.Equal(t, model.GapPriorityMedium, res.All[2].Priority)
	assert.Equal(t, model.GapPriorityLow, res.All[3].Priority)
	assert.Equal(t, 2, res.HighPriority)
}

func TestComputeGaps_IgnoresHostVariantsOwnedByCustomer(t *testing.T) {
	customer := []model.AuthorityDomain{ad("www.example.org", 50)}
	competitors := map[string][]model.AuthorityDomain{
		"rival.com": {ad("example.org", 50), ad("WWW.Other.org", 40)},
	}

	res := ComputeGaps(customer, competitors)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "other.org", res.All[0].Domain)
}

func lost(domain string, rank int) model.AuthorityDomain {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return model.AuthorityDomain{Domain: domain, Rank: rank, LostAt: &at}
}

func TestComputeGaps_IgnoresLostLinks(t *testing.T) {
	customer := []model.AuthorityDomain{lost("dropped.org", 55), ad("kept.org", 50)}
	competitors := map[string][]model.AuthorityDomain{
		"rival.com":  {lost("gone.com", 60), ad("dropped.org", 55), ad("kept.org", 50)},
		"rival2.com": {lost("gone.com", 60), lost("dropped.org", 55)},
	}

	res := ComputeGaps(customer, competitors)
	require.Equal(t, 1, res.Total)

	gap := res.All[0]
	assert.Equal(t, "dropped.org", gap.Domain, "a link the customer lost is an opportunity again")
	assert.Equal(t, []string{"rival.com"}, gap.Competitors, "competitors that lost the link do not hold it")
	assert.Equal(t, model.GapPriorityMedium, gap.Priority)
	assert.Zero(t, res.HighPriority)
}

func TestComputeGaps_AllCompetitorLinksLost(t *testing.T) {
	competitors := map[string][]model.AuthorityDomain{
		"rival.com":  {lost("gone.com", 60)},
		"rival2.com": {lost("gone.com", 60)},
	}

	res := ComputeGaps(nil, competitors)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.All)
}

func TestComputeGaps_Empty(t *testing.T) {
	res := ComputeGaps(nil, nil)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Top(10))
}

func TestResult_Top(t *testing.T) {
	competitors := map[string][]model.AuthorityDomain{"rival.com": {}}
	for i := 0; i < 15; i++ {
		competitors["rival.com"] = append(competitors["rival.com"], ad(string(rune('a'+i))+".net", 20+i))
	}

	res := ComputeGaps(nil, competitors)
	top := res.Top(DefaultTopN)
	require.Len(t, top, DefaultTopN)
	assert.Equal(t, 15, res.Total)
	assert.Equal(t, "o.net", top[0].Domain)
	assert.Len(t, res.All, 15, "full set is retained")
}

func TestPriorityFor(t *testing.T) {
	assert.Equal(t, model.GapPriorityHigh, PriorityFor(3, 20))
	assert.Equal(t, model.GapPriorityHigh, PriorityFor(2, 50))
	assert.Equal(t, model.GapPriorityMedium, PriorityFor(2, 49))
	assert.Equal(t, model.GapPriorityMedium, PriorityFor(1, 40))
	assert.Equal(t, model.GapPriorityLow, PriorityFor(1, 39))
}
