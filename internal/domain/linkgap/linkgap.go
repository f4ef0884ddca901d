// Package linkgap diffs the customer's authority domains against competitors' to find link opportunities.
package linkgap

import (
	"sort"

	"github.com/linkscore/linkscore-api/internal/domain/hostname"
	"github.com/linkscore/linkscore-api/internal/domain/model"
)

// DefaultTopN is the number of opportunities exposed to consumers.
const DefaultTopN = 10

// Result holds the full ordered gap set plus its counts.
type Result struct {
	All          []model.LinkGapRecord
	Total        int
	HighPriority int
}

// Top returns at most n records from the front of the ordered set.
func (r Result) Top(n int) []model.LinkGapRecord {
	if n <= 0 || n >= len(r.All) {
		out := make([]model.LinkGapRecord, len(r.All))
		copy(out, r.All)
		return out
	}
	out := make([]model.LinkGapRecord, n)
	copy(out, r.All[:n])
	return out
}

// ComputeGaps finds referring domains held by at least one competitor but not by the customer.
// competitors maps competitor domain to its authority-domain set. Only live links count on
// either side: a lost competitor link is no gap, and a lost customer link is one again.
// Records are ordered by competitor count desc, then rank desc, then domain asc.
func ComputeGaps(customer []model.AuthorityDomain, competitors map[string][]model.AuthorityDomain) Result {
	owned := make(map[string]struct{}, len(customer))
	for _, d := range customer {
		if d.Lost() {
			continue
		}
		owned[hostname.Canonical(d.Domain)] = struct{}{}
	}

	type agg struct {
		rank    int
		holders map[string]struct{}
	}
	gaps := make(map[string]*agg)

	for competitor, domains := range competitors {
		for _, d := range domains {
			key := hostname.Canonical(d.Domain)
			if key == "" || d.Lost() {
				continue
			}
			if _, ok := owned[key]; ok {
				continue
			}
			g, ok := gaps[key]
			if !ok {
				g = &agg{holders: make(map[string]struct{})}
				gaps[key] = g
			}
			g.holders[competitor] = struct{}{}
			if d.Rank > g.rank {
				g.rank = d.Rank
			}
		}
	}

	records := make([]model.LinkGapRecord, 0, len(gaps))
	for domain, g := range gaps {
		holders := make([]string, 0, len(g.holders))
		for h := range g.holders {
			holders = append(holders, h)
		}
		sort.Strings(holders)
		records = append(records, model.LinkGapRecord{
			Domain:      domain,
			Rank:        g.rank,
			Competitors: holders,
			Priority:    PriorityFor(len(holders), g.rank),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if len(a.Competitors) != len(b.Competitors) {
			return len(a.Competitors) > len(b.Competitors)
		}
		if a.Rank != b.Rank {
			return a.Rank > b.Rank
		}
		return a.Domain < b.Domain
	})

	res := Result{All: records, Total: len(records)}
	for _, r := range records {
		if r.Priority == model.GapPriorityHigh {
			res.HighPriority++
		}
	}
	return res
}

// PriorityFor assigns a tier from the number of competitors holding the domain and its rank.
func PriorityFor(holders, rank int) model.GapPriority {
	switch {
	case holders >= 3, holders >= 2 && rank >= 50:
		return model.GapPriorityHigh
	case holders >= 2, rank >= 40:
		return model.GapPriorityMedium
	default:
		return model.GapPriorityLow
	}
}
