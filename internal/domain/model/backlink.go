package model

import "time"

// ReferringDomain is a referring domain as reported by the backlink provider, before normalization.
type ReferringDomain struct {
	Domain    string     `json:"domain"`
	Rank      float64    `json:"rank"`
	SpamScore int        `json:"spam_score"`
	Traffic   int64      `json:"traffic"`
	Backlinks int        `json:"backlinks"`
	FirstSeen *time.Time `json:"first_seen,omitempty"`
	LostAt    *time.Time `json:"lost_at,omitempty"`
}

// AuthorityDomain is a canonicalized referring domain that passed the authority filters.
// Rank is on a 0-100 scale.
type AuthorityDomain struct {
	Domain    string     `json:"domain"`
	Rank      int        `json:"rank"`
	SpamScore int        `json:"spam_score"`
	Traffic   int64      `json:"traffic"`
	Backlinks int        `json:"backlinks"`
	FirstSeen *time.Time `json:"first_seen,omitempty"`
	LostAt    *time.Time `json:"lost_at,omitempty"`
}

// Lost reports whether the provider marked every backlink from this domain as lost.
func (d AuthorityDomain) Lost() bool {
	return d.LostAt != nil
}

// LiveAt reports whether the domain was linking at t.
// Unknown first-seen dates are treated as linking since before t.
func (d AuthorityDomain) LiveAt(t time.Time) bool {
	if d.FirstSeen != nil && d.FirstSeen.After(t) {
		return false
	}
	if d.LostAt != nil && !d.LostAt.After(t) {
		return false
	}
	return true
}

// LinkHistory is the authority-link count now and at campaign start.
type LinkHistory struct {
	Now     int
	AtStart int
}

// Gained returns Now minus AtStart; negative when links were lost.
func (h LinkHistory) Gained() int {
	return h.Now - h.AtStart
}

// SerpResult is one organic search result for a keyword in a location.
type SerpResult struct {
	Keyword  string `json:"keyword"`
	Domain   string `json:"domain"`
	Position int    `json:"position"`
}

// CompetitorCandidate is an aggregated domain seen across the keyword set.
type CompetitorCandidate struct {
	Domain       string  `json:"domain"`
	KeywordCount int     `json:"keyword_count"`
	AvgPosition  float64 `json:"avg_position"`
}

// GapPriority ranks link-gap opportunities.
type GapPriority string

const (
	GapPriorityHigh   GapPriority = "high"
	GapPriorityMedium GapPriority = "medium"
	GapPriorityLow    GapPriority = "low"
)

// LinkGapRecord is a referring domain linking to competitors but not to the customer.
type LinkGapRecord struct {
	Domain      string      `json:"domain"`
	Rank        int         `json:"rank"`
	Competitors []string    `json:"competitors"`
	Priority    GapPriority `json:"priority"`
}
