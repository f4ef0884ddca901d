package model

import "time"

// ExcludedDomain is a domain that may not be analyzed and is never treated as a competitor.
// Subdomains of an excluded domain are excluded too.
type ExcludedDomain struct {
	ID        string    `json:"id"         db:"id"`
	Domain    string    `json:"domain"     db:"domain"`
	Reason    string    `json:"reason"     db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateExcludedDomainRequest adds a domain to the exclusion list.
type CreateExcludedDomainRequest struct {
	Domain string `json:"domain" validate:"required,fqdn,max=253"`
	Reason string `json:"reason" validate:"max=500"`
}

// ExclusionListStats reports the state of the in-process exclusion-list snapshot.
type ExclusionListStats struct {
	Entries    int        `json:"entries"`
	LoadedAt   *time.Time `json:"loaded_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Hits       int64      `json:"hits"`
	Misses     int64      `json:"misses"`
	Refreshes  int64      `json:"refreshes"`
	LastError  string     `json:"last_error,omitempty"`
	Source     string     `json:"source,omitempty"`
	TTLSeconds int        `json:"ttl_seconds"`
}
