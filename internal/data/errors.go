package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrAnalysisJobNotFound is returned when an analysis job does not exist.
	ErrAnalysisJobNotFound = errors.New("analysis job not found")
	// ErrAnalysisJobIDRequired is returned when an operation is called without a job id.
	ErrAnalysisJobIDRequired = errors.New("analysis job id is required")

	// ErrExcludedDomainExists is returned when adding a domain that is already excluded.
	ErrExcludedDomainExists = errors.New("domain is already excluded")
)
