package core

import (
	"context"
	"time"

	"github.com/linkscore/linkscore-api/internal/domain/model"
)

// This file contains repository and provider interface definitions (ports in hexagonal architecture).
// Service implementations depend on these interfaces, not on concrete adapters.

// AnalysisJobRepository persists analysis jobs. Every mutating method is guarded by the
// job's current status and reports whether a row was changed.
type AnalysisJobRepository interface {
	Create(ctx context.Context, params model.CampaignParams) (*model.AnalysisJob, error)
	GetByID(ctx context.Context, id string) (*model.AnalysisJob, error)
	GetStatus(ctx context.Context, id string) (model.AnalysisStatus, error)
	// MarkProcessing moves a pending job to processing. Returns false if the job was not pending.
	MarkProcessing(ctx context.Context, id string, progress model.Progress) (bool, error)
	// UpdateProgress overwrites the snapshot while processing, ignoring lower percentages.
	UpdateProgress(ctx context.Context, id string, progress model.Progress) (bool, error)
	UpdateMetrics(ctx context.Context, id string, metrics model.AnalysisMetrics, progress model.Progress) (bool, error)
	// Complete writes scores, lead, metrics, and status in a single statement.
	Complete(ctx context.Context, id string, result model.CompletionResult) (bool, error)
	Fail(ctx context.Context, id, errMsg string) (bool, error)
	Cancel(ctx context.Context, id, reason string) (bool, error)
	MarkNotified(ctx context.Context, id string) error
	ListPendingIDs(ctx context.Context, limit int) ([]string, error)
}

// AnalysisReaperRepository defines the cleanup operations used by the stuck-job reaper.
type AnalysisReaperRepository interface {
	// FailStuckProcessing fails processing jobs whose heartbeat is older than maxAge.
	FailStuckProcessing(ctx context.Context, maxAge time.Duration, message string) (int64, error)
	// FailStalePending fails pending jobs created more than maxAge ago, up to batchSize per call.
	FailStalePending(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error)
	// CancelAllProcessing cancels every processing job.
	CancelAllProcessing(ctx context.Context, message string) (int64, error)
	ListStuck(ctx context.Context, maxAge time.Duration) ([]model.StuckAnalysisJob, error)
	// ForceFail fails a single non-terminal job regardless of age.
	ForceFail(ctx context.Context, id, message string) (bool, error)
}

// DatabaseAdminRepository exposes administrative actions against the data store itself.
type DatabaseAdminRepository interface {
	TerminateLongRunningQueries(ctx context.Context, maxAge time.Duration) (int64, error)
}

// ExcludedDomainRepository persists the domain exclusion list.
type ExcludedDomainRepository interface {
	List(ctx context.Context) ([]model.ExcludedDomain, error)
	Add(ctx context.Context, req model.CreateExcludedDomainRequest) (*model.ExcludedDomain, error)
	Delete(ctx context.Context, domain string) (bool, error)
}

// BacklinkProvider returns raw referring-domain data for a target domain.
type BacklinkProvider interface {
	ReferringDomains(ctx context.Context, target string) ([]model.ReferringDomain, error)
}

// SerpProvider returns organic search results for a keyword in a location.
type SerpProvider interface {
	OrganicResults(ctx context.Context, keyword, location string) ([]model.SerpResult, error)
}
