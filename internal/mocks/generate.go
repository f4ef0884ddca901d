// Package mocks provides gomock implementations of the core ports for service-layer tests.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockAnalysisJobRepository(ctrl)
//	repo.EXPECT().GetStatus(gomock.Any(), "id").Return(model.AnalysisStatusProcessing, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=analysis_job_repository_mock.go github.com/linkscore/linkscore-api/internal/core AnalysisJobRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=analysis_reaper_repository_mock.go github.com/linkscore/linkscore-api/internal/core AnalysisReaperRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=database_admin_repository_mock.go github.com/linkscore/linkscore-api/internal/core DatabaseAdminRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=excluded_domain_repository_mock.go github.com/linkscore/linkscore-api/internal/core ExcludedDomainRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/linkscore/linkscore-api/internal/core CacheRepository

// Provider ports.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=backlink_provider_mock.go github.com/linkscore/linkscore-api/internal/core BacklinkProvider
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=serp_provider_mock.go github.com/linkscore/linkscore-api/internal/core SerpProvider
