package httpx

import (
	"log/slog"
	"net/http"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Analyses AnalysisAPI // Required

	// Admin routes are mounted only when AdminToken is set.
	AdminToken string
	Reaper     ReaperAdmin
	Replayer   NotificationReplayer
	Exclusions ExclusionAdmin

	// Readiness checks served on /readyz, keyed by dependency name.
	Readiness map[string]HealthCheck

	TrustProxyHeaders bool
	Logger            *slog.Logger
}

// NewRouter creates the API router wrapped in logging and panic recovery.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readinessHandler(services.Readiness))

	registerAnalysisRoutes(mux, &AnalysisHandlers{
		Svc:        services.Analyses,
		TrustProxy: services.TrustProxyHeaders,
		Logger:     logger,
	})

	if services.AdminToken != "" {
		registerAdminRoutes(mux, &AdminHandlers{
			Reaper:     services.Reaper,
			Replayer:   services.Replayer,
			Exclusions: services.Exclusions,
			Logger:     logger,
		}, RequireAdminToken(services.AdminToken))
	} else {
		logger.Info("admin API disabled: ADMIN_API_TOKEN not set")
	}

	return Recover(logger)(Logging(logger)(mux))
}

func registerAnalysisRoutes(mux *http.ServeMux, h *AnalysisHandlers) {
	mux.HandleFunc("POST /api/analyses", h.Submit)
	mux.HandleFunc("GET /api/analyses/{id}/status", h.Status)
	mux.HandleFunc("GET /api/analyses/{id}/results", h.Results)
	mux.HandleFunc("POST /api/analyses/{id}/cancel", h.Cancel)
}

func registerAdminRoutes(mux *http.ServeMux, h *AdminHandlers, auth func(http.Handler) http.Handler) {
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, auth(fn))
	}

	if h.Reaper != nil {
		handle("POST /api/admin/reaper/cleanup-stuck", h.CleanupStuck)
		handle("POST /api/admin/reaper/kill-queries", h.KillQueries)
		handle("POST /api/admin/reaper/emergency-reset", h.EmergencyReset)
		handle("GET /api/admin/reaper/stuck", h.ListStuck)
		handle("POST /api/admin/analyses/{id}/force-cleanup", h.ForceCleanup)
	}
	if h.Replayer != nil {
		handle("POST /api/admin/analyses/{id}/replay-notification", h.ReplayNotification)
	}
	if h.Exclusions != nil {
		handle("GET /api/admin/exclusions/stats", h.ExclusionStats)
		handle("POST /api/admin/exclusions/refresh", h.RefreshExclusions)
		handle("POST /api/admin/exclusions", h.AddExclusion)
	}
}
