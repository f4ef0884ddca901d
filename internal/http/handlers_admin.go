package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/linkscore/linkscore-api/internal/domain/model"
	apperrors "github.com/linkscore/linkscore-api/internal/errors"
)

// Default windows for admin reaper routes when ?minutes is omitted.
const (
	defaultStuckMinutes = 10
	defaultQueryMinutes = 5
	maxAdminMinutes     = 7 * 24 * 60
)

// ReaperAdmin is the reaper surface exposed to administrators.
type ReaperAdmin interface {
	Cleanup(ctx context.Context, age time.Duration) (int64, error)
	KillLongRunningQueries(ctx context.Context, age time.Duration) (int64, error)
	EmergencyReset(ctx context.Context) (int64, error)
	ListStuck(ctx context.Context, age time.Duration) ([]model.StuckAnalysisJob, error)
	ForceCleanup(ctx context.Context, id string) error
}

// NotificationReplayer re-sends the completion notification for a finished analysis.
type NotificationReplayer interface {
	ReplayNotification(ctx context.Context, id string) error
}

// ExclusionAdmin manages the domain exclusion list.
type ExclusionAdmin interface {
	Stats() model.ExclusionListStats
	Refresh(ctx context.Context) (model.ExclusionListStats, error)
	Add(ctx context.Context, req model.CreateExcludedDomainRequest) (*model.ExcludedDomain, error)
}

// AdminHandlers provides HTTP handlers for operational routes.
type AdminHandlers struct {
	Reaper     ReaperAdmin
	Replayer   NotificationReplayer
	Exclusions ExclusionAdmin
	Logger     *slog.Logger
}

type countResponse struct {
	Count   int64  `json:"count"`
	Minutes int    `json:"minutes,omitempty"`
	Message string `json:"message"`
}

// CleanupStuck handles POST /api/admin/reaper/cleanup-stuck.
func (h *AdminHandlers) CleanupStuck(w http.ResponseWriter, r *http.Request) {
	minutes, err := parseMinutes(r, defaultStuckMinutes)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	n, err := h.Reaper.Cleanup(r.Context(), time.Duration(minutes)*time.Minute)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, countResponse{
		Count:   n,
		Minutes: minutes,
		Message: "failed " + strconv.FormatInt(n, 10) + " stuck analyses",
	})
}

// KillQueries handles POST /api/admin/reaper/kill-queries.
func (h *AdminHandlers) KillQueries(w http.ResponseWriter, r *http.Request) {
	minutes, err := parseMinutes(r, defaultQueryMinutes)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	n, err := h.Reaper.KillLongRunningQueries(r.Context(), time.Duration(minutes)*time.Minute)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, countResponse{
		Count:   n,
		Minutes: minutes,
		Message: "terminated " + strconv.FormatInt(n, 10) + " queries",
	})
}

// EmergencyReset handles POST /api/admin/reaper/emergency-reset.
func (h *AdminHandlers) EmergencyReset(w http.ResponseWriter, r *http.Request) {
	n, err := h.Reaper.EmergencyReset(r.Context())
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	if h.Logger != nil {
		h.Logger.WarnContext(r.Context(), "emergency reset requested", "cancelled", n)
	}
	WriteJSON(w, http.StatusOK, countResponse{
		Count:   n,
		Message: "cancelled " + strconv.FormatInt(n, 10) + " processing analyses",
	})
}

// ListStuck handles GET /api/admin/reaper/stuck.
func (h *AdminHandlers) ListStuck(w http.ResponseWriter, r *http.Request) {
	minutes, err := parseMinutes(r, defaultStuckMinutes)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	jobs, err := h.Reaper.ListStuck(r.Context(), time.Duration(minutes)*time.Minute)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	if jobs == nil {
		jobs = []model.StuckAnalysisJob{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"minutes": minutes, "count": len(jobs), "jobs": jobs})
}

// ForceCleanup handles POST /api/admin/analyses/{id}/force-cleanup.
func (h *AdminHandlers) ForceCleanup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Reaper.ForceCleanup(r.Context(), id); err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(model.AnalysisStatusFailed)})
}

// ReplayNotification handles POST /api/admin/analyses/{id}/replay-notification.
func (h *AdminHandlers) ReplayNotification(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Replayer.ReplayNotification(r.Context(), id); err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"id": id, "message": "notification delivered"})
}

// ExclusionStats handles GET /api/admin/exclusions/stats.
func (h *AdminHandlers) ExclusionStats(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, h.Exclusions.Stats())
}

// RefreshExclusions handles POST /api/admin/exclusions/refresh.
func (h *AdminHandlers) RefreshExclusions(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Exclusions.Refresh(r.Context())
	if err != nil {
		WriteAppError(w, r, h.Logger, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "exclusion list refresh failed"))
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// AddExclusion handles POST /api/admin/exclusions.
func (h *AdminHandlers) AddExclusion(w http.ResponseWriter, r *http.Request) {
	var req model.CreateExcludedDomainRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	entry, err := h.Exclusions.Add(r.Context(), req)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, entry)
}

// parseMinutes reads ?minutes, falling back to def when absent.
func parseMinutes(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("minutes")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxAdminMinutes {
		return 0, apperrors.ValidationField("minutes",
			"minutes must be an integer between 1 and "+strconv.Itoa(maxAdminMinutes))
	}
	return n, nil
}
