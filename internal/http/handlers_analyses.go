// Package httpx provides the HTTP API for submitting and tracking backlink analyses.
package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/linkscore/linkscore-api/internal/domain/model"
)

// AnalysisAPI is the service surface behind the public analysis routes.
type AnalysisAPI interface {
	Submit(ctx context.Context, req model.SubmitAnalysisRequest, clientKey string) (*model.SubmitAnalysisResponse, error)
	Status(ctx context.Context, id string) (*model.AnalysisStatusView, error)
	Results(ctx context.Context, id string) (*model.AnalysisResults, error)
	Cancel(ctx context.Context, id string) (*model.AnalysisStatusView, error)
}

// AnalysisHandlers provides HTTP handlers for analysis jobs.
type AnalysisHandlers struct {
	Svc        AnalysisAPI
	TrustProxy bool
	Logger     *slog.Logger
}

// Submit handles POST /api/analyses.
func (h *AnalysisHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitAnalysisRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	resp, err := h.Svc.Submit(r.Context(), req, ClientIP(r, h.TrustProxy))
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	w.Header().Set("Location", "/api/analyses/"+resp.ID+"/status")
	WriteJSON(w, http.StatusAccepted, resp)
}

// Status handles GET /api/analyses/{id}/status.
func (h *AnalysisHandlers) Status(w http.ResponseWriter, r *http.Request) {
	view, err := h.Svc.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, view)
}

// Results handles GET /api/analyses/{id}/results.
func (h *AnalysisHandlers) Results(w http.ResponseWriter, r *http.Request) {
	res, err := h.Svc.Results(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// Cancel handles POST /api/analyses/{id}/cancel.
func (h *AnalysisHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	view, err := h.Svc.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}
