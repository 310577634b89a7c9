// Package handler contains HTTP handlers for the Jobscout API.
//
// This file implements job-alert routes:
//   - POST /api/alerts                 -> Create
//   - GET  /alerts/{id}/unsubscribe    -> Unsubscribe
//
// Unsubscribe is PUBLIC: it is reached from an email link, where no session
// exists. Possession of the alert ID authorizes deactivation.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/mlawrence/jobscout/internal/auth"
	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/service"
)

// AlertHandler handles job-alert routes.
type AlertHandler struct {
	alerts service.AlertService
	logger *slog.Logger
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alerts service.AlertService, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{
		alerts: alerts,
		logger: logger,
	}
}

// RegisterRoutes registers alert routes on the provided mux.
func (h *AlertHandler) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("POST /api/alerts", protect(http.HandlerFunc(h.Create)))
	mux.HandleFunc("GET /alerts/{id}/unsubscribe", h.Unsubscribe)
}

type createAlertRequest struct {
	Query     string `json:"query"`
	Location  string `json:"location"`
	Frequency string `json:"frequency"` // daily or weekly
}

// Create registers a new job alert for the user.
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	var req createAlertRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	alert, err := h.alerts.Create(r.Context(), user.ID, req.Query, req.Location, domain.AlertFrequency(req.Frequency))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, alert)
}

// Unsubscribe deactivates an alert from an email link. Idempotent.
func (h *AlertHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	alertID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	if err := h.alerts.Unsubscribe(r.Context(), alertID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("You've been unsubscribed from this job alert.\n"))
}
