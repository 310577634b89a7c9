// Package handler contains HTTP handlers for the Jobscout API.
//
// This file implements the entitlement surface consumed by clients:
//   - GET /api/usage                  -> Usage
//   - GET /api/entitlements/{action}  -> Check
package handler

import (
	"log/slog"
	"net/http"

	"github.com/mlawrence/jobscout/internal/auth"
	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/service"
)

// EntitlementHandler exposes usage and entitlement decisions.
type EntitlementHandler struct {
	quota  service.QuotaService
	logger *slog.Logger
}

// NewEntitlementHandler creates a new EntitlementHandler.
func NewEntitlementHandler(quota service.QuotaService, logger *slog.Logger) *EntitlementHandler {
	return &EntitlementHandler{
		quota:  quota,
		logger: logger,
	}
}

// RegisterRoutes registers entitlement routes on the provided mux.
// Callers must wrap them with the auth middleware.
func (h *EntitlementHandler) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("GET /api/usage", protect(http.HandlerFunc(h.Usage)))
	mux.Handle("GET /api/entitlements/{action}", protect(http.HandlerFunc(h.Check)))
}

type usageResponse struct {
	Tier        string                 `json:"tier"`
	PeriodStart string                 `json:"period_start"`
	Actions     map[string]actionUsage `json:"actions"`
}

type actionUsage struct {
	Used  int64 `json:"used"`
	Limit int   `json:"limit"` // -1 means unlimited
}

// Usage returns the current-period snapshot with limits for every action.
func (h *EntitlementHandler) Usage(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	snapshot, err := h.quota.UsageFor(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	limits := domain.LimitsFor(snapshot.Tier)
	actions := make(map[string]actionUsage, len(domain.Actions))
	for _, action := range domain.Actions {
		actions[string(action)] = actionUsage{
			Used:  snapshot.CountFor(action),
			Limit: limits.LimitFor(action),
		}
	}

	writeJSON(w, http.StatusOK, usageResponse{
		Tier:        string(snapshot.Tier),
		PeriodStart: snapshot.PeriodStart.Format("2006-01-02"),
		Actions:     actions,
	})
}

// Check returns the allow/deny decision for one action without recording
// anything.
func (h *EntitlementHandler) Check(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	action := domain.Action(r.PathValue("action"))
	if !action.Valid() {
		ErrorResponse(w, r, h.logger, domain.Invalid("entitlement.check", "Unknown action."))
		return
	}

	decision, err := h.quota.CanPerform(r.Context(), user.ID, action)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, decision)
}
