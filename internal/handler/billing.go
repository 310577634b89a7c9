// Package handler contains HTTP handlers for the Jobscout API.
//
// This file implements billing routes:
//   - POST /api/billing/checkout -> Checkout
//   - POST /api/billing/portal   -> Portal
package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mlawrence/jobscout/internal/auth"
	"github.com/mlawrence/jobscout/internal/billing"
	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/service"
)

// BillingHandler handles checkout and customer portal redirects.
type BillingHandler struct {
	billing billing.Service
	users   service.UserService
	baseURL string
	logger  *slog.Logger
}

// NewBillingHandler creates a new BillingHandler.
// billingService may be nil when Stripe is not configured; routes then
// return 503.
func NewBillingHandler(billingService billing.Service, users service.UserService, baseURL string, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		billing: billingService,
		users:   users,
		baseURL: baseURL,
		logger:  logger,
	}
}

// RegisterRoutes registers billing routes on the provided mux.
// Callers must wrap them with the auth middleware.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("POST /api/billing/checkout", protect(http.HandlerFunc(h.Checkout)))
	mux.Handle("POST /api/billing/portal", protect(http.HandlerFunc(h.Portal)))
}

type checkoutRequest struct {
	Tier     string `json:"tier"`     // basic, pro, enterprise
	Interval string `json:"interval"` // monthly (default) or yearly
}

type redirectResponse struct {
	URL string `json:"url"`
}

// Checkout creates a Stripe Checkout session for a paid tier and returns
// its URL.
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	const op = "billing.checkout"

	if h.billing == nil {
		http.Error(w, "Billing is not configured", http.StatusServiceUnavailable)
		return
	}

	user := auth.GetUser(r.Context())

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if req.Interval == "" {
		req.Interval = "monthly"
	}

	priceID := h.billing.PriceIDFor(req.Tier, req.Interval)
	if priceID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Unknown plan or billing interval."))
		return
	}

	customerID, err := h.customerIDFor(r, user)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "failed to create billing customer"))
		return
	}

	successURL := fmt.Sprintf("%s/billing/success?session_id={CHECKOUT_SESSION_ID}", h.baseURL)
	cancelURL := fmt.Sprintf("%s/pricing", h.baseURL)

	url, err := h.billing.CreateCheckoutSession(customerID, priceID, req.Tier, successURL, cancelURL)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "failed to create checkout session"))
		return
	}

	writeJSON(w, http.StatusOK, redirectResponse{URL: url})
}

// Portal creates a Customer Portal session so the user can manage or cancel
// their subscription.
func (h *BillingHandler) Portal(w http.ResponseWriter, r *http.Request) {
	const op = "billing.portal"

	if h.billing == nil {
		http.Error(w, "Billing is not configured", http.StatusServiceUnavailable)
		return
	}

	user := auth.GetUser(r.Context())

	plan, err := h.users.GetPlan(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if plan.BillingCustomerID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "No billing account exists yet. Subscribe to a plan first."))
		return
	}

	url, err := h.billing.CreatePortalSession(plan.BillingCustomerID, h.baseURL+"/account")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "failed to create portal session"))
		return
	}

	writeJSON(w, http.StatusOK, redirectResponse{URL: url})
}

// customerIDFor returns the user's Stripe customer ID, creating the customer
// on first checkout. The ID is persisted by the subsequent webhook upsert.
func (h *BillingHandler) customerIDFor(r *http.Request, user *domain.User) (string, error) {
	plan, err := h.users.GetPlan(r.Context(), user.ID)
	if err == nil && plan.BillingCustomerID != "" {
		return plan.BillingCustomerID, nil
	}
	return h.billing.CreateCustomer(user.Email, user.Name)
}
