// Package handler contains HTTP handlers for the Jobscout API.
//
// This file implements the Stripe webhook handler for billing lifecycle
// events.
//
// Route:
//   - POST /webhooks/stripe -> HandleStripeWebhook
//
// This route is PUBLIC (no auth middleware) because Stripe calls it
// directly. Authentication is via the webhook signature. A processing
// failure returns 500 so Stripe redelivers the event; unknown event types
// and unresolvable users return 200 so Stripe does not retry them forever.
package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"

	"github.com/mlawrence/jobscout/internal/billing"
	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/metrics"
	"github.com/mlawrence/jobscout/internal/service"
)

// maxWebhookBody caps webhook payloads at 64KB.
const maxWebhookBody = 65536

// WebhookHandler handles incoming webhook events from Stripe.
type WebhookHandler struct {
	billing       billing.Service
	subscriptions service.SubscriptionService
	logger        *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
// billingService may be nil when Stripe is not configured.
func NewWebhookHandler(billingService billing.Service, subscriptions service.SubscriptionService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billing:       billingService,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// RegisterRoutes registers webhook routes on the provided mux.
// These routes are PUBLIC, no auth middleware.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/stripe", h.HandleStripeWebhook)
}

// HandleStripeWebhook verifies and dispatches one Stripe event.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		h.logger.Warn("stripe webhook received but billing is not configured")
		w.WriteHeader(http.StatusOK)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	event, err := h.billing.VerifyWebhookSignature(body, signature)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		metrics.WebhookEventsTotal.WithLabelValues("unknown", "rejected").Inc()
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logger.Info("stripe webhook received", "type", event.Type, "id", event.ID)

	eventType := string(event.Type)
	switch eventType {
	case "checkout.session.completed":
		err = h.handleCheckoutCompleted(r, event)
	case "customer.subscription.created", "customer.subscription.updated":
		err = h.handleSubscriptionEvent(r, event)
	case "customer.subscription.deleted":
		err = h.handleSubscriptionDeleted(r, event)
	case "invoice.payment_failed":
		err = h.handlePaymentFailed(r, event)
	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
		metrics.WebhookEventsTotal.WithLabelValues(eventType, "ignored").Inc()
		w.WriteHeader(http.StatusOK)
		return
	}

	if err != nil {
		// Non-2xx makes Stripe redeliver, re-driving the idempotent sync.
		metrics.WebhookEventsTotal.WithLabelValues(eventType, "failed").Inc()
		h.logger.Error("webhook processing failed", "type", event.Type, "id", event.ID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	metrics.WebhookEventsTotal.WithLabelValues(eventType, "processed").Inc()
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handleCheckoutCompleted(r *http.Request, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		// Malformed payload; a redelivery would fail identically.
		h.logger.Error("failed to parse checkout session", "error", err)
		return nil
	}

	if session.Customer == nil || session.Subscription == nil {
		h.logger.Warn("checkout session missing customer or subscription", "session_id", session.ID)
		return nil
	}
	if session.Mode != stripe.CheckoutSessionModeSubscription {
		return nil
	}

	params := service.CheckoutCompletedParams{
		CustomerID:     session.Customer.ID,
		SubscriptionID: session.Subscription.ID,
		Tier:           domain.ParseTier(session.Metadata[billing.MetadataTierKey]),
	}
	if session.CustomerDetails != nil {
		params.CustomerEmail = session.CustomerDetails.Email
	}

	// The expanded period end lives on the subscription object.
	if sub, err := h.billing.GetSubscription(session.Subscription.ID); err == nil {
		params.PeriodEnd = sub.CurrentPeriodEnd
	} else {
		h.logger.Warn("failed to load subscription for period end",
			"subscription_id", session.Subscription.ID, "error", err)
		params.PeriodEnd = time.Now().AddDate(0, 1, 0)
	}

	return h.subscriptions.HandleCheckoutCompleted(r.Context(), params)
}

func (h *WebhookHandler) handleSubscriptionEvent(r *http.Request, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription event", "error", err)
		return nil
	}

	if sub.Customer == nil {
		h.logger.Warn("subscription event missing customer", "subscription_id", sub.ID)
		return nil
	}

	tier := ""
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		tier = h.billing.TierForPriceID(sub.Items.Data[0].Price.ID)
	}

	return h.subscriptions.HandleSubscriptionEvent(r.Context(), service.SubscriptionEventParams{
		CustomerID:     sub.Customer.ID,
		SubscriptionID: sub.ID,
		Tier:           domain.PlanTier(tier),
		Status:         string(sub.Status),
		PeriodEnd:      time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	})
}

func (h *WebhookHandler) handleSubscriptionDeleted(r *http.Request, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription deleted event", "error", err)
		return nil
	}

	if sub.Customer == nil {
		h.logger.Warn("subscription deleted event missing customer", "subscription_id", sub.ID)
		return nil
	}

	return h.subscriptions.HandleSubscriptionDeleted(r.Context(), sub.Customer.ID)
}

func (h *WebhookHandler) handlePaymentFailed(r *http.Request, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("failed to parse payment failed event", "error", err)
		return nil
	}

	if invoice.Customer == nil {
		return nil
	}

	return h.subscriptions.HandlePaymentFailed(r.Context(), invoice.Customer.ID)
}
