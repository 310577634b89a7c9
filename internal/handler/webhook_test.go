package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stripe/stripe-go/v79"

	"github.com/mlawrence/jobscout/internal/billing"
	"github.com/mlawrence/jobscout/internal/service"
)

// fakeBillingService verifies any signature and replays a canned event.
type fakeBillingService struct {
	event     stripe.Event
	verifyErr error
	tierFor   map[string]string
	sub       *billing.Subscription
}

func (f *fakeBillingService) CreateCustomer(email, name string) (string, error) {
	return "cus_test", nil
}

func (f *fakeBillingService) CreateCheckoutSession(customerID, priceID, tier, successURL, cancelURL string) (string, error) {
	return "https://checkout.stripe.com/test", nil
}

func (f *fakeBillingService) CreatePortalSession(customerID, returnURL string) (string, error) {
	return "https://billing.stripe.com/test", nil
}

func (f *fakeBillingService) GetSubscription(subscriptionID string) (*billing.Subscription, error) {
	if f.sub == nil {
		return nil, errors.New("no subscription")
	}
	return f.sub, nil
}

func (f *fakeBillingService) GetCustomerEmail(customerID string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeBillingService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	if f.verifyErr != nil {
		return stripe.Event{}, f.verifyErr
	}
	return f.event, nil
}

func (f *fakeBillingService) TierForPriceID(priceID string) string {
	return f.tierFor[priceID]
}

func (f *fakeBillingService) PriceIDFor(tier, interval string) string {
	return ""
}

// fakeSubscriptionService records which lifecycle method ran.
type fakeSubscriptionService struct {
	checkouts []service.CheckoutCompletedParams
	events    []service.SubscriptionEventParams
	deleted   []string
	failed    []string
	err       error
}

func (f *fakeSubscriptionService) HandleCheckoutCompleted(ctx context.Context, params service.CheckoutCompletedParams) error {
	if f.err != nil {
		return f.err
	}
	f.checkouts = append(f.checkouts, params)
	return nil
}

func (f *fakeSubscriptionService) HandleSubscriptionEvent(ctx context.Context, params service.SubscriptionEventParams) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, params)
	return nil
}

func (f *fakeSubscriptionService) HandleSubscriptionDeleted(ctx context.Context, customerID string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, customerID)
	return nil
}

func (f *fakeSubscriptionService) HandlePaymentFailed(ctx context.Context, customerID string) error {
	if f.err != nil {
		return f.err
	}
	f.failed = append(f.failed, customerID)
	return nil
}

func stripeEvent(t *testing.T, eventType string, payload any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal event payload: %v", err)
	}
	return stripe.Event{
		ID:   "evt_test",
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func postWebhook(h *WebhookHandler) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewBufferString(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=test")
	rec := httptest.NewRecorder()
	h.HandleStripeWebhook(rec, req)
	return rec
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	billingSvc := &fakeBillingService{verifyErr: errors.New("bad signature")}
	subs := &fakeSubscriptionService{}
	h := NewWebhookHandler(billingSvc, subs, testLogger())

	rec := postWebhook(h)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(subs.events)+len(subs.checkouts) != 0 {
		t.Error("no lifecycle method should run for a rejected event")
	}
}

func TestWebhookIgnoresUnknownEventType(t *testing.T) {
	billingSvc := &fakeBillingService{event: stripeEvent(t, "customer.updated", map[string]any{})}
	subs := &fakeSubscriptionService{}
	h := NewWebhookHandler(billingSvc, subs, testLogger())

	rec := postWebhook(h)

	// 200 so Stripe does not retry an event we never handle.
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestWebhookNoBillingConfigured(t *testing.T) {
	h := NewWebhookHandler(nil, &fakeSubscriptionService{}, testLogger())

	rec := postWebhook(h)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestWebhookSubscriptionUpdated(t *testing.T) {
	payload := map[string]any{
		"id":                 "sub_123",
		"status":             "active",
		"customer":           map[string]any{"id": "cus_123"},
		"current_period_end": 1750000000,
		"items": map[string]any{
			"data": []map[string]any{
				{"price": map[string]any{"id": "price_pro_monthly"}},
			},
		},
	}
	billingSvc := &fakeBillingService{
		event:   stripeEvent(t, "customer.subscription.updated", payload),
		tierFor: map[string]string{"price_pro_monthly": "pro"},
	}
	subs := &fakeSubscriptionService{}
	h := NewWebhookHandler(billingSvc, subs, testLogger())

	rec := postWebhook(h)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(subs.events) != 1 {
		t.Fatalf("events = %d, want 1", len(subs.events))
	}
	got := subs.events[0]
	if got.CustomerID != "cus_123" || got.SubscriptionID != "sub_123" {
		t.Errorf("unexpected params: %+v", got)
	}
	if string(got.Tier) != "pro" {
		t.Errorf("tier = %q, want pro", got.Tier)
	}
}

func TestWebhookSubscriptionDeleted(t *testing.T) {
	payload := map[string]any{
		"id":       "sub_123",
		"customer": map[string]any{"id": "cus_123"},
	}
	billingSvc := &fakeBillingService{event: stripeEvent(t, "customer.subscription.deleted", payload)}
	subs := &fakeSubscriptionService{}
	h := NewWebhookHandler(billingSvc, subs, testLogger())

	rec := postWebhook(h)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(subs.deleted) != 1 || subs.deleted[0] != "cus_123" {
		t.Errorf("deleted = %v, want [cus_123]", subs.deleted)
	}
}

func TestWebhookPaymentFailed(t *testing.T) {
	payload := map[string]any{
		"id":       "in_123",
		"customer": map[string]any{"id": "cus_123"},
	}
	billingSvc := &fakeBillingService{event: stripeEvent(t, "invoice.payment_failed", payload)}
	subs := &fakeSubscriptionService{}
	h := NewWebhookHandler(billingSvc, subs, testLogger())

	rec := postWebhook(h)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(subs.failed) != 1 || subs.failed[0] != "cus_123" {
		t.Errorf("failed = %v, want [cus_123]", subs.failed)
	}
}

func TestWebhookProcessingFailureReturns500(t *testing.T) {
	payload := map[string]any{
		"id":       "sub_123",
		"customer": map[string]any{"id": "cus_123"},
	}
	billingSvc := &fakeBillingService{event: stripeEvent(t, "customer.subscription.deleted", payload)}
	subs := &fakeSubscriptionService{err: errors.New("connection refused")}
	h := NewWebhookHandler(billingSvc, subs, testLogger())

	rec := postWebhook(h)

	// 500 so Stripe redelivers and the idempotent sync re-runs.
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestWebhookMalformedPayloadAcknowledged(t *testing.T) {
	event := stripe.Event{
		ID:   "evt_test",
		Type: stripe.EventType("customer.subscription.deleted"),
		Data: &stripe.EventData{Raw: json.RawMessage(`{invalid`)},
	}
	billingSvc := &fakeBillingService{event: event}
	subs := &fakeSubscriptionService{}
	h := NewWebhookHandler(billingSvc, subs, testLogger())

	rec := postWebhook(h)

	// A malformed payload fails identically on redelivery; acknowledge it.
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(subs.deleted) != 0 {
		t.Error("no lifecycle method should run for a malformed payload")
	}
}
