// Package billing provides Stripe billing integration for subscription management.
package billing

import (
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	billingportalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"
)

// MetadataTierKey is the checkout-session metadata key naming the purchased
// plan tier. Lifecycle sync reads it back from completed checkouts.
const MetadataTierKey = "plan_tier"

// Subscription is the slice of the provider's subscription object that
// lifecycle sync needs.
type Subscription struct {
	ID               string
	CustomerID       string
	Status           string
	PriceID          string
	CurrentPeriodEnd time.Time
}

// Service defines the interface for billing operations.
type Service interface {
	// CreateCustomer creates a new Stripe customer for the given email.
	CreateCustomer(email, name string) (string, error)

	// CreateCheckoutSession creates a subscription-mode Checkout session
	// carrying the target tier in metadata. Returns the checkout URL.
	CreateCheckoutSession(customerID, priceID, tier, successURL, cancelURL string) (string, error)

	// CreatePortalSession creates a Customer Portal session.
	// Returns the portal URL to redirect the user to.
	CreatePortalSession(customerID, returnURL string) (string, error)

	// GetSubscription retrieves a subscription, including its current
	// period end.
	GetSubscription(subscriptionID string) (*Subscription, error)

	// GetCustomerEmail returns the email on a Stripe customer. Lifecycle
	// sync uses it to resolve the owning user.
	GetCustomerEmail(customerID string) (string, error)

	// VerifyWebhookSignature verifies the Stripe webhook signature and
	// returns the event.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)

	// TierForPriceID returns the plan tier for a given Stripe price ID,
	// or "" if the price is unknown.
	TierForPriceID(priceID string) string

	// PriceIDFor returns the Stripe price ID for a tier and billing
	// interval ("monthly" or "yearly"), or "" if not configured.
	PriceIDFor(tier, interval string) string
}

// PriceConfig holds the Stripe price IDs for each paid plan.
type PriceConfig struct {
	BasicMonthlyPriceID      string
	BasicYearlyPriceID       string
	ProMonthlyPriceID        string
	ProYearlyPriceID         string
	EnterpriseMonthlyPriceID string
	EnterpriseYearlyPriceID  string
}

// stripeService is the concrete implementation of Service.
type stripeService struct {
	webhookSecret string
	prices        PriceConfig
	priceToTier   map[string]string // maps price ID -> tier name
}

// NewStripeService creates a new Stripe billing service.
//
// The secretKey authenticates Stripe API calls; the webhookSecret verifies
// incoming webhook signatures; prices map Stripe price IDs to plan tiers.
func NewStripeService(secretKey, webhookSecret string, prices PriceConfig) Service {
	stripe.Key = secretKey

	priceToTier := make(map[string]string)
	for priceID, tier := range map[string]string{
		prices.BasicMonthlyPriceID:      "basic",
		prices.BasicYearlyPriceID:       "basic",
		prices.ProMonthlyPriceID:        "pro",
		prices.ProYearlyPriceID:         "pro",
		prices.EnterpriseMonthlyPriceID: "enterprise",
		prices.EnterpriseYearlyPriceID:  "enterprise",
	} {
		if priceID != "" {
			priceToTier[priceID] = tier
		}
	}

	return &stripeService{
		webhookSecret: webhookSecret,
		prices:        prices,
		priceToTier:   priceToTier,
	}
}

func (s *stripeService) CreateCustomer(email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create customer: %w", err)
	}
	return c.ID, nil
}

func (s *stripeService) CreateCheckoutSession(customerID, priceID, tier, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Metadata: map[string]string{
			MetadataTierKey: tier,
		},
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) CreatePortalSession(customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	sess, err := billingportalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create portal session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) GetSubscription(subscriptionID string) (*Subscription, error) {
	sub, err := subscription.Get(subscriptionID, nil)
	if err != nil {
		return nil, fmt.Errorf("stripe get subscription: %w", err)
	}
	return fromStripeSubscription(sub), nil
}

func (s *stripeService) GetCustomerEmail(customerID string) (string, error) {
	c, err := customer.Get(customerID, nil)
	if err != nil {
		return "", fmt.Errorf("stripe get customer: %w", err)
	}
	return c.Email, nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}

func (s *stripeService) TierForPriceID(priceID string) string {
	if tier, ok := s.priceToTier[priceID]; ok {
		return tier
	}
	return ""
}

func (s *stripeService) PriceIDFor(tier, interval string) string {
	yearly := interval == "yearly"
	switch tier {
	case "basic":
		if yearly {
			return s.prices.BasicYearlyPriceID
		}
		return s.prices.BasicMonthlyPriceID
	case "pro":
		if yearly {
			return s.prices.ProYearlyPriceID
		}
		return s.prices.ProMonthlyPriceID
	case "enterprise":
		if yearly {
			return s.prices.EnterpriseYearlyPriceID
		}
		return s.prices.EnterpriseMonthlyPriceID
	}
	return ""
}

// fromStripeSubscription flattens the provider object to the fields sync uses.
func fromStripeSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:               sub.ID,
		Status:           string(sub.Status),
		CurrentPeriodEnd: time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	return out
}
