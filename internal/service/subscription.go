// Package service contains the business logic layer.
//
// This file implements subscription lifecycle sync: applying verified
// billing-provider notifications to the user's plan row. Signature
// verification happens before any of this code runs (see the webhook
// handler); here the events are trusted.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/repository"
)

// =============================================================================
// Interface Definitions
// =============================================================================

// CheckoutCompletedParams carries the fields of a completed subscription
// checkout that sync applies.
type CheckoutCompletedParams struct {
	CustomerID     string
	CustomerEmail  string
	SubscriptionID string
	Tier           domain.PlanTier // from checkout metadata
	PeriodEnd      time.Time
}

// SubscriptionEventParams carries the fields of a subscription
// created/updated notification.
type SubscriptionEventParams struct {
	CustomerID     string
	SubscriptionID string
	Tier           domain.PlanTier // resolved from the price ID
	Status         string
	PeriodEnd      time.Time
}

// SubscriptionService applies billing lifecycle notifications to user plans.
//
// Every method is idempotent: plan writes are upserts keyed by user_id, so
// redelivered notifications converge to the same state. A store write
// failure is returned to the caller so the provider's redelivery re-drives
// the event; an unresolvable user is a logged no-op, not an error.
type SubscriptionService interface {
	// HandleCheckoutCompleted applies a completed subscription checkout.
	HandleCheckoutCompleted(ctx context.Context, params CheckoutCompletedParams) error

	// HandleSubscriptionEvent applies a subscription created/updated
	// notification.
	HandleSubscriptionEvent(ctx context.Context, params SubscriptionEventParams) error

	// HandleSubscriptionDeleted demotes the owning user to the free tier.
	// Creates the plan row if none exists.
	HandleSubscriptionDeleted(ctx context.Context, customerID string) error

	// HandlePaymentFailed records a failed payment. Observational only:
	// the plan tier is not changed.
	HandlePaymentFailed(ctx context.Context, customerID string) error
}

// PlanStore is the subset of repository queries lifecycle sync uses.
// *repository.Queries satisfies it.
type PlanStore interface {
	GetUserPlan(ctx context.Context, userID uuid.UUID) (*domain.UserPlan, error)
	GetUserPlanByCustomerID(ctx context.Context, customerID string) (*domain.UserPlan, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpsertUserPlan(ctx context.Context, params repository.UpsertUserPlanParams) error
	UpdateSubscriptionStatus(ctx context.Context, userID uuid.UUID, status domain.SubscriptionStatus) error
}

// CustomerResolver is the billing-collaborator lookup sync needs to map a
// customer ID to an email address. billing.Service satisfies it.
type CustomerResolver interface {
	GetCustomerEmail(customerID string) (string, error)
}

// =============================================================================
// Implementation
// =============================================================================

type subscriptionService struct {
	store   PlanStore
	billing CustomerResolver
	logger  *slog.Logger
	now     func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(store PlanStore, resolver CustomerResolver, logger *slog.Logger) SubscriptionService {
	return &subscriptionService{
		store:   store,
		billing: resolver,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *subscriptionService) HandleCheckoutCompleted(ctx context.Context, params CheckoutCompletedParams) error {
	const op = "subscription.checkout_completed"

	userID, err := s.resolveUser(ctx, params.CustomerID, params.CustomerEmail)
	if errors.Is(err, errNoUser) {
		// Known data-integrity gap: a checkout for an unknown user is
		// dropped, not retried.
		s.logger.Warn("no user for completed checkout",
			"customer_id", params.CustomerID, "subscription_id", params.SubscriptionID)
		return nil
	}
	if err != nil {
		return domain.Internal(err, op, "failed to resolve billing customer")
	}

	err = s.store.UpsertUserPlan(ctx, repository.UpsertUserPlanParams{
		UserID:                userID,
		Tier:                  params.Tier,
		BillingCustomerID:     params.CustomerID,
		BillingSubscriptionID: params.SubscriptionID,
		Status:                domain.SubscriptionStatusActive,
		QuotaResetAt:          params.PeriodEnd,
	})
	if err != nil {
		return domain.Internal(err, op, "failed to apply checkout")
	}

	s.logger.Info("checkout applied",
		"user_id", userID, "tier", params.Tier, "subscription_id", params.SubscriptionID)
	return nil
}

func (s *subscriptionService) HandleSubscriptionEvent(ctx context.Context, params SubscriptionEventParams) error {
	const op = "subscription.event"

	userID, err := s.resolveUser(ctx, params.CustomerID, "")
	if errors.Is(err, errNoUser) {
		s.logger.Warn("no user for subscription event",
			"customer_id", params.CustomerID, "subscription_id", params.SubscriptionID)
		return nil
	}
	if err != nil {
		return domain.Internal(err, op, "failed to resolve billing customer")
	}

	tier := params.Tier
	if tier == "" {
		tier = domain.PlanTierFree
	}

	err = s.store.UpsertUserPlan(ctx, repository.UpsertUserPlanParams{
		UserID:                userID,
		Tier:                  tier,
		BillingCustomerID:     params.CustomerID,
		BillingSubscriptionID: params.SubscriptionID,
		Status:                statusFromProvider(params.Status),
		QuotaResetAt:          params.PeriodEnd,
	})
	if err != nil {
		return domain.Internal(err, op, "failed to apply subscription event")
	}

	s.logger.Info("subscription event applied",
		"user_id", userID, "tier", tier, "status", params.Status)
	return nil
}

func (s *subscriptionService) HandleSubscriptionDeleted(ctx context.Context, customerID string) error {
	const op = "subscription.deleted"

	userID, err := s.resolveUser(ctx, customerID, "")
	if errors.Is(err, errNoUser) {
		s.logger.Warn("no user for subscription deletion", "customer_id", customerID)
		return nil
	}
	if err != nil {
		return domain.Internal(err, op, "failed to resolve billing customer")
	}

	// Cancellation demotes to free; the plan row is kept (or created) and
	// the subscription reference cleared. Quota baseline resets to the
	// free tier's synthetic 30-day period.
	err = s.store.UpsertUserPlan(ctx, repository.UpsertUserPlanParams{
		UserID:                userID,
		Tier:                  domain.PlanTierFree,
		BillingCustomerID:     customerID,
		BillingSubscriptionID: "",
		Status:                domain.SubscriptionStatusNone,
		QuotaResetAt:          s.now().Add(30 * 24 * time.Hour),
	})
	if err != nil {
		return domain.Internal(err, op, "failed to demote plan")
	}

	s.logger.Info("subscription cancelled, demoted to free", "user_id", userID)
	return nil
}

func (s *subscriptionService) HandlePaymentFailed(ctx context.Context, customerID string) error {
	const op = "subscription.payment_failed"

	userID, err := s.resolveUser(ctx, customerID, "")
	if errors.Is(err, errNoUser) {
		s.logger.Warn("no user for failed payment", "customer_id", customerID)
		return nil
	}
	if err != nil {
		return domain.Internal(err, op, "failed to resolve billing customer")
	}

	// No tier transition on payment failure; the status is recorded so the
	// observation stays queryable.
	if err := s.store.UpdateSubscriptionStatus(ctx, userID, domain.SubscriptionStatusPastDue); err != nil {
		return domain.Internal(err, op, "failed to record payment failure")
	}

	s.logger.Warn("payment failed", "user_id", userID, "customer_id", customerID)
	return nil
}

// errNoUser marks a notification whose billing customer maps to no known
// user. A data-integrity gap, handled as a logged no-op rather than an
// error, so the provider does not redeliver it forever.
var errNoUser = errors.New("no user for billing customer")

// resolveUser maps a billing customer to a user ID: first by an existing
// plan row holding the customer ID, then by the customer's email (using the
// hint from the event when present, otherwise the billing collaborator).
// Returns errNoUser when the customer is unresolvable; any other error is a
// collaborator failure the caller must surface so the event is redelivered.
func (s *subscriptionService) resolveUser(ctx context.Context, customerID, emailHint string) (uuid.UUID, error) {
	plan, err := s.store.GetUserPlanByCustomerID(ctx, customerID)
	if err == nil {
		return plan.UserID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, err
	}

	email := emailHint
	if email == "" && s.billing != nil {
		email, err = s.billing.GetCustomerEmail(customerID)
		if err != nil {
			return uuid.Nil, err
		}
	}
	if email == "" {
		return uuid.Nil, errNoUser
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, errNoUser
	}
	if err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}

// statusFromProvider folds the provider's status vocabulary into ours.
func statusFromProvider(status string) domain.SubscriptionStatus {
	switch status {
	case "past_due", "unpaid":
		return domain.SubscriptionStatusPastDue
	case "canceled", "incomplete_expired", "":
		return domain.SubscriptionStatusNone
	default:
		return domain.SubscriptionStatusActive
	}
}
