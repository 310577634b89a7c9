package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mlawrence/jobscout/internal/domain"
)

// GetUserPlan fetches the plan row for a user. Returns sql.ErrNoRows when
// the user has never selected a plan; callers synthesize a free plan.
func (q *Queries) GetUserPlan(ctx context.Context, userID uuid.UUID) (*domain.UserPlan, error) {
	const query = `
		SELECT user_id, plan_tier, billing_customer_id, billing_subscription_id,
		       subscription_status, quota_reset_at, created_at, updated_at
		FROM user_plans WHERE user_id = $1`

	var (
		p              domain.UserPlan
		tier           string
		customerID     sql.NullString
		subscriptionID sql.NullString
		status         string
	)
	err := q.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &tier, &customerID, &subscriptionID,
		&status, &p.QuotaResetAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// ParseTier folds unknown/corrupt tier strings to free.
	p.Tier = domain.ParseTier(tier)
	p.BillingCustomerID = domain.NullStringValue(customerID)
	p.BillingSubscriptionID = domain.NullStringValue(subscriptionID)
	p.Status = domain.SubscriptionStatus(status)
	return &p, nil
}

// GetUserPlanByCustomerID fetches the plan row owning a billing customer ID.
func (q *Queries) GetUserPlanByCustomerID(ctx context.Context, customerID string) (*domain.UserPlan, error) {
	const query = `
		SELECT user_id, plan_tier, billing_customer_id, billing_subscription_id,
		       subscription_status, quota_reset_at, created_at, updated_at
		FROM user_plans WHERE billing_customer_id = $1`

	var (
		p      domain.UserPlan
		tier   string
		custID sql.NullString
		subID  sql.NullString
		status string
	)
	err := q.db.QueryRowContext(ctx, query, customerID).Scan(
		&p.UserID, &tier, &custID, &subID,
		&status, &p.QuotaResetAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Tier = domain.ParseTier(tier)
	p.BillingCustomerID = domain.NullStringValue(custID)
	p.BillingSubscriptionID = domain.NullStringValue(subID)
	p.Status = domain.SubscriptionStatus(status)
	return &p, nil
}

// UpsertUserPlanParams contains the fields written by lifecycle sync.
type UpsertUserPlanParams struct {
	UserID                uuid.UUID
	Tier                  domain.PlanTier
	BillingCustomerID     string
	BillingSubscriptionID string
	Status                domain.SubscriptionStatus
	QuotaResetAt          time.Time
}

// UpsertUserPlan inserts or updates the one-per-user plan row. Keyed by
// user_id so re-applying the same lifecycle notification converges to the
// same state.
func (q *Queries) UpsertUserPlan(ctx context.Context, params UpsertUserPlanParams) error {
	const query = `
		INSERT INTO user_plans (user_id, plan_tier, billing_customer_id,
			billing_subscription_id, subscription_status, quota_reset_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			plan_tier = EXCLUDED.plan_tier,
			billing_customer_id = EXCLUDED.billing_customer_id,
			billing_subscription_id = EXCLUDED.billing_subscription_id,
			subscription_status = EXCLUDED.subscription_status,
			quota_reset_at = EXCLUDED.quota_reset_at,
			updated_at = now()`

	_, err := q.db.ExecContext(ctx, query,
		params.UserID, string(params.Tier),
		domain.ToNullString(params.BillingCustomerID),
		domain.ToNullString(params.BillingSubscriptionID),
		string(params.Status), params.QuotaResetAt,
	)
	if err != nil {
		return fmt.Errorf("upsert user plan: %w", err)
	}
	return nil
}

// UpdateSubscriptionStatus updates only the observational status field.
func (q *Queries) UpdateSubscriptionStatus(ctx context.Context, userID uuid.UUID, status domain.SubscriptionStatus) error {
	const query = `
		UPDATE user_plans SET subscription_status = $2, updated_at = now()
		WHERE user_id = $1`

	if _, err := q.db.ExecContext(ctx, query, userID, string(status)); err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	return nil
}
