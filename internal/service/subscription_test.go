package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/repository"
)

// fakePlanStore holds at most one plan row and one user, mirroring the
// one-plan-per-user schema.
type fakePlanStore struct {
	plan      *domain.UserPlan
	user      *domain.User
	upserts   []repository.UpsertUserPlanParams
	statuses  []domain.SubscriptionStatus
	upsertErr error
	lookupErr error
}

func (f *fakePlanStore) GetUserPlan(ctx context.Context, userID uuid.UUID) (*domain.UserPlan, error) {
	if f.plan == nil || f.plan.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return f.plan, nil
}

func (f *fakePlanStore) GetUserPlanByCustomerID(ctx context.Context, customerID string) (*domain.UserPlan, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if f.plan == nil || f.plan.BillingCustomerID != customerID {
		return nil, sql.ErrNoRows
	}
	return f.plan, nil
}

func (f *fakePlanStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.user == nil || f.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func (f *fakePlanStore) UpsertUserPlan(ctx context.Context, params repository.UpsertUserPlanParams) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, params)
	f.plan = &domain.UserPlan{
		UserID:                params.UserID,
		Tier:                  params.Tier,
		BillingCustomerID:     params.BillingCustomerID,
		BillingSubscriptionID: params.BillingSubscriptionID,
		Status:                params.Status,
		QuotaResetAt:          params.QuotaResetAt,
	}
	return nil
}

func (f *fakePlanStore) UpdateSubscriptionStatus(ctx context.Context, userID uuid.UUID, status domain.SubscriptionStatus) error {
	f.statuses = append(f.statuses, status)
	if f.plan != nil && f.plan.UserID == userID {
		f.plan.Status = status
	}
	return nil
}

type fakeResolver struct {
	email string
	err   error
	calls int
}

func (f *fakeResolver) GetCustomerEmail(customerID string) (string, error) {
	f.calls++
	return f.email, f.err
}

func TestHandleCheckoutCompleted(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "ada@example.com"}
	store := &fakePlanStore{user: user}
	svc := NewSubscriptionService(store, &fakeResolver{}, testLogger())

	periodEnd := time.Now().AddDate(0, 1, 0)
	params := CheckoutCompletedParams{
		CustomerID:     "cus_123",
		CustomerEmail:  "ada@example.com",
		SubscriptionID: "sub_456",
		Tier:           domain.PlanTierPro,
		PeriodEnd:      periodEnd,
	}

	require.NoError(t, svc.HandleCheckoutCompleted(context.Background(), params))
	require.Len(t, store.upserts, 1)

	got := store.upserts[0]
	assert.Equal(t, user.ID, got.UserID)
	assert.Equal(t, domain.PlanTierPro, got.Tier)
	assert.Equal(t, "cus_123", got.BillingCustomerID)
	assert.Equal(t, "sub_456", got.BillingSubscriptionID)
	assert.Equal(t, domain.SubscriptionStatusActive, got.Status)
	assert.Equal(t, periodEnd, got.QuotaResetAt)
}

func TestHandleCheckoutCompletedIsIdempotent(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "ada@example.com"}
	store := &fakePlanStore{user: user}
	svc := NewSubscriptionService(store, &fakeResolver{}, testLogger())

	params := CheckoutCompletedParams{
		CustomerID:     "cus_123",
		CustomerEmail:  "ada@example.com",
		SubscriptionID: "sub_456",
		Tier:           domain.PlanTierBasic,
		PeriodEnd:      time.Now().AddDate(0, 1, 0),
	}

	// Redelivery applies the same upsert and converges to the same row.
	require.NoError(t, svc.HandleCheckoutCompleted(context.Background(), params))
	require.NoError(t, svc.HandleCheckoutCompleted(context.Background(), params))

	require.Len(t, store.upserts, 2)
	assert.Equal(t, store.upserts[0].UserID, store.upserts[1].UserID)
	assert.Equal(t, domain.PlanTierBasic, store.plan.Tier)
}

func TestHandleCheckoutCompletedUnknownUser(t *testing.T) {
	store := &fakePlanStore{}
	svc := NewSubscriptionService(store, &fakeResolver{}, testLogger())

	// An unresolvable customer is a logged no-op, not an error, so the
	// provider stops redelivering.
	err := svc.HandleCheckoutCompleted(context.Background(), CheckoutCompletedParams{
		CustomerID:    "cus_ghost",
		CustomerEmail: "nobody@example.com",
		Tier:          domain.PlanTierPro,
	})
	require.NoError(t, err)
	assert.Empty(t, store.upserts)
}

func TestHandleCheckoutCompletedStoreFailure(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "ada@example.com"}
	store := &fakePlanStore{user: user, upsertErr: errors.New("connection refused")}
	svc := NewSubscriptionService(store, &fakeResolver{}, testLogger())

	err := svc.HandleCheckoutCompleted(context.Background(), CheckoutCompletedParams{
		CustomerID:    "cus_123",
		CustomerEmail: "ada@example.com",
		Tier:          domain.PlanTierPro,
	})
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}

func TestHandleSubscriptionEvent(t *testing.T) {
	userID := uuid.New()
	store := &fakePlanStore{plan: &domain.UserPlan{
		UserID:            userID,
		Tier:              domain.PlanTierBasic,
		BillingCustomerID: "cus_123",
	}}
	svc := NewSubscriptionService(store, &fakeResolver{}, testLogger())

	err := svc.HandleSubscriptionEvent(context.Background(), SubscriptionEventParams{
		CustomerID:     "cus_123",
		SubscriptionID: "sub_456",
		Tier:           domain.PlanTierPro,
		Status:         "past_due",
		PeriodEnd:      time.Now().AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, userID, store.upserts[0].UserID)
	assert.Equal(t, domain.PlanTierPro, store.upserts[0].Tier)
	assert.Equal(t, domain.SubscriptionStatusPastDue, store.upserts[0].Status)
}

func TestHandleSubscriptionEventResolvesByEmail(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "ada@example.com"}
	store := &fakePlanStore{user: user}
	resolver := &fakeResolver{email: "ada@example.com"}
	svc := NewSubscriptionService(store, resolver, testLogger())

	// No plan row holds the customer ID yet; resolution falls back to the
	// billing collaborator's email lookup.
	err := svc.HandleSubscriptionEvent(context.Background(), SubscriptionEventParams{
		CustomerID:     "cus_new",
		SubscriptionID: "sub_789",
		Tier:           domain.PlanTierBasic,
		Status:         "active",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.calls)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, user.ID, store.upserts[0].UserID)
}

func TestHandleSubscriptionEventEmptyTierFallsBackToFree(t *testing.T) {
	userID := uuid.New()
	store := &fakePlanStore{plan: &domain.UserPlan{
		UserID:            userID,
		BillingCustomerID: "cus_123",
	}}
	svc := NewSubscriptionService(store, &fakeResolver{}, testLogger())

	err := svc.HandleSubscriptionEvent(context.Background(), SubscriptionEventParams{
		CustomerID: "cus_123",
		Status:     "active",
	})
	require.NoError(t, err)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, domain.PlanTierFree, store.upserts[0].Tier)
}

func TestHandleSubscriptionDeleted(t *testing.T) {
	userID := uuid.New()
	store := &fakePlanStore{plan: &domain.UserPlan{
		UserID:                userID,
		Tier:                  domain.PlanTierPro,
		BillingCustomerID:     "cus_123",
		BillingSubscriptionID: "sub_456",
		Status:                domain.SubscriptionStatusActive,
	}}
	svc := NewSubscriptionService(store, &fakeResolver{}, testLogger())

	require.NoError(t, svc.HandleSubscriptionDeleted(context.Background(), "cus_123"))
	require.Len(t, store.upserts, 1)

	got := store.upserts[0]
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, domain.PlanTierFree, got.Tier)
	assert.Equal(t, "cus_123", got.BillingCustomerID)
	assert.Empty(t, got.BillingSubscriptionID)
	assert.Equal(t, domain.SubscriptionStatusNone, got.Status)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), got.QuotaResetAt, time.Minute)
}

func TestHandleSubscriptionDeletedUnknownCustomer(t *testing.T) {
	store := &fakePlanStore{}
	svc := NewSubscriptionService(store, &fakeResolver{}, testLogger())

	require.NoError(t, svc.HandleSubscriptionDeleted(context.Background(), "cus_ghost"))
	assert.Empty(t, store.upserts)
}

func TestHandlePaymentFailed(t *testing.T) {
	userID := uuid.New()
	store := &fakePlanStore{plan: &domain.UserPlan{
		UserID:            userID,
		Tier:              domain.PlanTierPro,
		BillingCustomerID: "cus_123",
		Status:            domain.SubscriptionStatusActive,
	}}
	svc := NewSubscriptionService(store, &fakeResolver{}, testLogger())

	require.NoError(t, svc.HandlePaymentFailed(context.Background(), "cus_123"))

	// Status is recorded, tier is untouched.
	require.Len(t, store.statuses, 1)
	assert.Equal(t, domain.SubscriptionStatusPastDue, store.statuses[0])
	assert.Equal(t, domain.PlanTierPro, store.plan.Tier)
	assert.Empty(t, store.upserts)
}

func TestResolveUserCollaboratorFailure(t *testing.T) {
	store := &fakePlanStore{lookupErr: errors.New("connection refused")}
	svc := NewSubscriptionService(store, &fakeResolver{}, testLogger())

	// A store failure surfaces so the provider redelivers the event.
	err := svc.HandleSubscriptionDeleted(context.Background(), "cus_123")
	require.Error(t, err)
}

func TestStatusFromProvider(t *testing.T) {
	tests := []struct {
		in   string
		want domain.SubscriptionStatus
	}{
		{"active", domain.SubscriptionStatusActive},
		{"trialing", domain.SubscriptionStatusActive},
		{"past_due", domain.SubscriptionStatusPastDue},
		{"unpaid", domain.SubscriptionStatusPastDue},
		{"canceled", domain.SubscriptionStatusNone},
		{"incomplete_expired", domain.SubscriptionStatusNone},
		{"", domain.SubscriptionStatusNone},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFromProvider(tt.in))
		})
	}
}
