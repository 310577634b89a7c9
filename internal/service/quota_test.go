package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/repository"
)

// fakeUsageStore is an in-memory UsageStore with per-counter values and
// injectable errors.
type fakeUsageStore struct {
	plan    *domain.UserPlan
	planErr error

	eventCounts  map[domain.Action]int64
	applications int64
	bookmarks    int64
	activeAlerts int64
	resumes      int64
	countErr     error

	inserted  []repository.InsertUsageEventParams
	insertErr error
}

func (f *fakeUsageStore) GetUserPlan(ctx context.Context, userID uuid.UUID) (*domain.UserPlan, error) {
	if f.planErr != nil {
		return nil, f.planErr
	}
	if f.plan == nil {
		return nil, sql.ErrNoRows
	}
	return f.plan, nil
}

func (f *fakeUsageStore) CountUsageEventsSince(ctx context.Context, params repository.CountUsageEventsSinceParams) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.eventCounts[params.ActionKind], nil
}

func (f *fakeUsageStore) CountApplicationsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	return f.applications, f.countErr
}

func (f *fakeUsageStore) CountBookmarksSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	return f.bookmarks, f.countErr
}

func (f *fakeUsageStore) CountActiveAlerts(ctx context.Context, userID uuid.UUID) (int64, error) {
	return f.activeAlerts, f.countErr
}

func (f *fakeUsageStore) CountResumes(ctx context.Context, userID uuid.UUID) (int64, error) {
	return f.resumes, f.countErr
}

func (f *fakeUsageStore) InsertUsageEvent(ctx context.Context, params repository.InsertUsageEventParams) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, params)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func planFor(tier domain.PlanTier) *domain.UserPlan {
	return &domain.UserPlan{UserID: uuid.New(), Tier: tier}
}

func TestCanPerform(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name        string
		store       *fakeUsageStore
		action      domain.Action
		wantAllowed bool
		wantLimit   int
		wantUsed    int64
	}{
		{
			name: "under limit is allowed",
			store: &fakeUsageStore{
				plan:        planFor(domain.PlanTierFree),
				eventCounts: map[domain.Action]int64{domain.ActionSearch: 10},
			},
			action:      domain.ActionSearch,
			wantAllowed: true,
			wantLimit:   50,
			wantUsed:    10,
		},
		{
			name: "at limit is denied",
			store: &fakeUsageStore{
				plan:        planFor(domain.PlanTierFree),
				eventCounts: map[domain.Action]int64{domain.ActionSearch: 50},
			},
			action:      domain.ActionSearch,
			wantAllowed: false,
			wantLimit:   50,
			wantUsed:    50,
		},
		{
			name: "over limit is denied",
			store: &fakeUsageStore{
				plan:        planFor(domain.PlanTierFree),
				eventCounts: map[domain.Action]int64{domain.ActionSearch: 51},
			},
			action:      domain.ActionSearch,
			wantAllowed: false,
			wantLimit:   50,
			wantUsed:    51,
		},
		{
			name: "enterprise is unlimited regardless of usage",
			store: &fakeUsageStore{
				plan:        planFor(domain.PlanTierEnterprise),
				eventCounts: map[domain.Action]int64{domain.ActionSearch: 1_000_000},
			},
			action:      domain.ActionSearch,
			wantAllowed: true,
			wantLimit:   domain.Unlimited,
		},
		{
			name: "no plan row defaults to free tier",
			store: &fakeUsageStore{
				eventCounts: map[domain.Action]int64{domain.ActionResumeMatch: 3},
			},
			action:      domain.ActionResumeMatch,
			wantAllowed: false,
			wantLimit:   3,
			wantUsed:    3,
		},
		{
			name: "bookmark counts come from the bookmarks table",
			store: &fakeUsageStore{
				plan:      planFor(domain.PlanTierFree),
				bookmarks: 20,
			},
			action:      domain.ActionBookmark,
			wantAllowed: false,
			wantLimit:   20,
			wantUsed:    20,
		},
		{
			name: "alert quota caps standing active alerts",
			store: &fakeUsageStore{
				plan:         planFor(domain.PlanTierFree),
				activeAlerts: 2,
			},
			action:      domain.ActionAlert,
			wantAllowed: false,
			wantLimit:   2,
			wantUsed:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewQuotaService(tt.store, testLogger())

			decision, err := svc.CanPerform(context.Background(), userID, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllowed, decision.Allowed)
			assert.Equal(t, tt.wantLimit, decision.Limit)
			assert.Equal(t, tt.wantUsed, decision.Used)
			if tt.wantAllowed {
				assert.Empty(t, decision.Reason)
			} else {
				assert.NotEmpty(t, decision.Reason)
			}
		})
	}
}

func TestCanPerformDenyReason(t *testing.T) {
	store := &fakeUsageStore{
		plan:        planFor(domain.PlanTierFree),
		eventCounts: map[domain.Action]int64{domain.ActionSearch: 50},
	}
	svc := NewQuotaService(store, testLogger())

	decision, err := svc.CanPerform(context.Background(), uuid.New(), domain.ActionSearch)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "You've reached your monthly search limit (50). Upgrade to continue.", decision.Reason)
}

func TestCanPerformStoreFailure(t *testing.T) {
	store := &fakeUsageStore{planErr: errors.New("connection refused")}
	svc := NewQuotaService(store, testLogger())

	_, err := svc.CanPerform(context.Background(), uuid.New(), domain.ActionSearch)
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}

func TestUsageFor(t *testing.T) {
	store := &fakeUsageStore{
		plan: planFor(domain.PlanTierBasic),
		eventCounts: map[domain.Action]int64{
			domain.ActionSearch:      12,
			domain.ActionResumeMatch: 4,
		},
		applications: 3,
		bookmarks:    7,
		activeAlerts: 1,
		resumes:      2,
	}
	svc := NewQuotaService(store, testLogger())

	snapshot, err := svc.UsageFor(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, domain.PlanTierBasic, snapshot.Tier)
	assert.Equal(t, int64(12), snapshot.CountFor(domain.ActionSearch))
	assert.Equal(t, int64(3), snapshot.CountFor(domain.ActionApplication))
	assert.Equal(t, int64(7), snapshot.CountFor(domain.ActionBookmark))
	assert.Equal(t, int64(4), snapshot.CountFor(domain.ActionResumeMatch))
	assert.Equal(t, int64(1), snapshot.CountFor(domain.ActionAlert))
	assert.Equal(t, int64(2), snapshot.CountFor(domain.ActionResumeUpload))
	assert.Equal(t, domain.MonthStart(time.Now()), snapshot.PeriodStart)

	// Every metered action appears in the snapshot.
	for _, action := range domain.Actions {
		_, ok := snapshot.Counts[action]
		assert.True(t, ok, "snapshot missing %s", action)
	}
}

func TestUsageForStoreFailure(t *testing.T) {
	store := &fakeUsageStore{
		plan:     planFor(domain.PlanTierFree),
		countErr: errors.New("connection refused"),
	}
	svc := NewQuotaService(store, testLogger())

	_, err := svc.UsageFor(context.Background(), uuid.New())
	require.Error(t, err)
}

func TestRecord(t *testing.T) {
	store := &fakeUsageStore{plan: planFor(domain.PlanTierFree)}
	svc := NewQuotaService(store, testLogger())
	userID := uuid.New()

	svc.Record(context.Background(), userID, domain.ActionSearch, []byte(`{"query":"go developer"}`))

	require.Len(t, store.inserted, 1)
	event := store.inserted[0]
	assert.Equal(t, userID, event.UserID)
	assert.Equal(t, domain.ActionSearch, event.ActionKind)
	assert.True(t, event.Metadata.Valid)

	// Empty metadata stays null.
	svc.Record(context.Background(), userID, domain.ActionBookmark, nil)
	require.Len(t, store.inserted, 2)
	assert.False(t, store.inserted[1].Metadata.Valid)
}

func TestRecordFailureIsAbsorbed(t *testing.T) {
	store := &fakeUsageStore{insertErr: errors.New("connection refused")}
	svc := NewQuotaService(store, testLogger())

	// Must not panic or surface the error.
	svc.Record(context.Background(), uuid.New(), domain.ActionSearch, nil)
	assert.Empty(t, store.inserted)
}
