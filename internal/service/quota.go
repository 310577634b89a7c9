// Package service contains the business logic layer.
//
// Services orchestrate repositories, external APIs, and domain logic. They
// are responsible for input validation, business rule enforcement, and error
// translation (database errors -> domain errors).
//
// This file implements usage accounting and entitlement checks: reading
// current-period consumption, deciding whether a metered action is allowed
// under the user's plan, and recording completed actions.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/metrics"
	"github.com/mlawrence/jobscout/internal/repository"
)

// =============================================================================
// Interface Definitions
// =============================================================================

// QuotaService defines usage accounting and entitlement operations.
type QuotaService interface {
	// UsageFor returns the current-period consumption for every metered
	// action. A user with no plan row gets a free-tier snapshot with zero
	// counts. A store failure is a hard error: entitlement cannot be
	// assumed without counts.
	UsageFor(ctx context.Context, userID uuid.UUID) (*domain.UsageSnapshot, error)

	// CanPerform returns the allow/deny decision for one action. It is
	// read-only and safe to call repeatedly; recording happens separately
	// via Record, after the gated action has succeeded.
	CanPerform(ctx context.Context, userID uuid.UUID, action domain.Action) (*domain.Decision, error)

	// Record appends one usage event for a completed action. Failures are
	// logged and absorbed: a completed user-facing action is never rolled
	// back because telemetry could not be written.
	Record(ctx context.Context, userID uuid.UUID, action domain.Action, metadata []byte)
}

// UsageStore is the subset of repository queries the quota service reads
// and writes. *repository.Queries satisfies it.
type UsageStore interface {
	GetUserPlan(ctx context.Context, userID uuid.UUID) (*domain.UserPlan, error)
	CountUsageEventsSince(ctx context.Context, params repository.CountUsageEventsSinceParams) (int64, error)
	CountApplicationsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
	CountBookmarksSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
	CountActiveAlerts(ctx context.Context, userID uuid.UUID) (int64, error)
	CountResumes(ctx context.Context, userID uuid.UUID) (int64, error)
	InsertUsageEvent(ctx context.Context, params repository.InsertUsageEventParams) error
}

// =============================================================================
// Implementation
// =============================================================================

type quotaService struct {
	store  UsageStore
	logger *slog.Logger
	now    func() time.Time
}

// NewQuotaService creates a new QuotaService.
func NewQuotaService(store UsageStore, logger *slog.Logger) QuotaService {
	return &quotaService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// UsageFor returns the per-action counts for the current calendar month.
//
// Most actions are counted since the start of the current month (UTC).
// Active alerts and resume uploads are standing counts: their quotas cap
// how many the user holds, not how many were created this month.
func (s *quotaService) UsageFor(ctx context.Context, userID uuid.UUID) (*domain.UsageSnapshot, error) {
	const op = "quota.usage_for"

	now := s.now()
	tier, err := s.tierFor(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load user plan")
	}

	monthStart := domain.MonthStart(now)
	counts := make(map[domain.Action]int64, len(domain.Actions))

	for _, action := range domain.Actions {
		count, err := s.countFor(ctx, userID, action, monthStart)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to count usage")
		}
		counts[action] = count
	}

	return &domain.UsageSnapshot{
		UserID:      userID,
		Tier:        tier,
		Counts:      counts,
		PeriodStart: monthStart,
	}, nil
}

// CanPerform evaluates the entitlement decision for one action.
func (s *quotaService) CanPerform(ctx context.Context, userID uuid.UUID, action domain.Action) (*domain.Decision, error) {
	const op = "quota.can_perform"

	tier, err := s.tierFor(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load user plan")
	}

	limit := domain.LimitsFor(tier).LimitFor(action)
	if limit == domain.Unlimited {
		metrics.EntitlementDecisions.WithLabelValues(string(action), "allowed").Inc()
		return &domain.Decision{Allowed: true, Limit: limit}, nil
	}

	used, err := s.countFor(ctx, userID, action, domain.MonthStart(s.now()))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count usage")
	}

	if used < int64(limit) {
		metrics.EntitlementDecisions.WithLabelValues(string(action), "allowed").Inc()
		return &domain.Decision{Allowed: true, Limit: limit, Used: used}, nil
	}

	s.logger.Info("quota exceeded",
		"user_id", userID,
		"tier", tier,
		"action", action,
		"used", used,
		"limit", limit,
	)
	metrics.EntitlementDecisions.WithLabelValues(string(action), "denied").Inc()

	return &domain.Decision{
		Allowed: false,
		Reason:  domain.QuotaExceeded(op, action, limit).Message,
		Limit:   limit,
		Used:    used,
	}, nil
}

// Record appends one usage event. Callers invoke it only after the gated
// action has completed, so counts reflect completed actions only. Not
// idempotent: callers are responsible for not double-recording.
func (s *quotaService) Record(ctx context.Context, userID uuid.UUID, action domain.Action, metadata []byte) {
	const op = "quota.record"

	params := repository.InsertUsageEventParams{
		ID:         uuid.New(),
		UserID:     userID,
		ActionKind: action,
	}
	if len(metadata) > 0 {
		params.Metadata = pqtype.NullRawMessage{RawMessage: metadata, Valid: true}
	}

	if err := s.store.InsertUsageEvent(ctx, params); err != nil {
		// Fail-open on telemetry: the action already succeeded.
		s.logger.Error("failed to record usage event",
			"op", op, "error", err, "user_id", userID, "action", action)
		return
	}
	metrics.UsageEventsRecorded.WithLabelValues(string(action)).Inc()
}

// tierFor loads the user's plan tier, defaulting to free when no plan row
// exists. Only a store failure is an error.
func (s *quotaService) tierFor(ctx context.Context, userID uuid.UUID) (domain.PlanTier, error) {
	plan, err := s.store.GetUserPlan(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PlanTierFree, nil
	}
	if err != nil {
		return "", err
	}
	return plan.Tier, nil
}

// countFor reads the logical counter for one action. Each action is counted
// from its own domain table where one exists; AI invocations and searches
// come from the usage event log.
func (s *quotaService) countFor(ctx context.Context, userID uuid.UUID, action domain.Action, monthStart time.Time) (int64, error) {
	switch action {
	case domain.ActionApplication:
		return s.store.CountApplicationsSince(ctx, userID, monthStart)
	case domain.ActionBookmark:
		return s.store.CountBookmarksSince(ctx, userID, monthStart)
	case domain.ActionAlert:
		return s.store.CountActiveAlerts(ctx, userID)
	case domain.ActionResumeUpload:
		return s.store.CountResumes(ctx, userID)
	default:
		return s.store.CountUsageEventsSince(ctx, repository.CountUsageEventsSinceParams{
			UserID:     userID,
			ActionKind: action,
			Since:      monthStart,
		})
	}
}
