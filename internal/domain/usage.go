package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// UsageEvent is one metered occurrence of a gated action. Events are
// append-only and read only in aggregate; no event is ever updated or
// inspected individually by the evaluator.
type UsageEvent struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ActionKind Action
	Metadata   pqtype.NullRawMessage
	OccurredAt time.Time
}

// UsageSnapshot holds the current-period consumption for every metered
// action. Counts for most actions cover the current calendar month; active
// alerts and resume uploads are standing counts (see comments on the reader).
type UsageSnapshot struct {
	UserID uuid.UUID
	Tier   PlanTier
	Counts map[Action]int64
	// PeriodStart is the start of the calendar month the counts cover.
	PeriodStart time.Time
}

// CountFor returns the snapshot's count for an action, zero if absent.
func (s *UsageSnapshot) CountFor(action Action) int64 {
	return s.Counts[action]
}

// Decision is the allow/deny verdict for a user/action pair. It is computed
// per call and never persisted.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Limit   int    `json:"limit"`
	Used    int64  `json:"used"`
}

// MonthStart returns the start of the calendar month containing t, in UTC.
// Usage counting is keyed to calendar-month boundaries for every user,
// independent of the individual billing anchor stored on the plan row.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
