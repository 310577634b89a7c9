package domain

import (
	"time"

	"github.com/google/uuid"
)

// AlertFrequency controls how often a job alert may be re-sent.
type AlertFrequency string

const (
	AlertFrequencyDaily  AlertFrequency = "daily"
	AlertFrequencyWeekly AlertFrequency = "weekly"
)

// Period returns the minimum interval between sends for the frequency.
// Unknown values behave as weekly, the more conservative window.
func (f AlertFrequency) Period() time.Duration {
	if f == AlertFrequencyDaily {
		return 24 * time.Hour
	}
	return 7 * 24 * time.Hour
}

// JobAlert is a saved search that periodically emails matching postings.
// The sweeper mutates LastSentAt; unsubscribing flips IsActive. Alerts are
// never hard-deleted by the sweeper.
type JobAlert struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	SearchQuery string
	Location    string // optional
	Frequency   AlertFrequency
	IsActive    bool
	LastSentAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsDue reports whether the alert should be processed at time now: never
// sent before, or the frequency period has elapsed since the last send.
func (a *JobAlert) IsDue(now time.Time) bool {
	if a.LastSentAt == nil {
		return true
	}
	return now.Sub(*a.LastSentAt) >= a.Frequency.Period()
}
