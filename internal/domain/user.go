// Package domain contains core business types and interfaces.
//
// This file defines the User, Session, and UserPlan types. These are the
// domain representations used in business logic; they are decoupled from the
// repository's row types.
package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus mirrors the billing provider's subscription state.
// It is observational: entitlements are driven by the plan tier alone.
type SubscriptionStatus string

const (
	SubscriptionStatusNone    SubscriptionStatus = "none"
	SubscriptionStatusActive  SubscriptionStatus = "active"
	SubscriptionStatusPastDue SubscriptionStatus = "past_due"
)

// User represents a registered user of the platform.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string // Never expose this in API responses
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName returns the user's name or email if name is empty.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// UserPlan is the one-per-user subscription record. It is created on first
// plan selection (or synthesized as free) and mutated by lifecycle sync;
// cancellation demotes to free rather than deleting the row.
type UserPlan struct {
	UserID                uuid.UUID
	Tier                  PlanTier
	BillingCustomerID     string
	BillingSubscriptionID string
	Status                SubscriptionStatus
	QuotaResetAt          time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// DefaultFreePlan synthesizes the plan used for users with no plan row:
// free tier with a 30-day synthetic period.
func DefaultFreePlan(userID uuid.UUID, now time.Time) *UserPlan {
	return &UserPlan{
		UserID:       userID,
		Tier:         PlanTierFree,
		Status:       SubscriptionStatusNone,
		QuotaResetAt: now.Add(30 * 24 * time.Hour),
	}
}

// Session represents an authenticated session.
//
// Sessions are stored with a hashed token. The raw token is only given to
// the client once, at login.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string // SHA-256 hash of the session token
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// RegisterParams contains the validated parameters for user registration.
type RegisterParams struct {
	Email    string
	Password string // Raw password, hashed by the service
	Name     string
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	User  *User
	Token string // Raw session token (not hashed) - only returned once
}

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// NullTimeValue safely extracts a time pointer from sql.NullTime.
func NullTimeValue(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// ToNullString converts a string to sql.NullString.
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// ToNullTime converts a time pointer to sql.NullTime.
func ToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
