package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/mlawrence/jobscout/internal/domain"
)

// InsertUsageEventParams contains the fields for one usage event row.
type InsertUsageEventParams struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ActionKind domain.Action
	Metadata   pqtype.NullRawMessage
}

// InsertUsageEvent appends one usage event. Events are append-only; nothing
// in this package updates or deletes them.
func (q *Queries) InsertUsageEvent(ctx context.Context, params InsertUsageEventParams) error {
	const query = `
		INSERT INTO usage_events (id, user_id, action_kind, metadata)
		VALUES ($1, $2, $3, $4)`

	_, err := q.db.ExecContext(ctx, query,
		params.ID, params.UserID, string(params.ActionKind), params.Metadata)
	if err != nil {
		return fmt.Errorf("insert usage event: %w", err)
	}
	return nil
}

// CountUsageEventsSinceParams selects events for one user/action since a
// period boundary.
type CountUsageEventsSinceParams struct {
	UserID     uuid.UUID
	ActionKind domain.Action
	Since      time.Time
}

// CountUsageEventsSince counts events for a user/action with occurred_at on
// or after the given boundary.
func (q *Queries) CountUsageEventsSince(ctx context.Context, params CountUsageEventsSinceParams) (int64, error) {
	const query = `
		SELECT count(*) FROM usage_events
		WHERE user_id = $1 AND action_kind = $2 AND occurred_at >= $3`

	var count int64
	err := q.db.QueryRowContext(ctx, query,
		params.UserID, string(params.ActionKind), params.Since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count usage events: %w", err)
	}
	return count, nil
}

// CountApplicationsSince counts a user's applications created on or after
// the boundary. Applications are counted from their own table, not the
// usage event log: the domain row is the source of truth for the action.
func (q *Queries) CountApplicationsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	return q.countRowsSince(ctx, "applications", userID, since)
}

// CountBookmarksSince counts a user's bookmarks created on or after the boundary.
func (q *Queries) CountBookmarksSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	return q.countRowsSince(ctx, "bookmarks", userID, since)
}

// CountActiveAlerts counts a user's active alerts. This is a standing count,
// not period-scoped: the quota caps concurrent alerts.
func (q *Queries) CountActiveAlerts(ctx context.Context, userID uuid.UUID) (int64, error) {
	const query = `SELECT count(*) FROM job_alerts WHERE user_id = $1 AND is_active`

	var count int64
	if err := q.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active alerts: %w", err)
	}
	return count, nil
}

// CountResumes counts all of a user's uploaded resumes. The resume quota
// caps total uploads, not uploads per month.
func (q *Queries) CountResumes(ctx context.Context, userID uuid.UUID) (int64, error) {
	const query = `SELECT count(*) FROM resumes WHERE user_id = $1`

	var count int64
	if err := q.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count resumes: %w", err)
	}
	return count, nil
}

// countRowsSince counts rows in a per-action domain table. The table name is
// always a compile-time constant from the callers above, never user input.
func (q *Queries) countRowsSince(ctx context.Context, table string, userID uuid.UUID, since time.Time) (int64, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE user_id = $1 AND created_at >= $2`, table)

	var count int64
	if err := q.db.QueryRowContext(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}
