package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mlawrence/jobscout/internal/domain"
)

// CreateJobAlertParams contains the fields for one alert row.
type CreateJobAlertParams struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	SearchQuery string
	Location    string
	Frequency   domain.AlertFrequency
}

// CreateJobAlert inserts an active alert.
func (q *Queries) CreateJobAlert(ctx context.Context, params CreateJobAlertParams) (*domain.JobAlert, error) {
	const query = `
		INSERT INTO job_alerts (id, user_id, search_query, location, frequency, is_active)
		VALUES ($1, $2, $3, $4, $5, true)
		RETURNING id, user_id, search_query, location, frequency, is_active,
		          last_sent_at, created_at, updated_at`

	return q.scanAlert(q.db.QueryRowContext(ctx, query,
		params.ID, params.UserID, params.SearchQuery,
		domain.ToNullString(params.Location), string(params.Frequency)))
}

// ListActiveJobAlerts returns every active alert, oldest first, for the
// sweeper to walk.
func (q *Queries) ListActiveJobAlerts(ctx context.Context) ([]domain.JobAlert, error) {
	const query = `
		SELECT id, user_id, search_query, location, frequency, is_active,
		       last_sent_at, created_at, updated_at
		FROM job_alerts WHERE is_active
		ORDER BY created_at`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.JobAlert
	for rows.Next() {
		var (
			a        domain.JobAlert
			location sql.NullString
			lastSent sql.NullTime
			freq     string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.SearchQuery, &location, &freq,
			&a.IsActive, &lastSent, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Location = domain.NullStringValue(location)
		a.LastSentAt = domain.NullTimeValue(lastSent)
		a.Frequency = domain.AlertFrequency(freq)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// UpdateJobAlertLastSent stamps the alert's last send time.
func (q *Queries) UpdateJobAlertLastSent(ctx context.Context, alertID uuid.UUID, sentAt time.Time) error {
	const query = `
		UPDATE job_alerts SET last_sent_at = $2, updated_at = now()
		WHERE id = $1`

	if _, err := q.db.ExecContext(ctx, query, alertID, sentAt); err != nil {
		return fmt.Errorf("update alert last_sent_at: %w", err)
	}
	return nil
}

// DeactivateJobAlert flips is_active off (unsubscribe). Idempotent; the row
// is kept.
func (q *Queries) DeactivateJobAlert(ctx context.Context, alertID uuid.UUID) error {
	const query = `
		UPDATE job_alerts SET is_active = false, updated_at = now()
		WHERE id = $1`

	if _, err := q.db.ExecContext(ctx, query, alertID); err != nil {
		return fmt.Errorf("deactivate alert: %w", err)
	}
	return nil
}

func (q *Queries) scanAlert(row *sql.Row) (*domain.JobAlert, error) {
	var (
		a        domain.JobAlert
		location sql.NullString
		lastSent sql.NullTime
		freq     string
	)
	err := row.Scan(&a.ID, &a.UserID, &a.SearchQuery, &location, &freq,
		&a.IsActive, &lastSent, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}
	a.Location = domain.NullStringValue(location)
	a.LastSentAt = domain.NullTimeValue(lastSent)
	a.Frequency = domain.AlertFrequency(freq)
	return &a, nil
}
