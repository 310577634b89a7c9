package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mlawrence/jobscout/internal/domain"
)

// CreateBookmarkParams contains the fields for one bookmark row.
type CreateBookmarkParams struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	JobRef  string
	Title   string
	Company string
	URL     string
}

// CreateBookmark inserts a bookmark. The (user_id, job_ref) unique index
// rejects duplicates; callers translate that into a no-op or conflict.
func (q *Queries) CreateBookmark(ctx context.Context, params CreateBookmarkParams) (*domain.Bookmark, error) {
	const query = `
		INSERT INTO bookmarks (id, user_id, job_ref, title, company, url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, job_ref, title, company, url, created_at`

	var b domain.Bookmark
	err := q.db.QueryRowContext(ctx, query,
		params.ID, params.UserID, params.JobRef, params.Title, params.Company, params.URL,
	).Scan(&b.ID, &b.UserID, &b.JobRef, &b.Title, &b.Company, &b.URL, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create bookmark: %w", err)
	}
	return &b, nil
}

// GetBookmark fetches a user's bookmark for a job ref, if any.
// Returns (nil, nil) when no bookmark exists.
func (q *Queries) GetBookmark(ctx context.Context, userID uuid.UUID, jobRef string) (*domain.Bookmark, error) {
	const query = `
		SELECT id, user_id, job_ref, title, company, url, created_at
		FROM bookmarks WHERE user_id = $1 AND job_ref = $2`

	var b domain.Bookmark
	err := q.db.QueryRowContext(ctx, query, userID, jobRef).
		Scan(&b.ID, &b.UserID, &b.JobRef, &b.Title, &b.Company, &b.URL, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bookmark: %w", err)
	}
	return &b, nil
}

// ListBookmarks returns a user's bookmarks, newest first.
func (q *Queries) ListBookmarks(ctx context.Context, userID uuid.UUID) ([]domain.Bookmark, error) {
	const query = `
		SELECT id, user_id, job_ref, title, company, url, created_at
		FROM bookmarks WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []domain.Bookmark
	for rows.Next() {
		var b domain.Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.JobRef, &b.Title, &b.Company, &b.URL, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

// DeleteBookmark removes a bookmark by owner and job ref. Idempotent.
func (q *Queries) DeleteBookmark(ctx context.Context, userID uuid.UUID, jobRef string) error {
	const query = `DELETE FROM bookmarks WHERE user_id = $1 AND job_ref = $2`

	if _, err := q.db.ExecContext(ctx, query, userID, jobRef); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}

// CreateApplicationParams contains the fields for one application row.
type CreateApplicationParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
	JobRef string
}

// CreateApplication inserts a submitted application.
func (q *Queries) CreateApplication(ctx context.Context, params CreateApplicationParams) (*domain.Application, error) {
	const query = `
		INSERT INTO applications (id, user_id, job_ref, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, job_ref, status, created_at`

	var a domain.Application
	err := q.db.QueryRowContext(ctx, query,
		params.ID, params.UserID, params.JobRef, string(domain.ApplicationStatusSubmitted),
	).Scan(&a.ID, &a.UserID, &a.JobRef, &a.Status, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	return &a, nil
}

// CreateResumeParams contains the fields for one resume row.
type CreateResumeParams struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	StorageKey string
	Filename   string
}

// CreateResume records an uploaded resume's storage location.
func (q *Queries) CreateResume(ctx context.Context, params CreateResumeParams) (*domain.Resume, error) {
	const query = `
		INSERT INTO resumes (id, user_id, storage_key, filename)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, storage_key, filename, created_at`

	var r domain.Resume
	err := q.db.QueryRowContext(ctx, query,
		params.ID, params.UserID, params.StorageKey, params.Filename,
	).Scan(&r.ID, &r.UserID, &r.StorageKey, &r.Filename, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create resume: %w", err)
	}
	return &r, nil
}

// GetLatestResume returns the user's most recently uploaded resume.
func (q *Queries) GetLatestResume(ctx context.Context, userID uuid.UUID) (*domain.Resume, error) {
	const query = `
		SELECT id, user_id, storage_key, filename, created_at
		FROM resumes WHERE user_id = $1
		ORDER BY created_at DESC LIMIT 1`

	var r domain.Resume
	err := q.db.QueryRowContext(ctx, query, userID).
		Scan(&r.ID, &r.UserID, &r.StorageKey, &r.Filename, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
