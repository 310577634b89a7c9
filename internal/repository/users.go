package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mlawrence/jobscout/internal/domain"
)

// CreateUserParams contains the fields required to insert a user row.
type CreateUserParams struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
}

// CreateUser inserts a new user. The caller is responsible for translating
// unique-violation errors into a domain conflict.
func (q *Queries) CreateUser(ctx context.Context, params CreateUserParams) (*domain.User, error) {
	const query = `
		INSERT INTO users (id, email, password_hash, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password_hash, name, created_at, updated_at`

	var u domain.User
	err := q.db.QueryRowContext(ctx, query,
		params.ID, strings.ToLower(params.Email), params.PasswordHash, params.Name,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// GetUserByID fetches a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `
		SELECT id, email, password_hash, name, created_at, updated_at
		FROM users WHERE id = $1`

	var u domain.User
	err := q.db.QueryRowContext(ctx, query, id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by email, case-insensitively.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
		SELECT id, email, password_hash, name, created_at, updated_at
		FROM users WHERE email = $1`

	var u domain.User
	err := q.db.QueryRowContext(ctx, query, strings.ToLower(email)).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateSessionParams contains the fields required to insert a session row.
type CreateSessionParams struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
}

// CreateSession inserts a new session row.
func (q *Queries) CreateSession(ctx context.Context, params CreateSessionParams) error {
	const query = `
		INSERT INTO sessions (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := q.db.ExecContext(ctx, query,
		params.ID, params.UserID, params.TokenHash, params.ExpiresAt); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetUserBySessionTokenHash fetches the user owning a non-expired session.
func (q *Queries) GetUserBySessionTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	const query = `
		SELECT u.id, u.email, u.password_hash, u.name, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = $1 AND s.expires_at > now()`

	var u domain.User
	err := q.db.QueryRowContext(ctx, query, tokenHash).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteSessionByTokenHash removes a session. Idempotent.
func (q *Queries) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	const query = `DELETE FROM sessions WHERE token_hash = $1`

	if _, err := q.db.ExecContext(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
