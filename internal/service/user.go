package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/repository"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// BcryptCost is the cost factor for bcrypt password hashing.
	// Cost 12 is ~250ms on modern hardware; NIST recommends 10+.
	BcryptCost = 12

	// SessionTokenBytes is the number of random bytes for session tokens.
	// 32 bytes = 256 bits of entropy; tokens are hex-encoded to 64 chars.
	SessionTokenBytes = 32

	// SessionDuration is how long a session remains valid.
	SessionDuration = 7 * 24 * time.Hour

	// MinPasswordLength follows NIST SP 800-63B's 8+ character minimum.
	MinPasswordLength = 8

	// MaxPasswordLength caps input before bcrypt's own 72-byte limit.
	MaxPasswordLength = 72

	// uniqueViolation is the Postgres error code for unique constraint hits.
	uniqueViolation = "23505"
)

// =============================================================================
// Interface Definition
// =============================================================================

// UserService defines user account and session operations.
type UserService interface {
	// Register creates a new user account.
	// Returns domain.ECONFLICT if the email is already taken.
	Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error)

	// Login authenticates a user and creates a new session.
	// Returns domain.EUNAUTHORIZED for invalid credentials.
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)

	// Logout invalidates a session by its raw token. Idempotent.
	Logout(ctx context.Context, token string) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email address. Used by lifecycle sync
	// to resolve the owner of a billing customer.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetBySessionToken validates a session token and returns its user.
	// Returns domain.EUNAUTHORIZED if the token is invalid or expired.
	GetBySessionToken(ctx context.Context, token string) (*domain.User, error)

	// GetPlan returns the user's plan row, synthesizing a free plan when
	// none exists.
	GetPlan(ctx context.Context, userID uuid.UUID) (*domain.UserPlan, error)
}

// =============================================================================
// Implementation
// =============================================================================

type userService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(queries *repository.Queries, logger *slog.Logger) UserService {
	return &userService{
		queries: queries,
		logger:  logger,
	}
}

func (s *userService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	const op = "user.register"

	email := strings.TrimSpace(strings.ToLower(params.Email))
	if !strings.Contains(email, "@") {
		return nil, domain.Invalid(op, "A valid email address is required.")
	}
	if err := validatePassword(params.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to hash password")
	}

	user, err := s.queries.CreateUser(ctx, repository.CreateUserParams{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(params.Name),
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, domain.Conflict(op, "An account with this email already exists.")
		}
		return nil, domain.Internal(err, op, "failed to create user")
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	const op = "user.login"

	user, err := s.queries.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, sql.ErrNoRows) {
		// Burn a hash comparison anyway so response timing does not reveal
		// whether the email exists.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$12$000000000000000000000uGJhK9yHmOQJc8F3p0y1JhJ9eWm0y1Jh"), []byte(password))
		return nil, domain.Unauthorized(op, "Invalid email or password.")
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to look up user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Unauthorized(op, "Invalid email or password.")
	}

	token, err := generateSessionToken()
	if err != nil {
		return nil, domain.Internal(err, op, "failed to generate session token")
	}

	err = s.queries.CreateSession(ctx, repository.CreateSessionParams{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: time.Now().Add(SessionDuration),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create session")
	}

	return &domain.LoginResult{User: user, Token: token}, nil
}

func (s *userService) Logout(ctx context.Context, token string) error {
	const op = "user.logout"

	if err := s.queries.DeleteSessionByTokenHash(ctx, hashToken(token)); err != nil {
		return domain.Internal(err, op, "failed to delete session")
	}
	return nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "user.get_by_id"

	user, err := s.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound(op, "user", id.String())
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to fetch user")
	}
	return user, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const op = "user.get_by_email"

	user, err := s.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound(op, "user", email)
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to fetch user")
	}
	return user, nil
}

func (s *userService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	const op = "user.get_by_session"

	user, err := s.queries.GetUserBySessionTokenHash(ctx, hashToken(token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Unauthorized(op, "Session is invalid or expired.")
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to validate session")
	}
	return user, nil
}

func (s *userService) GetPlan(ctx context.Context, userID uuid.UUID) (*domain.UserPlan, error) {
	const op = "user.get_plan"

	plan, err := s.queries.GetUserPlan(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultFreePlan(userID, time.Now()), nil
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to fetch user plan")
	}
	return plan, nil
}

// =============================================================================
// Helpers
// =============================================================================

// validatePassword enforces length bounds and requires at least one letter
// and one digit.
func validatePassword(password string) error {
	const op = "user.validate_password"

	if len(password) < MinPasswordLength {
		return domain.Invalid(op, "Password must be at least 8 characters.")
	}
	if len(password) > MaxPasswordLength {
		return domain.Invalid(op, "Password must be at most 72 characters.")
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return domain.Invalid(op, "Password must contain at least one letter and one number.")
	}
	return nil
}

// generateSessionToken returns a hex-encoded 256-bit random token.
func generateSessionToken() (string, error) {
	buf := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// hashToken returns the SHA-256 hex digest stored in place of raw tokens.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
