// Package service contains the business logic layer.
//
// This file implements bookmark creation, the reference gated-action flow:
// entitlement check, duplicate detection, the action itself, then usage
// recording. Recording happens only after the bookmark row exists, so usage
// counts reflect completed actions only.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// BookmarkService defines bookmark operations.
type BookmarkService interface {
	// Create bookmarks a posting for a user. An existing bookmark for the
	// same posting is returned as-is without consuming quota. Returns a
	// domain.EPAYMENT error when the user's bookmark quota is exhausted.
	Create(ctx context.Context, userID uuid.UUID, posting domain.JobPosting) (*domain.Bookmark, error)

	// List returns the user's bookmarks, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]domain.Bookmark, error)

	// Delete removes a bookmark. Idempotent.
	Delete(ctx context.Context, userID uuid.UUID, jobRef string) error
}

// BookmarkStore is the subset of repository queries this service uses.
// *repository.Queries satisfies it.
type BookmarkStore interface {
	GetBookmark(ctx context.Context, userID uuid.UUID, jobRef string) (*domain.Bookmark, error)
	CreateBookmark(ctx context.Context, params repository.CreateBookmarkParams) (*domain.Bookmark, error)
	ListBookmarks(ctx context.Context, userID uuid.UUID) ([]domain.Bookmark, error)
	DeleteBookmark(ctx context.Context, userID uuid.UUID, jobRef string) error
}

// =============================================================================
// Implementation
// =============================================================================

type bookmarkService struct {
	store  BookmarkStore
	quota  QuotaService
	logger *slog.Logger
}

// NewBookmarkService creates a new BookmarkService.
func NewBookmarkService(store BookmarkStore, quota QuotaService, logger *slog.Logger) BookmarkService {
	return &bookmarkService{
		store:  store,
		quota:  quota,
		logger: logger,
	}
}

func (s *bookmarkService) Create(ctx context.Context, userID uuid.UUID, posting domain.JobPosting) (*domain.Bookmark, error) {
	const op = "bookmark.create"

	if posting.Ref == "" {
		return nil, domain.Invalid(op, "A job reference is required.")
	}

	// Duplicate check first: re-bookmarking an existing posting returns
	// early and never reaches the recorder, so usage is unchanged.
	existing, err := s.store.GetBookmark(ctx, userID, posting.Ref)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to check for existing bookmark")
	}
	if existing != nil {
		return existing, nil
	}

	decision, err := s.quota.CanPerform(ctx, userID, domain.ActionBookmark)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, domain.Errorf(domain.EPAYMENT, op, "%s", decision.Reason)
	}

	bookmark, err := s.store.CreateBookmark(ctx, repository.CreateBookmarkParams{
		ID:      uuid.New(),
		UserID:  userID,
		JobRef:  posting.Ref,
		Title:   posting.Title,
		Company: posting.Company,
		URL:     posting.URL,
	})
	if err != nil {
		// Two concurrent requests can both pass the duplicate check; the
		// unique index breaks the tie and the loser reads the winner's row.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			existing, getErr := s.store.GetBookmark(ctx, userID, posting.Ref)
			if getErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, domain.Internal(err, op, "failed to create bookmark")
	}

	metadata, _ := json.Marshal(map[string]string{"job_ref": posting.Ref})
	s.quota.Record(ctx, userID, domain.ActionBookmark, metadata)

	return bookmark, nil
}

func (s *bookmarkService) List(ctx context.Context, userID uuid.UUID) ([]domain.Bookmark, error) {
	const op = "bookmark.list"

	bookmarks, err := s.store.ListBookmarks(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list bookmarks")
	}
	return bookmarks, nil
}

func (s *bookmarkService) Delete(ctx context.Context, userID uuid.UUID, jobRef string) error {
	const op = "bookmark.delete"

	if err := s.store.DeleteBookmark(ctx, userID, jobRef); err != nil {
		return domain.Internal(err, op, "failed to delete bookmark")
	}
	return nil
}
