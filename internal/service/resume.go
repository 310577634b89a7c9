// Package service contains the business logic layer.
//
// This file implements resume upload, gated by the resume_upload action.
// The stored-file count is the usage counter for this action, so deleting
// a resume frees the slot.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/repository"
	"github.com/mlawrence/jobscout/internal/storage"
)

const (
	// MaxResumeSize caps uploads at 5 MB.
	MaxResumeSize = 5 * 1024 * 1024

	resumeURLTTL = 15 * time.Minute
)

// allowed resume extensions, lowercased
var resumeExtensions = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

// =============================================================================
// Interface Definition
// =============================================================================

// ResumeService defines resume upload and retrieval operations.
type ResumeService interface {
	// Upload stores a resume file and records it against the user's plan.
	// Returns a domain.EPAYMENT error when the plan's resume slots are full.
	Upload(ctx context.Context, userID uuid.UUID, filename string, data io.Reader) (*domain.Resume, error)

	// Latest returns the user's most recent resume, or ENOTFOUND.
	Latest(ctx context.Context, userID uuid.UUID) (*domain.Resume, error)

	// DownloadURL returns a short-lived URL for the resume file.
	DownloadURL(ctx context.Context, resume *domain.Resume) (string, error)
}

// ResumeStore is the subset of repository queries this service uses.
// *repository.Queries satisfies it.
type ResumeStore interface {
	CreateResume(ctx context.Context, params repository.CreateResumeParams) (*domain.Resume, error)
	GetLatestResume(ctx context.Context, userID uuid.UUID) (*domain.Resume, error)
}

// =============================================================================
// Implementation
// =============================================================================

type resumeService struct {
	store  ResumeStore
	files  storage.Storage
	quota  QuotaService
	logger *slog.Logger
}

// NewResumeService creates a new ResumeService.
func NewResumeService(store ResumeStore, files storage.Storage, quota QuotaService, logger *slog.Logger) ResumeService {
	return &resumeService{
		store:  store,
		files:  files,
		quota:  quota,
		logger: logger,
	}
}

func (s *resumeService) Upload(ctx context.Context, userID uuid.UUID, filename string, data io.Reader) (*domain.Resume, error) {
	const op = "resume.upload"

	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := resumeExtensions[ext]
	if !ok {
		return nil, domain.Invalid(op, "Resume must be a PDF, Word document, or plain text file.")
	}

	decision, err := s.quota.CanPerform(ctx, userID, domain.ActionResumeUpload)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, domain.Errorf(domain.EPAYMENT, op, "%s", decision.Reason)
	}

	key := storage.ResumeKey(userID, filename)
	err = s.files.Put(ctx, key, data, storage.PutOptions{
		ContentType: contentType,
		MaxSize:     MaxResumeSize,
	})
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, domain.Invalid(op, "Resume file is too large (5 MB maximum).")
		}
		return nil, domain.Internal(err, op, "failed to store resume file")
	}

	resume, err := s.store.CreateResume(ctx, repository.CreateResumeParams{
		ID:         uuid.New(),
		UserID:     userID,
		StorageKey: key,
		Filename:   filename,
	})
	if err != nil {
		// Orphaned objects are cleaned up by a bucket lifecycle rule.
		if delErr := s.files.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned resume object", "key", key, "error", delErr)
		}
		return nil, domain.Internal(err, op, "failed to save resume")
	}

	metadata, _ := json.Marshal(map[string]string{"filename": filename})
	s.quota.Record(ctx, userID, domain.ActionResumeUpload, metadata)

	return resume, nil
}

func (s *resumeService) Latest(ctx context.Context, userID uuid.UUID) (*domain.Resume, error) {
	const op = "resume.latest"

	resume, err := s.store.GetLatestResume(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound(op, "resume", userID.String())
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to fetch resume")
	}
	return resume, nil
}

func (s *resumeService) DownloadURL(ctx context.Context, resume *domain.Resume) (string, error) {
	const op = "resume.download_url"

	url, err := s.files.URL(ctx, resume.StorageKey, resumeURLTTL)
	if err != nil {
		return "", domain.Internal(err, op, "failed to build resume URL")
	}
	return url, nil
}
