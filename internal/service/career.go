// Package service contains the business logic layer.
//
// This file implements the AI-assisted career features: resume matching
// against a posting and interview question generation. Both are gated
// actions; usage is recorded only after the provider call succeeds.
package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mlawrence/jobscout/internal/ai"
	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/storage"
)

// CareerService defines the AI-assisted features.
type CareerService interface {
	// MatchResume scores the user's latest resume against a posting.
	// Returns a domain.EPAYMENT error when the resume_match quota is
	// exhausted, ENOTFOUND when the user has no resume.
	MatchResume(ctx context.Context, userID uuid.UUID, posting domain.JobPosting) (*ai.MatchResult, error)

	// InterviewQuestions generates practice questions for a posting.
	// Gated by the interview action.
	InterviewQuestions(ctx context.Context, userID uuid.UUID, posting domain.JobPosting, count int) ([]ai.Question, error)
}

type careerService struct {
	resumes  ResumeService
	files    storage.Storage
	provider ai.Provider
	quota    QuotaService
	logger   *slog.Logger
}

// NewCareerService creates a new CareerService.
func NewCareerService(resumes ResumeService, files storage.Storage, provider ai.Provider, quota QuotaService, logger *slog.Logger) CareerService {
	return &careerService{
		resumes:  resumes,
		files:    files,
		provider: provider,
		quota:    quota,
		logger:   logger,
	}
}

func (s *careerService) MatchResume(ctx context.Context, userID uuid.UUID, posting domain.JobPosting) (*ai.MatchResult, error) {
	const op = "career.match_resume"

	decision, err := s.quota.CanPerform(ctx, userID, domain.ActionResumeMatch)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, domain.Errorf(domain.EPAYMENT, op, "%s", decision.Reason)
	}

	resume, err := s.resumes.Latest(ctx, userID)
	if err != nil {
		return nil, err
	}

	text, err := s.resumeText(ctx, resume)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read resume")
	}

	result, err := s.provider.MatchResume(ctx, ai.MatchResumeParams{
		ResumeText:     text,
		JobTitle:       posting.Title,
		JobDescription: posting.Description,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "resume match failed")
	}

	metadata, _ := json.Marshal(map[string]string{"job_ref": posting.Ref})
	s.quota.Record(ctx, userID, domain.ActionResumeMatch, metadata)

	return result, nil
}

func (s *careerService) InterviewQuestions(ctx context.Context, userID uuid.UUID, posting domain.JobPosting, count int) ([]ai.Question, error) {
	const op = "career.interview_questions"

	decision, err := s.quota.CanPerform(ctx, userID, domain.ActionInterview)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, domain.Errorf(domain.EPAYMENT, op, "%s", decision.Reason)
	}

	questions, err := s.provider.InterviewQuestions(ctx, ai.InterviewParams{
		JobTitle:       posting.Title,
		JobDescription: posting.Description,
		Count:          count,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "question generation failed")
	}

	metadata, _ := json.Marshal(map[string]string{"job_ref": posting.Ref})
	s.quota.Record(ctx, userID, domain.ActionInterview, metadata)

	return questions, nil
}

// resumeText loads the stored resume content. Binary formats are sent to
// the provider as-is; extraction for PDF and Word is a provider concern.
func (s *careerService) resumeText(ctx context.Context, resume *domain.Resume) (string, error) {
	reader, _, err := s.files.Get(ctx, resume.StorageKey)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, MaxResumeSize))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
