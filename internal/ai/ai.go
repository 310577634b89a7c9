// Package ai defines the interface to the generative-text collaborator used
// for resume matching and mock interviews.
package ai

import (
	"context"
	"errors"
	"time"
)

// Provider defines the AI operations the application consumes.
type Provider interface {
	// MatchResume scores a resume against a job description and explains
	// the fit.
	MatchResume(ctx context.Context, params MatchResumeParams) (*MatchResult, error)

	// InterviewQuestions generates mock-interview questions for a role.
	InterviewQuestions(ctx context.Context, params InterviewParams) ([]Question, error)
}

// MatchResumeParams contains inputs for a resume-match run.
type MatchResumeParams struct {
	ResumeText     string
	JobTitle       string
	JobDescription string
}

// MatchResult is the structured portion extracted from the model's output.
/// Extraction is best-effort: when the model returns malformed JSON the raw
// text is preserved in Summary and Score is zero.
type MatchResult struct {
	Score     int      `json:"score"` // 0-100 fit score
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths"`
	Gaps      []string `json:"gaps"`
	Usage     UsageInfo
}

// InterviewParams contains inputs for question generation.
type InterviewParams struct {
	JobTitle       string
	JobDescription string
	Count          int // number of questions; capped at 10
}

// Question is one generated interview question.
type Question struct {
	Text     string `json:"text"`
	Category string `json:"category"` // e.g. "behavioral", "technical"
}

// UsageInfo tracks token usage for monitoring.
type UsageInfo struct {
	Model        string
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
}

// ProviderConfig holds retry behavior shared by provider implementations.
type ProviderConfig struct {
	MaxRetries     int
	RetryBaseDelay time.Duration
	RequestTimeout time.Duration
}

// ErrRateLimited marks a provider 429; the caller's backoff retries it.
var ErrRateLimited = errors.New("ai provider rate limited")

// ErrUnavailable marks a provider 5xx or transport failure.
var ErrUnavailable = errors.New("ai provider unavailable")

// IsRetryable reports whether an error is worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}
