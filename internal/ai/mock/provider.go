// Package mock provides a canned ai.Provider for local development and tests.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/mlawrence/jobscout/internal/ai"
)

// Provider returns deterministic responses and records call counts.
type Provider struct {
	mu sync.Mutex

	MatchCalls     int
	InterviewCalls int

	// Err, when set, is returned by every call.
	Err error
}

// New creates a new mock provider.
func New() *Provider {
	return &Provider{}
}

func (p *Provider) MatchResume(ctx context.Context, params ai.MatchResumeParams) (*ai.MatchResult, error) {
	p.mu.Lock()
	p.MatchCalls++
	err := p.Err
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return &ai.MatchResult{
		Score:     72,
		Summary:   fmt.Sprintf("Solid fit for %s with relevant experience in most required areas.", params.JobTitle),
		Strengths: []string{"Relevant industry background", "Strong technical coverage"},
		Gaps:      []string{"Limited leadership experience"},
		Usage:     ai.UsageInfo{Model: "mock"},
	}, nil
}

func (p *Provider) InterviewQuestions(ctx context.Context, params ai.InterviewParams) ([]ai.Question, error) {
	p.mu.Lock()
	p.InterviewCalls++
	err := p.Err
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	count := params.Count
	if count <= 0 || count > 10 {
		count = 5
	}

	questions := make([]ai.Question, 0, count)
	categories := []string{"behavioral", "technical", "situational"}
	for i := 0; i < count; i++ {
		questions = append(questions, ai.Question{
			Text:     fmt.Sprintf("Question %d: describe a challenge you faced relevant to the %s role.", i+1, params.JobTitle),
			Category: categories[i%len(categories)],
		})
	}
	return questions, nil
}
