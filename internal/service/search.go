// Package service contains the business logic layer.
//
// This file implements quota-gated job search over the upstream postings
// API.
package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/jobsearch"
)

// SearchService defines gated job search.
type SearchService interface {
	// Search returns recent postings matching the query. Returns a
	// domain.EPAYMENT error when the monthly search quota is exhausted.
	Search(ctx context.Context, userID uuid.UUID, params jobsearch.Params) ([]domain.JobPosting, error)
}

// PostingSearcher is the upstream client this service wraps.
// *jobsearch.Client satisfies it.
type PostingSearcher interface {
	Search(ctx context.Context, params jobsearch.Params) ([]domain.JobPosting, error)
}

type searchService struct {
	searcher PostingSearcher
	quota    QuotaService
	logger   *slog.Logger
}

// NewSearchService creates a new SearchService.
func NewSearchService(searcher PostingSearcher, quota QuotaService, logger *slog.Logger) SearchService {
	return &searchService{
		searcher: searcher,
		quota:    quota,
		logger:   logger,
	}
}

func (s *searchService) Search(ctx context.Context, userID uuid.UUID, params jobsearch.Params) ([]domain.JobPosting, error) {
	const op = "search.search"

	decision, err := s.quota.CanPerform(ctx, userID, domain.ActionSearch)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, domain.Errorf(domain.EPAYMENT, op, "%s", decision.Reason)
	}

	postings, err := s.searcher.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	metadata, _ := json.Marshal(map[string]string{"query": params.Query})
	s.quota.Record(ctx, userID, domain.ActionSearch, metadata)

	return postings, nil
}
