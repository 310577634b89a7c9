// Package jobsearch wraps the upstream job posting search API.
package jobsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mlawrence/jobscout/internal/domain"
)

const (
	// MaxResults caps postings returned per search.
	MaxResults = 10

	// RecencyWindow limits searches to postings from the last week.
	RecencyWindow = 7 * 24 * time.Hour

	defaultTimeout = 15 * time.Second
)

// Params describes one search request.
type Params struct {
	Query    string
	Location string // optional
	Limit    int    // 0 means MaxResults
}

// Client searches an upstream postings API over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a search client for the given API base URL.
func New(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  logger,
		now:     time.Now,
	}
}

type searchResponse struct {
	Results []struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Company     string    `json:"company"`
		Location    string    `json:"location"`
		URL         string    `json:"url"`
		Description string    `json:"description"`
		PostedAt    time.Time `json:"posted_at"`
	} `json:"results"`
}

// Search returns recent postings matching the query. Results are capped
// at MaxResults and filtered to the recency window.
func (c *Client) Search(ctx context.Context, params Params) ([]domain.JobPosting, error) {
	const op = "jobsearch.Search"

	if params.Query == "" {
		return nil, domain.Invalid(op, "search query is required")
	}

	limit := params.Limit
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}
	cutoff := c.now().Add(-RecencyWindow)

	q := url.Values{}
	q.Set("q", params.Query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("posted_after", cutoff.UTC().Format(time.RFC3339))
	if params.Location != "" {
		q.Set("location", params.Location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to build search request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.Internal(err, op, "search request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, domain.Internal(fmt.Errorf("status %d: %s", resp.StatusCode, body), op, "search API returned an error")
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, domain.Internal(err, op, "failed to decode search response")
	}

	postings := make([]domain.JobPosting, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		// Upstream is expected to honor posted_after; filter again in case
		// it does not.
		if !r.PostedAt.IsZero() && r.PostedAt.Before(cutoff) {
			continue
		}
		postings = append(postings, domain.JobPosting{
			Ref:         r.ID,
			Title:       r.Title,
			Company:     r.Company,
			Location:    r.Location,
			URL:         r.URL,
			Description: r.Description,
			PostedAt:    r.PostedAt,
		})
		if len(postings) == limit {
			break
		}
	}

	c.logger.Debug("job search completed", "query", params.Query, "results", len(postings))
	return postings, nil
}
