package jobsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlawrence/jobscout/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type upstreamResult struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Company  string    `json:"company"`
	PostedAt time.Time `json:"posted_at"`
}

func upstream(t *testing.T, results []upstreamResult, capture *http.Request) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			*capture = *r
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
}

func TestSearch(t *testing.T) {
	now := time.Now()
	var got http.Request
	server := upstream(t, []upstreamResult{
		{ID: "job-1", Title: "Go Developer", Company: "Acme", PostedAt: now.Add(-2 * time.Hour)},
		{ID: "job-2", Title: "Backend Engineer", Company: "Initech", PostedAt: now.Add(-24 * time.Hour)},
	}, &got)
	defer server.Close()

	client := New(server.URL, "test-key", testLogger())
	postings, err := client.Search(context.Background(), Params{Query: "go developer", Location: "Berlin"})
	require.NoError(t, err)

	require.Len(t, postings, 2)
	assert.Equal(t, "job-1", postings[0].Ref)
	assert.Equal(t, "Go Developer", postings[0].Title)

	// The upstream request carries the query, location, and recency bound.
	q := got.URL.Query()
	assert.Equal(t, "go developer", q.Get("q"))
	assert.Equal(t, "Berlin", q.Get("location"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.NotEmpty(t, q.Get("posted_after"))
	assert.Equal(t, "Bearer test-key", got.Header.Get("Authorization"))
}

func TestSearchRequiresQuery(t *testing.T) {
	client := New("http://localhost:9090", "", testLogger())

	_, err := client.Search(context.Background(), Params{})
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestSearchFiltersStalePostings(t *testing.T) {
	now := time.Now()
	server := upstream(t, []upstreamResult{
		{ID: "fresh", Title: "Go Developer", PostedAt: now.Add(-24 * time.Hour)},
		{ID: "stale", Title: "Go Developer", PostedAt: now.Add(-30 * 24 * time.Hour)},
	}, nil)
	defer server.Close()

	client := New(server.URL, "", testLogger())
	postings, err := client.Search(context.Background(), Params{Query: "go"})
	require.NoError(t, err)

	// Postings older than the recency window are dropped even when the
	// upstream returns them.
	require.Len(t, postings, 1)
	assert.Equal(t, "fresh", postings[0].Ref)
}

func TestSearchCapsResults(t *testing.T) {
	now := time.Now()
	var results []upstreamResult
	for i := 0; i < 25; i++ {
		results = append(results, upstreamResult{
			ID:       fmt.Sprintf("job-%d", i),
			Title:    "Go Developer",
			PostedAt: now.Add(-time.Hour),
		})
	}
	server := upstream(t, results, nil)
	defer server.Close()

	client := New(server.URL, "", testLogger())
	postings, err := client.Search(context.Background(), Params{Query: "go"})
	require.NoError(t, err)
	assert.Len(t, postings, MaxResults)

	// An explicit smaller limit wins.
	postings, err = client.Search(context.Background(), Params{Query: "go", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, postings, 3)
}

func TestSearchUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "", testLogger())
	_, err := client.Search(context.Background(), Params{Query: "go"})
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}
