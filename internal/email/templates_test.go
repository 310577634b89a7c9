package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlawrence/jobscout/internal/domain"
)

func TestBuildWelcomeEmail(t *testing.T) {
	msg, err := buildWelcomeEmail("ada@example.com", "Ada")
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", msg.To)
	assert.NotEmpty(t, msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Ada")
	assert.Contains(t, msg.TextBody, "Ada")
}

func TestBuildAlertEmail(t *testing.T) {
	alert := domain.JobAlert{
		SearchQuery: "go developer",
		Frequency:   domain.AlertFrequencyDaily,
	}
	postings := []domain.JobPosting{
		{Ref: "job-1", Title: "Go Developer", Company: "Acme", URL: "https://jobs.example.com/1"},
		{Ref: "job-2", Title: "Backend Engineer", Company: "Initech", URL: "https://jobs.example.com/2"},
	}

	msg, err := buildAlertEmail("ada@example.com", "Ada", alert, postings, "https://jobscout.dev/alerts/x/unsubscribe")
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, `2 new jobs matching "go developer"`, msg.Subject)

	for _, p := range postings {
		assert.Contains(t, msg.HTMLBody, p.Title)
		assert.Contains(t, msg.HTMLBody, p.Company)
		assert.Contains(t, msg.HTMLBody, p.URL)
	}
	assert.Contains(t, msg.HTMLBody, "https://jobscout.dev/alerts/x/unsubscribe")
	assert.Contains(t, msg.TextBody, "Unsubscribe from this alert: https://jobscout.dev/alerts/x/unsubscribe")
}

func TestBuildAlertEmailEscapesHTML(t *testing.T) {
	alert := domain.JobAlert{SearchQuery: "go developer"}
	postings := []domain.JobPosting{
		{Ref: "job-1", Title: "<script>alert(1)</script>", Company: "Acme"},
	}

	msg, err := buildAlertEmail("ada@example.com", "Ada", alert, postings, "https://jobscout.dev/u")
	require.NoError(t, err)
	assert.False(t, strings.Contains(msg.HTMLBody, "<script>"), "posting title must be escaped")
}
