package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/mlawrence/jobscout/internal/domain"
)

// =============================================================================
// Message Construction
// =============================================================================

// Templates are embedded so deployments don't need an assets directory.

var welcomeHTML = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Welcome to Jobscout, {{.Name}}!</h2>
  <p>Your account is ready. Here's how to get started:</p>
  <ul>
    <li>Search for jobs and bookmark the ones you like</li>
    <li>Upload your resume to unlock AI-powered match scores</li>
    <li>Create a job alert and we'll email you new postings</li>
  </ul>
  <p>Happy hunting,<br>The Jobscout Team</p>
  <p style="color: #888; font-size: 12px;">&copy; {{.Year}} Jobscout</p>
</body>
</html>`))

var alertHTML = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>New jobs matching "{{.Query}}"</h2>
  <p>Hi {{.Name}}, here are {{len .Postings}} new postings for your alert:</p>
  {{range .Postings}}
  <div style="border: 1px solid #ddd; border-radius: 6px; padding: 12px; margin-bottom: 12px;">
    <p style="margin: 0;"><a href="{{.URL}}"><strong>{{.Title}}</strong></a></p>
    <p style="margin: 4px 0 0; color: #555;">{{.Company}}{{if .Location}} &middot; {{.Location}}{{end}}</p>
  </div>
  {{end}}
  <p style="color: #888; font-size: 12px;">
    You're receiving this because of your {{.Frequency}} alert for "{{.Query}}".
    <a href="{{.UnsubscribeURL}}">Unsubscribe</a>
  </p>
  <p style="color: #888; font-size: 12px;">&copy; {{.Year}} Jobscout</p>
</body>
</html>`))

func buildWelcomeEmail(to, name string) (Email, error) {
	var htmlBuf bytes.Buffer
	err := welcomeHTML.Execute(&htmlBuf, map[string]interface{}{
		"Name": name,
		"Year": time.Now().Year(),
	})
	if err != nil {
		return Email{}, fmt.Errorf("failed to render welcome email template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi %s,

Welcome to Jobscout! Your account is ready.

Search for jobs, bookmark the ones you like, upload your resume for
AI-powered match scores, and create a job alert so we can email you
new postings.

Happy hunting,
The Jobscout Team
`, name)

	return Email{
		To:       to,
		Subject:  "Welcome to Jobscout",
		HTMLBody: htmlBuf.String(),
		TextBody: textBody,
	}, nil
}

func buildAlertEmail(to, name string, alert domain.JobAlert, postings []domain.JobPosting, unsubscribeURL string) (Email, error) {
	var htmlBuf bytes.Buffer
	err := alertHTML.Execute(&htmlBuf, map[string]interface{}{
		"Name":           name,
		"Query":          alert.SearchQuery,
		"Frequency":      string(alert.Frequency),
		"Postings":       postings,
		"UnsubscribeURL": unsubscribeURL,
		"Year":           time.Now().Year(),
	})
	if err != nil {
		return Email{}, fmt.Errorf("failed to render alert email template: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\nNew jobs matching %q:\n\n", name, alert.SearchQuery)
	for _, p := range postings {
		fmt.Fprintf(&text, "- %s at %s", p.Title, p.Company)
		if p.Location != "" {
			fmt.Fprintf(&text, " (%s)", p.Location)
		}
		fmt.Fprintf(&text, "\n  %s\n", p.URL)
	}
	fmt.Fprintf(&text, "\nUnsubscribe from this alert: %s\n\nThe Jobscout Team\n", unsubscribeURL)

	subject := fmt.Sprintf("%d new jobs matching %q", len(postings), alert.SearchQuery)

	return Email{
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBuf.String(),
		TextBody: text.String(),
	}, nil
}
