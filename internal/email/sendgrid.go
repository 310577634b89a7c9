package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/mlawrence/jobscout/internal/domain"
)

// =============================================================================
// SendGrid Email Service Implementation
// =============================================================================

// SendGridEmailService sends emails via the SendGrid v3 API.
type SendGridEmailService struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *slog.Logger
}

// NewSendGridEmailService creates a new SendGrid-based email service.
func NewSendGridEmailService(apiKey, from, fromName string, logger *slog.Logger) (*SendGridEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid API key is required")
	}
	if from == "" {
		from = DefaultFromEmail
	}
	if fromName == "" {
		fromName = DefaultFromName
	}

	return &SendGridEmailService{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, from),
		logger: logger,
	}, nil
}

// =============================================================================
// EmailService Interface Implementation
// =============================================================================

// SendWelcomeEmail greets a newly registered user.
func (s *SendGridEmailService) SendWelcomeEmail(ctx context.Context, to, name string) error {
	email, err := buildWelcomeEmail(to, name)
	if err != nil {
		return err
	}
	return s.send(ctx, name, email)
}

// SendJobAlertEmail sends a digest of new postings for a saved alert.
func (s *SendGridEmailService) SendJobAlertEmail(ctx context.Context, to, name string, alert domain.JobAlert, postings []domain.JobPosting, unsubscribeURL string) error {
	email, err := buildAlertEmail(to, name, alert, postings, unsubscribeURL)
	if err != nil {
		return err
	}
	return s.send(ctx, name, email)
}

// =============================================================================
// Internal Methods
// =============================================================================

func (s *SendGridEmailService) send(ctx context.Context, toName string, email Email) error {
	to := mail.NewEmail(toName, email.To)
	message := mail.NewSingleEmail(s.from, email.Subject, to, email.TextBody, email.HTMLBody)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("failed to send email",
			"to", email.To,
			"subject", email.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected email",
			"to", email.To,
			"subject", email.Subject,
			"status", response.StatusCode,
			"body", response.Body,
		)
		return fmt.Errorf("sendgrid rejected email: status %d", response.StatusCode)
	}

	s.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
		"status", response.StatusCode,
	)

	return nil
}

// =============================================================================
// Compile-time interface check
// =============================================================================

var _ EmailService = (*SendGridEmailService)(nil)
