package email

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/mlawrence/jobscout/internal/domain"
)

// =============================================================================
// SMTP Email Service Implementation
// =============================================================================

// SMTPEmailService sends emails via SMTP.
//
// This implementation works with:
// - Mailhog (development): No authentication required
// - Any standard SMTP server with username/password authentication
type SMTPEmailService struct {
	config SMTPConfig
	logger *slog.Logger
}

// NewSMTPEmailService creates a new SMTP-based email service.
func NewSMTPEmailService(config SMTPConfig, logger *slog.Logger) *SMTPEmailService {
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	return &SMTPEmailService{
		config: config,
		logger: logger,
	}
}

// =============================================================================
// EmailService Interface Implementation
// =============================================================================

// SendWelcomeEmail greets a newly registered user.
func (s *SMTPEmailService) SendWelcomeEmail(ctx context.Context, to, name string) error {
	email, err := buildWelcomeEmail(to, name)
	if err != nil {
		return err
	}
	return s.send(ctx, email)
}

// SendJobAlertEmail sends a digest of new postings for a saved alert.
func (s *SMTPEmailService) SendJobAlertEmail(ctx context.Context, to, name string, alert domain.JobAlert, postings []domain.JobPosting, unsubscribeURL string) error {
	email, err := buildAlertEmail(to, name, alert, postings, unsubscribeURL)
	if err != nil {
		return err
	}
	return s.send(ctx, email)
}

// =============================================================================
// Internal Methods
// =============================================================================

// send sends an email via SMTP.
func (s *SMTPEmailService) send(ctx context.Context, email Email) error {
	msg := s.buildMessage(email)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// Auth is skipped when credentials are empty (Mailhog).
	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	err := smtp.SendMail(addr, auth, s.config.From, []string{email.To}, msg)
	if err != nil {
		s.logger.Error("failed to send email",
			"to", email.To,
			"subject", email.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
	)

	return nil
}

// buildMessage constructs the raw email message with headers.
func (s *SMTPEmailService) buildMessage(email Email) []byte {
	var buf bytes.Buffer

	fromHeader := fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)

	buf.WriteString(fmt.Sprintf("From: %s\r\n", fromHeader))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	boundary := "===============JOBSCOUT_BOUNDARY==============="
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.TextBody)
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.HTMLBody)
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return buf.Bytes()
}

// =============================================================================
// Compile-time interface check
// =============================================================================

var _ EmailService = (*SMTPEmailService)(nil)
