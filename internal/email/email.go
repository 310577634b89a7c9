// Package email provides email sending functionality for the Jobscout application.
//
// This package defines an EmailService interface with implementations for:
// - SMTP (for development with Mailhog and low-volume production)
// - SendGrid API (for production sending)
package email

import (
	"context"

	"github.com/mlawrence/jobscout/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EmailService defines the interface for sending transactional emails.
//
// Implementations:
// - SMTPEmailService: Uses SMTP protocol (Mailhog for dev)
// - SendGridEmailService: Uses the SendGrid v3 API
//
// All methods are context-aware for timeout and cancellation support.
type EmailService interface {
	// SendWelcomeEmail greets a newly registered user.
	// Parameters:
	// - to: Recipient email address
	// - name: Recipient's name for personalization
	SendWelcomeEmail(ctx context.Context, to, name string) error

	// SendJobAlertEmail sends a digest of new postings for a saved alert.
	// Parameters:
	// - to: Recipient email address
	// - name: Recipient's name for personalization
	// - alert: The alert that matched, for the subject line and footer
	// - postings: Matching postings, newest first
	// - unsubscribeURL: One-click deactivation link for this alert
	SendJobAlertEmail(ctx context.Context, to, name string, alert domain.JobAlert, postings []domain.JobPosting, unsubscribeURL string) error
}

// =============================================================================
// Email Data Types
// =============================================================================

// Email represents a single email message.
type Email struct {
	To       string // Recipient email address
	Subject  string // Email subject line
	HTMLBody string // HTML content of the email
	TextBody string // Plain text fallback content
}

// =============================================================================
// Configuration Types
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // SMTP authentication username (empty for Mailhog)
	Password string // SMTP authentication password (empty for Mailhog)
	From     string // Default sender email address
	FromName string // Default sender display name
}

// Provider names accepted by configuration.
const (
	ProviderSMTP     = "smtp"
	ProviderSendGrid = "sendgrid"
)

// =============================================================================
// Common Constants
// =============================================================================

const (
	// DefaultFromEmail is the default sender email for transactional emails.
	DefaultFromEmail = "noreply@jobscout.dev"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "Jobscout"
)
