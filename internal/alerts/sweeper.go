// Package alerts implements the job-alert sweeper.
//
// A sweep loads every active alert, sends a digest email for each alert
// that is due and has fresh matching postings, and advances last_sent_at.
// One alert failing never stops the sweep; the failure is counted and the
// next alert is processed.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/jobsearch"
	"github.com/mlawrence/jobscout/internal/metrics"
)

// Summary reports the outcome of one sweep.
type Summary struct {
	Total     int // active alerts considered
	Processed int // due alerts handled without error
	Errors    int // due alerts that failed
}

// AlertStore is the subset of repository queries the sweeper uses.
// *repository.Queries satisfies it.
type AlertStore interface {
	ListActiveJobAlerts(ctx context.Context) ([]domain.JobAlert, error)
	UpdateJobAlertLastSent(ctx context.Context, alertID uuid.UUID, sentAt time.Time) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Searcher finds postings for an alert's saved query.
// *jobsearch.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, params jobsearch.Params) ([]domain.JobPosting, error)
}

// Sender delivers the digest email.
// email.EmailService implementations satisfy it.
type Sender interface {
	SendJobAlertEmail(ctx context.Context, to, name string, alert domain.JobAlert, postings []domain.JobPosting, unsubscribeURL string) error
}

// Sweeper processes due job alerts. Create one per invocation; Run is not
// safe for concurrent use.
type Sweeper struct {
	store    AlertStore
	searcher Searcher
	sender   Sender
	config   Config
	logger   *slog.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a new Sweeper with the given configuration.
func New(store AlertStore, searcher Searcher, sender Sender, config Config, logger *slog.Logger) (*Sweeper, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Sweeper{
		store:    store,
		searcher: searcher,
		sender:   sender,
		config:   config,
		logger:   logger,
		now:      time.Now,
		sleep:    time.Sleep,
	}, nil
}

// Run executes one sweep over all active alerts. It returns an error only
// when the alert list itself cannot be loaded; per-alert failures are
// reflected in the Summary.
func (s *Sweeper) Run(ctx context.Context) (Summary, error) {
	start := s.now()
	metrics.AlertSweepsTotal.Inc()

	sweepAlerts, err := s.store.ListActiveJobAlerts(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list active alerts: %w", err)
	}

	summary := Summary{Total: len(sweepAlerts)}
	sent := 0

	for i := range sweepAlerts {
		alert := sweepAlerts[i]

		if err := ctx.Err(); err != nil {
			s.logger.Warn("sweep canceled", "remaining", len(sweepAlerts)-i)
			break
		}

		if !alert.IsDue(s.now()) {
			metrics.AlertsProcessedTotal.WithLabelValues("skipped").Inc()
			continue
		}

		// Pace outbound email to stay under provider rate limits.
		if sent > 0 {
			s.sleep(s.config.SendDelay)
		}

		emailed, err := s.processAlert(ctx, alert)
		if err != nil {
			summary.Errors++
			metrics.AlertsProcessedTotal.WithLabelValues("error").Inc()
			s.logger.Error("alert processing failed",
				"alert_id", alert.ID,
				"user_id", alert.UserID,
				"error", err,
			)
			continue
		}

		summary.Processed++
		if emailed {
			sent++
			metrics.AlertsProcessedTotal.WithLabelValues("sent").Inc()
		} else {
			metrics.AlertsProcessedTotal.WithLabelValues("empty").Inc()
		}
	}

	duration := s.now().Sub(start)
	metrics.AlertSweepDuration.Observe(duration.Seconds())
	s.logger.Info("sweep finished",
		"total", summary.Total,
		"processed", summary.Processed,
		"errors", summary.Errors,
		"duration", duration,
	)

	return summary, nil
}

// processAlert handles one due alert. Reports whether an email went out.
// last_sent_at advances on a successful send and on an empty result; a
// failed send leaves it unchanged so the next sweep retries.
func (s *Sweeper) processAlert(ctx context.Context, alert domain.JobAlert) (bool, error) {
	searchCtx, cancel := context.WithTimeout(ctx, s.config.SearchTimeout)
	defer cancel()

	postings, err := s.searcher.Search(searchCtx, jobsearch.Params{
		Query:    alert.SearchQuery,
		Location: alert.Location,
	})
	if err != nil {
		return false, fmt.Errorf("search: %w", err)
	}

	if len(postings) == 0 {
		if err := s.store.UpdateJobAlertLastSent(ctx, alert.ID, s.now()); err != nil {
			return false, fmt.Errorf("touch alert: %w", err)
		}
		return false, nil
	}

	user, err := s.store.GetUserByID(ctx, alert.UserID)
	if err != nil {
		return false, fmt.Errorf("load alert owner: %w", err)
	}

	unsubscribeURL := fmt.Sprintf("%s/alerts/%s/unsubscribe", s.config.BaseURL, alert.ID)
	if err := s.sender.SendJobAlertEmail(ctx, user.Email, user.Name, alert, postings, unsubscribeURL); err != nil {
		return false, fmt.Errorf("send digest: %w", err)
	}

	if err := s.store.UpdateJobAlertLastSent(ctx, alert.ID, s.now()); err != nil {
		// The email went out; the alert may be re-sent next sweep.
		return true, fmt.Errorf("update last sent: %w", err)
	}

	return true, nil
}
