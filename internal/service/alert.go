// Package service contains the business logic layer.
//
// This file implements job-alert management. The periodic sweep that
// delivers alerts lives in the alerts package; this service owns creation
// (quota-gated) and unsubscribe.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/repository"
)

// AlertService defines job-alert management operations.
type AlertService interface {
	// Create registers a new active alert for the user. The alert quota
	// caps how many active alerts a user may hold at once.
	Create(ctx context.Context, userID uuid.UUID, query, location string, frequency domain.AlertFrequency) (*domain.JobAlert, error)

	// Unsubscribe deactivates an alert. Idempotent; the row is kept.
	Unsubscribe(ctx context.Context, alertID uuid.UUID) error
}

// AlertStore is the subset of repository queries this service uses.
// *repository.Queries satisfies it.
type AlertStore interface {
	CreateJobAlert(ctx context.Context, params repository.CreateJobAlertParams) (*domain.JobAlert, error)
	DeactivateJobAlert(ctx context.Context, alertID uuid.UUID) error
}

type alertService struct {
	store  AlertStore
	quota  QuotaService
	logger *slog.Logger
}

// NewAlertService creates a new AlertService.
func NewAlertService(store AlertStore, quota QuotaService, logger *slog.Logger) AlertService {
	return &alertService{
		store:  store,
		quota:  quota,
		logger: logger,
	}
}

func (s *alertService) Create(ctx context.Context, userID uuid.UUID, query, location string, frequency domain.AlertFrequency) (*domain.JobAlert, error) {
	const op = "alert.create"

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.Invalid(op, "A search query is required.")
	}
	if frequency != domain.AlertFrequencyDaily && frequency != domain.AlertFrequencyWeekly {
		return nil, domain.Invalid(op, "Frequency must be daily or weekly.")
	}

	decision, err := s.quota.CanPerform(ctx, userID, domain.ActionAlert)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, domain.Errorf(domain.EPAYMENT, op, "%s", decision.Reason)
	}

	alert, err := s.store.CreateJobAlert(ctx, repository.CreateJobAlertParams{
		ID:          uuid.New(),
		UserID:      userID,
		SearchQuery: query,
		Location:    strings.TrimSpace(location),
		Frequency:   frequency,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create alert")
	}

	metadata, _ := json.Marshal(map[string]string{"alert_id": alert.ID.String()})
	s.quota.Record(ctx, userID, domain.ActionAlert, metadata)

	s.logger.Info("job alert created", "user_id", userID, "alert_id", alert.ID, "frequency", frequency)
	return alert, nil
}

func (s *alertService) Unsubscribe(ctx context.Context, alertID uuid.UUID) error {
	const op = "alert.unsubscribe"

	if err := s.store.DeactivateJobAlert(ctx, alertID); err != nil {
		return domain.Internal(err, op, "failed to deactivate alert")
	}
	return nil
}
