// Package service contains the business logic layer.
//
// This file implements direct applications. Applying is double-gated: the
// plan must include the feature at all, and the monthly application quota
// must have room.
package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/repository"
)

// ApplicationService defines direct-application operations.
type ApplicationService interface {
	// Apply submits an application for a posting. Returns EFORBIDDEN when
	// the plan excludes direct applications, EPAYMENT when the monthly
	// application quota is exhausted.
	Apply(ctx context.Context, userID uuid.UUID, posting domain.JobPosting) (*domain.Application, error)
}

// ApplicationStore is the subset of repository queries this service uses.
// *repository.Queries satisfies it.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, params repository.CreateApplicationParams) (*domain.Application, error)
}

type applicationService struct {
	store  ApplicationStore
	users  UserService
	quota  QuotaService
	logger *slog.Logger
}

// NewApplicationService creates a new ApplicationService.
func NewApplicationService(store ApplicationStore, users UserService, quota QuotaService, logger *slog.Logger) ApplicationService {
	return &applicationService{
		store:  store,
		users:  users,
		quota:  quota,
		logger: logger,
	}
}

func (s *applicationService) Apply(ctx context.Context, userID uuid.UUID, posting domain.JobPosting) (*domain.Application, error) {
	const op = "application.apply"

	if posting.Ref == "" {
		return nil, domain.Invalid(op, "A job reference is required.")
	}

	plan, err := s.users.GetPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	limits := domain.LimitsFor(plan.Tier)
	if !limits.CanApplyDirectly {
		return nil, domain.Errorf(domain.EFORBIDDEN, op, "Direct applications are not included in your plan. Upgrade to continue.")
	}

	decision, err := s.quota.CanPerform(ctx, userID, domain.ActionApplication)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, domain.Errorf(domain.EPAYMENT, op, "%s", decision.Reason)
	}

	application, err := s.store.CreateApplication(ctx, repository.CreateApplicationParams{
		ID:     uuid.New(),
		UserID: userID,
		JobRef: posting.Ref,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create application")
	}

	metadata, _ := json.Marshal(map[string]string{"job_ref": posting.Ref})
	s.quota.Record(ctx, userID, domain.ActionApplication, metadata)

	return application, nil
}
