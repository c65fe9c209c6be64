// Service for plan listing and assistant usage
package service

import (
	"context"

	"fleet-assistant-be/internal/dto"
	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/repository/specification"
	"fleet-assistant-be/internal/repository/unitofwork"
	"fleet-assistant-be/pkg/assistant/quota"
)

type PlanService interface {
	// Public
	GetAllPlans(ctx context.Context) ([]dto.PlanResponse, error)

	// User
	GetUsage(ctx context.Context, actor entity.Actor) (*dto.AssistantUsageResponse, error)
}

type planService struct {
	uowFactory unitofwork.RepositoryFactory
	guard      *quota.Guard
}

func NewPlanService(uowFactory unitofwork.RepositoryFactory, guard *quota.Guard) PlanService {
	return &planService{
		uowFactory: uowFactory,
		guard:      guard,
	}
}

// GetAllPlans returns the catalog, cheapest first
func (s *planService) GetAllPlans(ctx context.Context) ([]dto.PlanResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	plans, err := uow.SubscriptionRepository().FindAllPlans(ctx,
		specification.OrderBy{Field: "price"},
		specification.OrderBy{Field: "slug"},
	)
	if err != nil {
		return nil, err
	}

	result := make([]dto.PlanResponse, 0, len(plans))
	for _, plan := range plans {
		result = append(result, toPlanResponse(plan))
	}
	return result, nil
}

// GetUsage ensures the caller has a subscription, so a brand new user sees
// the free plan with nothing used.
func (s *planService) GetUsage(ctx context.Context, actor entity.Actor) (*dto.AssistantUsageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	usage, err := s.guard.Status(ctx, uow, actor.UserId)
	if err != nil {
		return nil, err
	}
	return toUsageResponse(usage), nil
}
