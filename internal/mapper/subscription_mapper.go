package mapper

import (
	"encoding/json"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/model"

	"gorm.io/datatypes"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) PlanToEntity(p *model.Plan) *entity.Plan {
	if p == nil {
		return nil
	}
	var features []string
	if len(p.Features) > 0 {
		_ = json.Unmarshal(p.Features, &features)
	}
	return &entity.Plan{
		Id:                  p.Id,
		Slug:                p.Slug,
		Name:                p.Name,
		Provider:            p.Provider,
		Model:               p.Model,
		MonthlyMessageLimit: p.MonthlyMessageLimit,
		Features:            features,
		Price:               p.Price,
		CreatedAt:           p.CreatedAt,
	}
}

func (m *SubscriptionMapper) PlanToModel(p *entity.Plan) *model.Plan {
	if p == nil {
		return nil
	}
	var features datatypes.JSON
	if len(p.Features) > 0 {
		if b, err := json.Marshal(p.Features); err == nil {
			features = datatypes.JSON(b)
		}
	}
	return &model.Plan{
		Id:                  p.Id,
		Slug:                p.Slug,
		Name:                p.Name,
		Provider:            p.Provider,
		Model:               p.Model,
		MonthlyMessageLimit: p.MonthlyMessageLimit,
		Features:            features,
		Price:               p.Price,
		CreatedAt:           p.CreatedAt,
	}
}

func (m *SubscriptionMapper) SubscriptionToEntity(s *model.Subscription) *entity.Subscription {
	if s == nil {
		return nil
	}
	return &entity.Subscription{
		Id:              s.Id,
		UserId:          s.UserId,
		PlanId:          s.PlanId,
		MessagesUsed:    s.MessagesUsed,
		PeriodStartedAt: s.PeriodStartedAt,
		PeriodEndsAt:    s.PeriodEndsAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func (m *SubscriptionMapper) SubscriptionToModel(s *entity.Subscription) *model.Subscription {
	if s == nil {
		return nil
	}
	return &model.Subscription{
		Id:              s.Id,
		UserId:          s.UserId,
		PlanId:          s.PlanId,
		MessagesUsed:    s.MessagesUsed,
		PeriodStartedAt: s.PeriodStartedAt,
		PeriodEndsAt:    s.PeriodEndsAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}
