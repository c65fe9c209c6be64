package implementation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/mapper"
	"fleet-assistant-be/internal/model"
	"fleet-assistant-be/internal/repository/contract"
	"fleet-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubscriptionMapper
}

func NewSubscriptionRepository(db *gorm.DB) contract.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubscriptionMapper(),
	}
}

// Plan Implementation

func (r *SubscriptionRepositoryImpl) CreatePlanIfAbsent(ctx context.Context, plan *entity.Plan) error {
	m := r.mapper.PlanToModel(plan)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
		Create(m).Error
	if err != nil {
		return err
	}
	// Re-read: on conflict the row we hold was never written
	existing, err := r.FindOnePlan(ctx, specification.BySlug{Slug: plan.Slug})
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("plan %q missing after insert", plan.Slug)
	}
	*plan = *existing
	return nil
}

func (r *SubscriptionRepositoryImpl) UpsertPlan(ctx context.Context, plan *entity.Plan) error {
	m := r.mapper.PlanToModel(plan)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "provider", "model", "monthly_message_limit", "features", "price", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	existing, err := r.FindOnePlan(ctx, specification.BySlug{Slug: plan.Slug})
	if err != nil {
		return err
	}
	if existing != nil {
		*plan = *existing
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) FindOnePlan(ctx context.Context, specs ...specification.Specification) (*entity.Plan, error) {
	var m model.Plan
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PlanToEntity(&m), nil
}

func (r *SubscriptionRepositoryImpl) FindAllPlans(ctx context.Context, specs ...specification.Specification) ([]*entity.Plan, error) {
	var models []*model.Plan
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Plan, len(models))
	for i, m := range models {
		entities[i] = r.mapper.PlanToEntity(m)
	}
	return entities, nil
}

// Subscription Implementation

func (r *SubscriptionRepositoryImpl) CreateSubscriptionIfAbsent(ctx context.Context, subscription *entity.Subscription) error {
	m := r.mapper.SubscriptionToModel(subscription)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(m).Error
	if err != nil {
		return err
	}
	existing, err := r.FindOneSubscription(ctx, specification.UserOwnedBy{UserID: subscription.UserId})
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("subscription for user %s missing after insert", subscription.UserId)
	}
	*subscription = *existing
	return nil
}

func (r *SubscriptionRepositoryImpl) UpdateSubscription(ctx context.Context, subscription *entity.Subscription) error {
	m := r.mapper.SubscriptionToModel(subscription)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*subscription = *r.mapper.SubscriptionToEntity(m)
	return nil
}

func (r *SubscriptionRepositoryImpl) FindOneSubscription(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error) {
	var m model.Subscription
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SubscriptionToEntity(&m), nil
}

func (r *SubscriptionRepositoryImpl) RollOverPeriod(ctx context.Context, id uuid.UUID, now time.Time, newEnd time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("id = ? AND period_ends_at IS NOT NULL AND period_ends_at < ?", id, now).
		Updates(map[string]interface{}{
			"messages_used":     0,
			"period_started_at": now,
			"period_ends_at":    newEnd,
			"updated_at":        now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *SubscriptionRepositoryImpl) IncrementMessagesUsed(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"messages_used": gorm.Expr("messages_used + ?", 1),
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("subscription %s not found", id)
	}
	return nil
}
