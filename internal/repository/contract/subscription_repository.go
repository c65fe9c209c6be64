package contract

import (
	"context"
	"time"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SubscriptionRepository interface {
	// Plans
	CreatePlanIfAbsent(ctx context.Context, plan *entity.Plan) error
	UpsertPlan(ctx context.Context, plan *entity.Plan) error
	FindOnePlan(ctx context.Context, specs ...specification.Specification) (*entity.Plan, error)
	FindAllPlans(ctx context.Context, specs ...specification.Specification) ([]*entity.Plan, error)

	// Subscriptions
	CreateSubscriptionIfAbsent(ctx context.Context, subscription *entity.Subscription) error
	UpdateSubscription(ctx context.Context, subscription *entity.Subscription) error
	FindOneSubscription(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error)
	// RollOverPeriod resets the counter and starts a new period, but only if
	// the stored period ended before now. Reports whether it did.
	RollOverPeriod(ctx context.Context, id uuid.UUID, now time.Time, newEnd time.Time) (bool, error)
	IncrementMessagesUsed(ctx context.Context, id uuid.UUID) error
}
