// Package quota enforces the monthly message allowance of each user's plan.
//
// Counters roll over lazily: nothing runs at the end of a period, the first
// request after it resets the counter.
package quota

import (
	"context"
	"fmt"
	"time"

	"fleet-assistant-be/internal/apperror"
	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/pkg/logger"
	"fleet-assistant-be/internal/repository/specification"
	"fleet-assistant-be/internal/repository/unitofwork"
	"fleet-assistant-be/pkg/events"
	"fleet-assistant-be/pkg/metrics"

	"github.com/google/uuid"
)

const module = "QuotaGuard"

type Config struct {
	FreePlanSlug  string
	FreePlanLimit int
}

type Guard struct {
	cfg       Config
	publisher events.Publisher
	logger    logger.ILogger
	now       func() time.Time
}

type Option func(*Guard)

// WithClock replaces time.Now, for tests that cross period boundaries.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

func NewGuard(cfg Config, publisher events.Publisher, log logger.ILogger, opts ...Option) *Guard {
	if cfg.FreePlanSlug == "" {
		cfg.FreePlanSlug = "free"
	}
	if cfg.FreePlanLimit <= 0 {
		cfg.FreePlanLimit = 50
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	g := &Guard{cfg: cfg, publisher: publisher, logger: log, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NextPeriodEnd is one calendar month after from.
func NextPeriodEnd(from time.Time) time.Time {
	return from.AddDate(0, 1, 0)
}

// EnsureDefaultSubscription returns the user's subscription, creating the
// free plan and a subscription to it when the user has none. Safe to call
// concurrently: both inserts are conflict tolerant and re-read.
func (g *Guard) EnsureDefaultSubscription(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*entity.Subscription, error) {
	repo := uow.SubscriptionRepository()

	sub, err := repo.FindOneSubscription(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	if sub != nil {
		return sub, nil
	}

	limit := g.cfg.FreePlanLimit
	plan := &entity.Plan{
		Slug:                g.cfg.FreePlanSlug,
		Name:                "Free",
		MonthlyMessageLimit: &limit,
		Features:            []string{"assistant"},
	}
	if err := repo.CreatePlanIfAbsent(ctx, plan); err != nil {
		return nil, fmt.Errorf("ensure free plan: %w", err)
	}

	now := g.now()
	periodEnd := NextPeriodEnd(now)
	sub = &entity.Subscription{
		UserId:          userId,
		PlanId:          plan.Id,
		MessagesUsed:    0,
		PeriodStartedAt: now,
		PeriodEndsAt:    &periodEnd,
	}
	if err := repo.CreateSubscriptionIfAbsent(ctx, sub); err != nil {
		return nil, fmt.Errorf("create default subscription: %w", err)
	}

	g.logger.Info(module, "Default subscription ensured", map[string]interface{}{
		"user_id": userId,
		"plan":    plan.Slug,
	})
	return sub, nil
}

// ResolvePlanAndSubscription ensures a subscription exists and rolls its
// period over when it has elapsed.
func (g *Guard) ResolvePlanAndSubscription(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*entity.Plan, *entity.Subscription, error) {
	sub, err := g.EnsureDefaultSubscription(ctx, uow, userId)
	if err != nil {
		return nil, nil, err
	}

	now := g.now()
	if sub.PeriodElapsed(now) {
		newEnd := NextPeriodEnd(now)
		rolled, err := uow.SubscriptionRepository().RollOverPeriod(ctx, sub.Id, now, newEnd)
		if err != nil {
			return nil, nil, fmt.Errorf("roll over period: %w", err)
		}
		if rolled {
			g.logger.Info(module, "Usage period rolled over", map[string]interface{}{
				"user_id":        userId,
				"previous_used":  sub.MessagesUsed,
				"period_ends_at": newEnd,
			})
		}
		// Whoever won the race, the stored row now holds the current period
		sub, err = uow.SubscriptionRepository().FindOneSubscription(ctx, specification.ByID{ID: sub.Id})
		if err != nil {
			return nil, nil, fmt.Errorf("reload subscription: %w", err)
		}
		if sub == nil {
			return nil, nil, fmt.Errorf("subscription for user %s vanished during rollover", userId)
		}
	}

	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: sub.PlanId})
	if err != nil {
		return nil, nil, fmt.Errorf("find plan: %w", err)
	}
	if plan == nil {
		return nil, nil, fmt.Errorf("plan %s of subscription %s not found", sub.PlanId, sub.Id)
	}
	return plan, sub, nil
}

// Enforce rejects when the plan has a positive limit and it is used up.
func (g *Guard) Enforce(plan *entity.Plan, sub *entity.Subscription) error {
	if plan.Unlimited() {
		return nil
	}
	limit := *plan.MonthlyMessageLimit
	if sub.MessagesUsed >= limit {
		return &apperror.QuotaExceededError{
			Limit:      limit,
			Used:       sub.MessagesUsed,
			ResetAfter: sub.PeriodEndsAt,
		}
	}
	return nil
}

// Admit resolves and enforces in one step and reports rejections. It is what
// the message flow calls before anything is persisted.
func (g *Guard) Admit(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*entity.Plan, *entity.Subscription, error) {
	plan, sub, err := g.ResolvePlanAndSubscription(ctx, uow, userId)
	if err != nil {
		return nil, nil, err
	}
	if err := g.Enforce(plan, sub); err != nil {
		metrics.RecordQuotaRejection(plan.Slug)
		g.logger.Warn(module, "Message rejected by plan limit", map[string]interface{}{
			"user_id": userId,
			"plan":    plan.Slug,
			"used":    sub.MessagesUsed,
		})
		if perr := g.publisher.Publish(ctx, events.QuotaExceeded(userId, plan.Slug, *plan.MonthlyMessageLimit, sub.MessagesUsed, sub.PeriodEndsAt)); perr != nil {
			g.logger.Warn(module, "Failed to publish quota event", map[string]interface{}{"error": perr.Error()})
		}
		return plan, sub, err
	}
	return plan, sub, nil
}

func (g *Guard) Increment(ctx context.Context, uow unitofwork.UnitOfWork, subscriptionId uuid.UUID) error {
	if err := uow.SubscriptionRepository().IncrementMessagesUsed(ctx, subscriptionId); err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	return nil
}

type Usage struct {
	Plan         *entity.Plan
	Used         int
	Limit        *int
	Remaining    *int
	PeriodStart  time.Time
	PeriodEndsAt *time.Time
}

// Status is the read-only usage summary. It still ensures and rolls over, so
// a fresh period reads as zero used.
func (g *Guard) Status(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*Usage, error) {
	plan, sub, err := g.ResolvePlanAndSubscription(ctx, uow, userId)
	if err != nil {
		return nil, err
	}
	usage := &Usage{
		Plan:         plan,
		Used:         sub.MessagesUsed,
		PeriodStart:  sub.PeriodStartedAt,
		PeriodEndsAt: sub.PeriodEndsAt,
	}
	if !plan.Unlimited() {
		limit := *plan.MonthlyMessageLimit
		remaining := limit - sub.MessagesUsed
		if remaining < 0 {
			remaining = 0
		}
		usage.Limit = &limit
		usage.Remaining = &remaining
	}
	return usage, nil
}
