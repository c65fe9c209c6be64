package entity

import (
	"time"

	"github.com/google/uuid"
)

type Plan struct {
	Id                  uuid.UUID
	Slug                string
	Name                string
	Provider            string
	Model               string
	MonthlyMessageLimit *int // nil = unlimited
	Features            []string
	Price               float64
	CreatedAt           time.Time
}

// Unlimited reports whether the plan never rejects a message. A zero limit is
// treated the same as no limit.
func (p *Plan) Unlimited() bool {
	return p.MonthlyMessageLimit == nil || *p.MonthlyMessageLimit == 0
}

type Subscription struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	PlanId          uuid.UUID
	MessagesUsed    int
	PeriodStartedAt time.Time
	PeriodEndsAt    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PeriodElapsed reports whether the billing period has ended at now.
func (s *Subscription) PeriodElapsed(now time.Time) bool {
	return s.PeriodEndsAt != nil && now.After(*s.PeriodEndsAt)
}
