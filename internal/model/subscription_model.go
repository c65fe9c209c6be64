package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Plan struct {
	Id                  uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Slug                string         `gorm:"type:varchar(100);uniqueIndex;not null"`
	Name                string         `gorm:"type:varchar(255);not null"`
	Provider            string         `gorm:"type:varchar(50)"`
	Model               string         `gorm:"type:varchar(100)"`
	MonthlyMessageLimit *int           `gorm:"column:monthly_message_limit"` // NULL = unlimited
	Features            datatypes.JSON `gorm:"column:features"`
	Price               float64        `gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt           time.Time      `gorm:"autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime"`
}

func (Plan) TableName() string {
	return "plans"
}

func (p *Plan) BeforeCreate(tx *gorm.DB) error {
	ensureId(&p.Id)
	return nil
}

type Subscription struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserId          uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	PlanId          uuid.UUID  `gorm:"type:uuid;not null;index"`
	MessagesUsed    int        `gorm:"not null;default:0"`
	PeriodStartedAt time.Time  `gorm:"not null"`
	PeriodEndsAt    *time.Time `gorm:"column:period_ends_at"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`

	Plan *Plan `gorm:"foreignKey:PlanId"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	ensureId(&s.Id)
	return nil
}
