package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Action rows are never deleted; they are the audit trail of every tool call
// the assistant proposed.
type Action struct {
	Id                   uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ConversationId       uuid.UUID      `gorm:"type:uuid;not null;index"`
	MessageId            *uuid.UUID     `gorm:"type:uuid;index"`
	UserId               uuid.UUID      `gorm:"type:uuid;not null;index"`
	CompanyId            uuid.UUID      `gorm:"type:uuid;not null"`
	Tool                 string         `gorm:"type:varchar(100);not null"`
	Arguments            datatypes.JSON `gorm:"column:arguments"`
	Status               string         `gorm:"type:varchar(30);not null;index"`
	RequiresConfirmation bool           `gorm:"not null"`
	Result               datatypes.JSON `gorm:"column:result"`
	Error                *string        `gorm:"type:text"`
	ConfirmedAt          *time.Time     `gorm:"column:confirmed_at"`
	ExecutedAt           *time.Time     `gorm:"column:executed_at"`
	CancelledAt          *time.Time     `gorm:"column:cancelled_at"`
	CreatedAt            time.Time      `gorm:"autoCreateTime"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime"`

	Conversation *Conversation `gorm:"foreignKey:ConversationId;constraint:OnDelete:CASCADE"`
}

func (Action) TableName() string {
	return "actions"
}

func (a *Action) BeforeCreate(tx *gorm.DB) error {
	ensureId(&a.Id)
	return nil
}
