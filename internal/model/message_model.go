package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Message struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ConversationId   uuid.UUID      `gorm:"type:uuid;not null;index:idx_messages_conversation_created,priority:1"`
	UserId           *uuid.UUID     `gorm:"type:uuid"`
	Role             string         `gorm:"type:varchar(20);not null;check:chk_messages_role,role IN ('user','assistant')"`
	Content          string         `gorm:"type:text;not null"`
	Provider         string         `gorm:"type:varchar(50)"`
	Model            string         `gorm:"type:varchar(100)"`
	PromptTokens     int            `gorm:"default:0"`
	CompletionTokens int            `gorm:"default:0"`
	Status           string         `gorm:"type:varchar(30);not null"`
	Metadata         datatypes.JSON `gorm:"column:metadata"`
	CreatedAt        time.Time      `gorm:"index:idx_messages_conversation_created,priority:2"`

	Conversation *Conversation `gorm:"foreignKey:ConversationId;constraint:OnDelete:CASCADE"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	ensureId(&m.Id)
	return nil
}
