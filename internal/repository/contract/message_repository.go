package contract

import (
	"context"
	"time"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	// FindWindow returns the last limit messages of a conversation created
	// before the cursor (if any), oldest first.
	FindWindow(ctx context.Context, conversationId uuid.UUID, limit int, before *time.Time) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
