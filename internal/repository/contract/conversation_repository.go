package contract

import (
	"context"
	"time"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	// UpdateDetails writes title and metadata only; conversations are otherwise immutable.
	UpdateDetails(ctx context.Context, conversation *entity.Conversation) error
	TouchLastMessageAt(ctx context.Context, id uuid.UUID, at time.Time) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
