package contract

import (
	"context"
	"encoding/json"
	"time"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ActionChanges are the columns a transition may write alongside the status.
type ActionChanges struct {
	ConfirmedAt *time.Time
	ExecutedAt  *time.Time
	CancelledAt *time.Time
	Result      json.RawMessage
	Error       *string
}

type ActionRepository interface {
	Create(ctx context.Context, action *entity.Action) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Action, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Action, error)
	// Transition moves the action to `to` only if its current status is one of
	// `from`. It reports false when another writer got there first.
	Transition(ctx context.Context, id uuid.UUID, from []entity.ActionStatus, to entity.ActionStatus, changes ActionChanges) (bool, error)
}
