package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ActionStatus string

const (
	ActionStatusPendingConfirmation ActionStatus = "pending_confirmation"
	ActionStatusConfirmed           ActionStatus = "confirmed"
	ActionStatusExecuted            ActionStatus = "executed"
	ActionStatusInvalid             ActionStatus = "invalid"
	ActionStatusCancelled           ActionStatus = "cancelled"
	ActionStatusError               ActionStatus = "error"
)

// IsTerminal reports whether no further transition can leave the status.
// invalid is terminal for execution but may still be cancelled.
func (s ActionStatus) IsTerminal() bool {
	switch s {
	case ActionStatusExecuted, ActionStatusCancelled, ActionStatusError:
		return true
	}
	return false
}

func (s ActionStatus) CanConfirm() bool {
	return s == ActionStatusPendingConfirmation
}

func (s ActionStatus) CanCancel() bool {
	return s == ActionStatusPendingConfirmation || s == ActionStatusInvalid
}

type Action struct {
	Id                   uuid.UUID
	ConversationId       uuid.UUID
	MessageId            *uuid.UUID
	UserId               uuid.UUID
	CompanyId            uuid.UUID
	Tool                 string
	Arguments            json.RawMessage
	Status               ActionStatus
	RequiresConfirmation bool
	Result               json.RawMessage
	Error                *string
	ConfirmedAt          *time.Time
	ExecutedAt           *time.Time
	CancelledAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
