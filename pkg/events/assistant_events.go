package events

import (
	"time"

	"fleet-assistant-be/internal/entity"

	"github.com/google/uuid"
)

const (
	TypeMessageSent     = "message.sent"
	TypeActionRecorded  = "action.recorded"
	TypeActionExecuted  = "action.executed"
	TypeActionFailed    = "action.failed"
	TypeActionCancelled = "action.cancelled"
	TypeQuotaExceeded   = "quota.exceeded"
)

// UserID extracts the recipient of an event, if it names one.
func UserID(event Event) (uuid.UUID, bool) {
	raw, ok := event.Payload()["user_id"].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func MessageSent(userId, conversationId, messageId uuid.UUID, status entity.MessageStatus, actionCount int) Event {
	return BaseEvent{
		Type: TypeMessageSent,
		Data: map[string]interface{}{
			"user_id":         userId.String(),
			"conversation_id": conversationId.String(),
			"message_id":      messageId.String(),
			"status":          string(status),
			"actions":         actionCount,
		},
		OccurredAt: time.Now(),
	}
}

// ActionEvent picks its type from the action's status: executed, error,
// cancelled, and anything else counts as recorded.
func ActionEvent(action *entity.Action) Event {
	eventType := TypeActionRecorded
	switch action.Status {
	case entity.ActionStatusExecuted:
		eventType = TypeActionExecuted
	case entity.ActionStatusError:
		eventType = TypeActionFailed
	case entity.ActionStatusCancelled:
		eventType = TypeActionCancelled
	}

	data := map[string]interface{}{
		"user_id":         action.UserId.String(),
		"company_id":      action.CompanyId.String(),
		"conversation_id": action.ConversationId.String(),
		"action_id":       action.Id.String(),
		"tool":            action.Tool,
		"status":          string(action.Status),
	}
	if action.Error != nil {
		data["error"] = *action.Error
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func QuotaExceeded(userId uuid.UUID, planSlug string, limit, used int, resetAfter *time.Time) Event {
	data := map[string]interface{}{
		"user_id": userId.String(),
		"plan":    planSlug,
		"limit":   limit,
		"used":    used,
	}
	if resetAfter != nil {
		data["reset_after"] = resetAfter.UTC().Format(time.RFC3339)
	}
	return BaseEvent{Type: TypeQuotaExceeded, Data: data, OccurredAt: time.Now()}
}
