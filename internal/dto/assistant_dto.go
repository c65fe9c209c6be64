package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Requests

type CreateConversationRequest struct {
	Title    string         `json:"title" validate:"max=255"`
	Metadata map[string]any `json:"metadata"`
}

type UpdateConversationRequest struct {
	Title    *string        `json:"title" validate:"omitempty,max=255"`
	Metadata map[string]any `json:"metadata"`
}

// SendMessageRequest is used by both message routes; the conversation id in
// the path wins over the body.
type SendMessageRequest struct {
	ConversationId *uuid.UUID `json:"conversation_id"`
	Content        string     `json:"content" validate:"required"`
	Client         string     `json:"client" validate:"max=50"`
}

type ListMessagesQuery struct {
	Limit  int        `query:"limit"`
	Before *time.Time `query:"before"`
}

// Responses

type ConversationResponse struct {
	Id            uuid.UUID      `json:"id"`
	Title         string         `json:"title"`
	LastMessageAt *time.Time     `json:"last_message_at"`
	Metadata      map[string]any `json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type ConversationDetailResponse struct {
	ConversationResponse
	Messages []*MessageResponse `json:"messages"`
}

type ConversationPage struct {
	Items []*ConversationResponse `json:"items"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

type ToolCallResponse struct {
	Id        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type MessageResponse struct {
	Id               uuid.UUID          `json:"id"`
	ConversationId   uuid.UUID          `json:"conversation_id"`
	Role             string             `json:"role"`
	Content          string             `json:"content"`
	Provider         string             `json:"provider,omitempty"`
	Model            string             `json:"model,omitempty"`
	PromptTokens     int                `json:"prompt_tokens"`
	CompletionTokens int                `json:"completion_tokens"`
	Status           string             `json:"status"`
	ToolCalls        []ToolCallResponse `json:"tool_calls,omitempty"`
	Error            string             `json:"error,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

type ActionResponse struct {
	Id                   uuid.UUID       `json:"id"`
	ConversationId       uuid.UUID       `json:"conversation_id"`
	MessageId            *uuid.UUID      `json:"message_id"`
	Tool                 string          `json:"tool"`
	Arguments            json.RawMessage `json:"arguments"`
	Status               string          `json:"status"`
	RequiresConfirmation bool            `json:"requires_confirmation"`
	Result               json.RawMessage `json:"result"`
	Error                *string         `json:"error"`
	ConfirmedAt          *time.Time      `json:"confirmed_at"`
	ExecutedAt           *time.Time      `json:"executed_at"`
	CancelledAt          *time.Time      `json:"cancelled_at"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// SendMessageResponse is the 202 body: the conversation, the stored
// [user, assistant] pair and the actions proposed in this turn.
type SendMessageResponse struct {
	Conversation *ConversationResponse `json:"conversation"`
	Messages     []*MessageResponse    `json:"messages"`
	Actions      []*ActionResponse     `json:"actions"`
}

type ToolResponse struct {
	Name                 string         `json:"name"`
	Description          string         `json:"description"`
	Capability           string         `json:"capability"`
	RequiresConfirmation bool           `json:"requires_confirmation"`
	Parameters           map[string]any `json:"parameters"`
	Allowed              bool           `json:"allowed"`
}

type AssistantUsageResponse struct {
	Plan         PlanResponse `json:"plan"`
	Used         int          `json:"used"`
	Limit        *int         `json:"limit"` // null = unlimited
	Remaining    *int         `json:"remaining"`
	PeriodStart  time.Time    `json:"period_started_at"`
	PeriodEndsAt *time.Time   `json:"period_ends_at"`
}

type PlanResponse struct {
	Id                  uuid.UUID `json:"id"`
	Slug                string    `json:"slug"`
	Name                string    `json:"name"`
	Provider            string    `json:"provider,omitempty"`
	Model               string    `json:"model,omitempty"`
	MonthlyMessageLimit *int      `json:"monthly_message_limit"`
	Features            []string  `json:"features"`
	Price               float64   `json:"price"`
}

// LimitExceededResponse is the data of a 429.
type LimitExceededResponse struct {
	Limit      int        `json:"limit"`
	Used       int        `json:"used"`
	ResetAfter *time.Time `json:"reset_after,omitempty"`
}
