package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

type MessageStatus string

const (
	MessageStatusSubmitted MessageStatus = "submitted"
	MessageStatusCompleted MessageStatus = "completed"
	MessageStatusFailed    MessageStatus = "failed"
	MessageStatusTimeout   MessageStatus = "timeout"
)

// MaxUserMessageLength is counted in runes.
const MaxUserMessageLength = 4000

type Message struct {
	Id               uuid.UUID
	ConversationId   uuid.UUID
	UserId           *uuid.UUID // nil for assistant messages
	Role             MessageRole
	Content          string
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Status           MessageStatus
	Metadata         MessageMetadata
	CreatedAt        time.Time
}

type MetadataKind string

const (
	MetadataKindUser      MetadataKind = "user"
	MetadataKindAssistant MetadataKind = "assistant"
	MetadataKindGeneric   MetadataKind = "generic"
)

// MessageMetadata is a tagged union; Kind says which of the pointers is set.
// Extra keeps provider specific fields that have no typed home yet.
type MessageMetadata struct {
	Kind      MetadataKind       `json:"kind"`
	User      *UserMetadata      `json:"user,omitempty"`
	Assistant *AssistantMetadata `json:"assistant,omitempty"`
	Extra     map[string]any     `json:"extra,omitempty"`
}

type UserMetadata struct {
	Client string `json:"client,omitempty"`
}

type AssistantMetadata struct {
	Provider         string             `json:"provider"`
	Model            string             `json:"model"`
	PromptTokens     int                `json:"prompt_tokens"`
	CompletionTokens int                `json:"completion_tokens"`
	Status           MessageStatus      `json:"status"`
	ToolCalls        []ToolCallProposal `json:"tool_calls"`
	Error            string             `json:"error,omitempty"`
	LatencyMs        int64              `json:"latency_ms,omitempty"`
}

// ToolCallProposal is one tool invocation suggested by the model, before
// the ledger has looked at it.
type ToolCallProposal struct {
	Id        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func NewUserMetadata(client string) MessageMetadata {
	return MessageMetadata{Kind: MetadataKindUser, User: &UserMetadata{Client: client}}
}

func NewAssistantMetadata(meta AssistantMetadata) MessageMetadata {
	if meta.ToolCalls == nil {
		meta.ToolCalls = []ToolCallProposal{}
	}
	return MessageMetadata{Kind: MetadataKindAssistant, Assistant: &meta}
}
