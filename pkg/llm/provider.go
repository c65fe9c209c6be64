package llm

import (
	"context"
	"encoding/json"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Tool is a function the model may ask to call. Parameters is a JSON schema object.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a model's request to invoke a Tool. Arguments is passed through
// untouched; callers validate it.
type ToolCall struct {
	Id        string
	Name      string
	Arguments json.RawMessage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

type Completion struct {
	Text       string
	ToolCalls  []ToolCall
	Model      string
	Usage      Usage
	StopReason string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func ApplyOptions(defaults Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Name identifies the backend in stored message metadata ("ollama", "openai", ...)
	Name() string

	// Complete sends the conversation plus the callable tools and returns the
	// reply text and any tool calls the model asked for.
	Complete(ctx context.Context, history []Message, tools []Tool, options ...Option) (*Completion, error)
}
