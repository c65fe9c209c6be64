// Package draft turns a user message and its context into the assistant's
// reply and proposed tool calls. Provider failures never escape: they come
// back as a degraded draft so the user's message is still stored.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"fleet-assistant-be/internal/apperror"
	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/pkg/logger"
	"fleet-assistant-be/pkg/assistant/contextbuilder"
	"fleet-assistant-be/pkg/llm"
	"fleet-assistant-be/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const module = "DraftGenerator"

// FallbackText is stored as the assistant message when the provider failed.
const FallbackText = "I could not reach the assistant service just now. Your message was saved; please try again in a moment."

type Config struct {
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

type Draft struct {
	Content  string
	Metadata entity.AssistantMetadata
}

// Degraded reports whether the provider call failed.
func (d *Draft) Degraded() bool {
	return d.Metadata.Status == entity.MessageStatusFailed || d.Metadata.Status == entity.MessageStatusTimeout
}

// Fallback is the text to show and store in place of empty content.
func (d *Draft) Fallback() string {
	if d.Degraded() && d.Content == "" {
		return FallbackText
	}
	return d.Content
}

type Generator struct {
	provider llm.LLMProvider
	catalog  []llm.Tool
	cfg      Config
	logger   logger.ILogger
}

func NewGenerator(provider llm.LLMProvider, catalog []llm.Tool, cfg Config, log logger.ILogger) *Generator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	return &Generator{provider: provider, catalog: catalog, cfg: cfg, logger: log}
}

// Generate always returns a draft; ToolCalls is never nil.
func (g *Generator) Generate(ctx context.Context, userText string, snap *contextbuilder.Snapshot) *Draft {
	ctx, span := otel.Tracer("assistant").Start(ctx, "draft.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", g.provider.Name()),
		attribute.Int("context.history", len(snap.History)),
		attribute.Bool("context.degraded", snap.Degraded),
	)

	history := make([]llm.Message, 0, len(snap.History)+2)
	history = append(history, llm.Message{Role: "system", Content: SystemPrompt(snap)})
	history = append(history, snap.LLMHistory()...)
	history = append(history, llm.Message{Role: "user", Content: userText})

	opts := []llm.Option{llm.WithTemperature(g.cfg.Temperature)}
	if g.cfg.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(g.cfg.MaxTokens))
	}
	if g.cfg.Model != "" {
		opts = append(opts, llm.WithModel(g.cfg.Model))
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	completion, err := g.provider.Complete(callCtx, history, g.catalog, opts...)
	elapsed := time.Since(start)

	meta := entity.AssistantMetadata{
		Provider:  g.provider.Name(),
		Model:     g.cfg.Model,
		ToolCalls: []entity.ToolCallProposal{},
		LatencyMs: elapsed.Milliseconds(),
	}

	if err != nil {
		meta.Status = entity.MessageStatusFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			meta.Status = entity.MessageStatusTimeout
		}
		meta.Error = apperror.ProviderFailure(err).Error()
		metrics.RecordLLMRequest(meta.Provider, string(meta.Status), elapsed, 0, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(meta.Status))
		g.logger.Error(module, "Provider call failed", map[string]interface{}{
			"provider":   meta.Provider,
			"status":     meta.Status,
			"latency_ms": meta.LatencyMs,
			"error":      err.Error(),
		})
		return &Draft{Content: "", Metadata: meta}
	}

	if completion.Model != "" {
		meta.Model = completion.Model
	}
	meta.PromptTokens = completion.Usage.PromptTokens
	meta.CompletionTokens = completion.Usage.CompletionTokens
	meta.Status = entity.MessageStatusCompleted
	meta.ToolCalls = proposals(completion.ToolCalls)

	metrics.RecordLLMRequest(meta.Provider, string(meta.Status), elapsed, meta.PromptTokens, meta.CompletionTokens)
	span.SetAttributes(attribute.Int("llm.tool_calls", len(meta.ToolCalls)))

	g.logger.Info(module, "Draft generated", map[string]interface{}{
		"provider":          meta.Provider,
		"model":             meta.Model,
		"tool_calls":        len(meta.ToolCalls),
		"prompt_tokens":     meta.PromptTokens,
		"completion_tokens": meta.CompletionTokens,
		"latency_ms":        meta.LatencyMs,
	})
	return &Draft{Content: strings.TrimSpace(completion.Text), Metadata: meta}
}

// proposals normalises provider tool calls. Arguments that are not a JSON
// object are wrapped as {"_raw": "..."} so validation rejects them visibly.
func proposals(calls []llm.ToolCall) []entity.ToolCallProposal {
	out := make([]entity.ToolCallProposal, 0, len(calls))
	for _, c := range calls {
		out = append(out, entity.ToolCallProposal{
			Id:        c.Id,
			Name:      strings.TrimSpace(c.Name),
			Arguments: normaliseArguments(c.Arguments),
		})
	}
	return out
}

func normaliseArguments(raw json.RawMessage) json.RawMessage {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return json.RawMessage(`{}`)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		return json.RawMessage(trimmed)
	}
	// Some providers double encode: "{\"plate\": \"B 1\"}"
	var inner string
	if err := json.Unmarshal([]byte(trimmed), &inner); err == nil {
		if err := json.Unmarshal([]byte(inner), &obj); err == nil {
			return json.RawMessage(inner)
		}
	}
	wrapped, _ := json.Marshal(map[string]string{"_raw": trimmed})
	return wrapped
}
