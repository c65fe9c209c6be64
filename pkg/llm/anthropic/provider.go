package anthropic

import (
	"context"
	"errors"
	"strings"

	"fleet-assistant-be/pkg/llm"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider uses the Messages API in plain text mode; tools are
// offered through the prompted tool protocol in the llm package.
type AnthropicProvider struct {
	client *sdk.Client
	model  string
}

var _ llm.LLMProvider = &AnthropicProvider{}

func NewAnthropicProvider(apiKey, model string) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	if model == "" {
		model = "claude-3-5-haiku-20241022"
	}
	return &AnthropicProvider{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

func (p *AnthropicProvider) Complete(ctx context.Context, history []llm.Message, tools []llm.Tool, opts ...llm.Option) (*llm.Completion, error) {
	options := llm.ApplyOptions(llm.Options{Model: p.model, MaxTokens: 1024}, opts...)

	turns := foldTurns(history, llm.RenderToolProtocol(tools))
	messages := make([]sdk.MessageParam, len(turns))
	for i, t := range turns {
		messages[i] = sdk.MessageParam{
			Role: sdk.F(sdk.MessageParamRole(t.Role)),
			Content: sdk.F([]sdk.ContentBlockParamUnion{
				sdk.TextBlockParam{
					Type: sdk.F(sdk.TextBlockParamTypeText),
					Text: sdk.F(t.Content),
				},
			}),
		}
	}

	resp, err := p.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.F(options.Model),
		MaxTokens: sdk.F(int64(options.MaxTokens)),
		Messages:  sdk.F(messages),
	})
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == sdk.ContentBlockTypeText {
			content.WriteString(block.Text)
		}
	}
	text, calls := llm.ExtractPromptedToolCalls(content.String())

	return &llm.Completion{
		Text:      text,
		ToolCalls: calls,
		Model:     resp.Model,
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		},
		StopReason: string(resp.StopReason),
	}, nil
}

// foldTurns maps history onto the strict user/assistant alternation the
// Messages API requires. System text (and the tool protocol) is prepended to
// the first user turn and consecutive turns of the same role are merged.
func foldTurns(history []llm.Message, toolProtocol string) []llm.Message {
	var system []string
	var turns []llm.Message
	for _, msg := range history {
		if msg.Role == "system" {
			system = append(system, msg.Content)
			continue
		}
		role := msg.Role
		if role != "assistant" {
			role = "user"
		}
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Content += "\n\n" + msg.Content
			continue
		}
		turns = append(turns, llm.Message{Role: role, Content: msg.Content})
	}
	if toolProtocol != "" {
		system = append(system, toolProtocol)
	}

	if len(turns) == 0 || turns[0].Role != "user" {
		turns = append([]llm.Message{{Role: "user", Content: ""}}, turns...)
	}
	if len(system) > 0 {
		prefix := strings.Join(system, "\n\n")
		if turns[0].Content == "" {
			turns[0].Content = prefix
		} else {
			turns[0].Content = prefix + "\n\n" + turns[0].Content
		}
	}
	return turns
}
