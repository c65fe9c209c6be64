package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Providers without native function calling get the tool catalog in the
// system prompt and answer with a tagged JSON block instead.

const (
	toolCallsOpenTag  = "<tool_calls>"
	toolCallsCloseTag = "</tool_calls>"
)

var toolCallsBlock = regexp.MustCompile(`(?s)<tool_calls>\s*(.*?)\s*</tool_calls>`)

// RenderToolProtocol describes the tools and the reply format the model must use.
func RenderToolProtocol(tools []Tool) string {
	if len(tools) == 0 {
		return ""
	}
	sorted := make([]Tool, len(tools))
	copy(sorted, tools)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var sb strings.Builder
	sb.WriteString("You can call the following tools:\n")
	for _, t := range sorted {
		schema, _ := json.Marshal(t.Parameters)
		sb.WriteString(fmt.Sprintf("- %s: %s\n  parameters: %s\n", t.Name, t.Description, schema))
	}
	sb.WriteString("\nTo call tools, end your reply with exactly one block:\n")
	sb.WriteString(toolCallsOpenTag)
	sb.WriteString(`[{"name": "<tool name>", "arguments": {...}}]`)
	sb.WriteString(toolCallsCloseTag)
	sb.WriteString("\nOmit the block when no tool is needed.")
	return sb.String()
}

type promptedCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ExtractPromptedToolCalls strips the tool block out of text and parses it.
// A block that is not valid JSON yields no calls; the text is still cleaned.
func ExtractPromptedToolCalls(text string) (string, []ToolCall) {
	match := toolCallsBlock.FindStringSubmatchIndex(text)
	if match == nil {
		return strings.TrimSpace(text), []ToolCall{}
	}
	body := text[match[2]:match[3]]
	clean := strings.TrimSpace(text[:match[0]] + text[match[1]:])

	var raw []promptedCall
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		// Models sometimes emit a single object instead of an array
		var single promptedCall
		if err := json.Unmarshal([]byte(body), &single); err != nil || single.Name == "" {
			return clean, []ToolCall{}
		}
		raw = []promptedCall{single}
	}

	calls := make([]ToolCall, 0, len(raw))
	for i, c := range raw {
		if c.Name == "" {
			continue
		}
		args := c.Arguments
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}
		calls = append(calls, ToolCall{Id: fmt.Sprintf("call_%d", i), Name: c.Name, Arguments: args})
	}
	return clean, calls
}
