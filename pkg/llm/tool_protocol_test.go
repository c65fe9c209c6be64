package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPromptedToolCalls(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantText  string
		wantNames []string
		wantArgs  []string
	}{
		{
			name:     "plain reply",
			text:     "  Two vehicles are in the workshop.  ",
			wantText: "Two vehicles are in the workshop.",
		},
		{
			name:      "array block",
			text:      "I'll open an order.\n<tool_calls>[{\"name\":\"create_maintenance_order\",\"arguments\":{\"plate\":\"B 1\",\"title\":\"Tyres\"}}]</tool_calls>",
			wantText:  "I'll open an order.",
			wantNames: []string{"create_maintenance_order"},
			wantArgs:  []string{`{"plate":"B 1","title":"Tyres"}`},
		},
		{
			name:      "single object block",
			text:      "Checking.\n<tool_calls>\n{\"name\":\"get_fleet_summary\"}\n</tool_calls>",
			wantText:  "Checking.",
			wantNames: []string{"get_fleet_summary"},
			wantArgs:  []string{`{}`},
		},
		{
			name:      "two calls, nameless entry dropped",
			text:      "<tool_calls>[{\"name\":\"lookup_vehicle\",\"arguments\":{\"plate\":\"B 2\"}},{\"arguments\":{}},{\"name\":\"list_low_stock_parts\",\"arguments\":{\"limit\":5}}]</tool_calls> Done.",
			wantText:  "Done.",
			wantNames: []string{"lookup_vehicle", "list_low_stock_parts"},
			wantArgs:  []string{`{"plate":"B 2"}`, `{"limit":5}`},
		},
		{
			name:     "broken json still cleans the text",
			text:     "Sure.<tool_calls>[{\"name\": </tool_calls>",
			wantText: "Sure.",
		},
		{
			name:     "unterminated block is left alone",
			text:     "Sure.<tool_calls>[]",
			wantText: "Sure.<tool_calls>[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, calls := ExtractPromptedToolCalls(tt.text)

			assert.Equal(t, tt.wantText, text)
			require.NotNil(t, calls)
			require.Len(t, calls, len(tt.wantNames))
			for i, call := range calls {
				assert.Equal(t, tt.wantNames[i], call.Name)
				assert.JSONEq(t, tt.wantArgs[i], string(call.Arguments))
				assert.NotEmpty(t, call.Id)
			}
		})
	}
}

func TestRenderToolProtocol(t *testing.T) {
	assert.Empty(t, RenderToolProtocol(nil))

	out := RenderToolProtocol([]Tool{
		{Name: "lookup_vehicle", Description: "Find a vehicle", Parameters: map[string]any{"type": "object"}},
		{Name: "get_fleet_summary", Description: "Counts", Parameters: map[string]any{"type": "object"}},
	})

	assert.Contains(t, out, "<tool_calls>")
	assert.Contains(t, out, `parameters: {"type":"object"}`)
	assert.Less(t, strings.Index(out, "get_fleet_summary"), strings.Index(out, "lookup_vehicle"), "tools are listed by name")
}
