package draft

import (
	"strings"

	"fleet-assistant-be/pkg/assistant/contextbuilder"
)

// SystemPrompt frames the model as the fleet assistant and injects the
// context snapshot.
func SystemPrompt(snap *contextbuilder.Snapshot) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("You are the maintenance assistant of a vehicle fleet. You help fleet managers and technicians ")
	prompt.WriteString("understand the state of their vehicles, spare parts and maintenance work, and you prepare actions for them.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString(snap.Render())

	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("- Answer from the fleet data above and the conversation. Never invent plates, ids or stock levels.\n")
	prompt.WriteString("- When the user asks for a change, call the matching tool. Changes are only applied after the user confirms them, so describe what will happen rather than claiming it is done.\n")
	prompt.WriteString("- Use read tools to look things up instead of asking the user for data you can fetch.\n")
	prompt.WriteString("- Keep replies short and concrete.\n")
	prompt.WriteString("</guidelines>\n")

	return prompt.String()
}
