package contextbuilder

import (
	"fmt"
	"strings"
	"time"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/pkg/llm"
)

type Snapshot struct {
	Summary       string                     `json:"summary"`
	Stats         *entity.FleetStats         `json:"stats,omitempty"`
	CriticalParts []*entity.SparePart        `json:"critical_parts"`
	RecentOrders  []*entity.MaintenanceOrder `json:"recent_orders"`
	History       []*entity.Message          `json:"-"`
	MemoryLimit   int                        `json:"memory_limit"`
	Degraded      bool                       `json:"degraded"`
	GeneratedAt   time.Time                  `json:"generated_at"`
}

// Render is the fleet context block of the system prompt.
func (s *Snapshot) Render() string {
	var sb strings.Builder

	sb.WriteString("<fleet_summary>\n")
	sb.WriteString(s.Summary)
	sb.WriteString("\n</fleet_summary>\n\n")

	if len(s.CriticalParts) > 0 {
		sb.WriteString("<critical_parts>\n")
		for _, p := range s.CriticalParts {
			sb.WriteString(fmt.Sprintf("- %s (%s): stock %d, minimum %d, id %s\n", p.Name, p.Sku, p.Stock, p.MinStock, p.Id))
		}
		sb.WriteString("</critical_parts>\n\n")
	}

	if len(s.RecentOrders) > 0 {
		sb.WriteString("<open_maintenance_orders>\n")
		for _, o := range s.RecentOrders {
			sb.WriteString(fmt.Sprintf("- %s [%s, %s] vehicle %s, id %s\n", o.Title, o.Status, o.Priority, o.VehicleId, o.Id))
		}
		sb.WriteString("</open_maintenance_orders>\n\n")
	}

	if s.Degraded {
		sb.WriteString("<note>Some fleet data could not be loaded; do not guess numbers that are missing above.</note>\n\n")
	}
	return sb.String()
}

// LLMHistory converts stored turns for the provider. Failed assistant turns
// only hold the fallback text and are skipped.
func (s *Snapshot) LLMHistory() []llm.Message {
	out := make([]llm.Message, 0, len(s.History))
	for _, m := range s.History {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.Status == entity.MessageStatusFailed || m.Status == entity.MessageStatusTimeout {
			continue
		}
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}
