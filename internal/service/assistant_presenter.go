package service

import (
	"encoding/json"

	"fleet-assistant-be/internal/dto"
	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/pkg/assistant/quota"
	"fleet-assistant-be/pkg/assistant/tools"
)

func toConversationResponse(c *entity.Conversation) *dto.ConversationResponse {
	metadata := c.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &dto.ConversationResponse{
		Id:            c.Id,
		Title:         c.Title,
		LastMessageAt: c.LastMessageAt,
		Metadata:      metadata,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func toMessageResponse(m *entity.Message) *dto.MessageResponse {
	res := &dto.MessageResponse{
		Id:               m.Id,
		ConversationId:   m.ConversationId,
		Role:             string(m.Role),
		Content:          m.Content,
		Provider:         m.Provider,
		Model:            m.Model,
		PromptTokens:     m.PromptTokens,
		CompletionTokens: m.CompletionTokens,
		Status:           string(m.Status),
		CreatedAt:        m.CreatedAt,
	}
	if a := m.Metadata.Assistant; a != nil {
		res.Error = a.Error
		for _, tc := range a.ToolCalls {
			res.ToolCalls = append(res.ToolCalls, dto.ToolCallResponse{
				Id:        tc.Id,
				Name:      tc.Name,
				Arguments: tc.Arguments,
			})
		}
	}
	return res
}

func toMessageResponses(messages []*entity.Message) []*dto.MessageResponse {
	out := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageResponse(m))
	}
	return out
}

func toActionResponse(a *entity.Action) *dto.ActionResponse {
	result := a.Result
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	return &dto.ActionResponse{
		Id:                   a.Id,
		ConversationId:       a.ConversationId,
		MessageId:            a.MessageId,
		Tool:                 a.Tool,
		Arguments:            a.Arguments,
		Status:               string(a.Status),
		RequiresConfirmation: a.RequiresConfirmation,
		Result:               result,
		Error:                a.Error,
		ConfirmedAt:          a.ConfirmedAt,
		ExecutedAt:           a.ExecutedAt,
		CancelledAt:          a.CancelledAt,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

func toActionResponses(actions []*entity.Action) []*dto.ActionResponse {
	out := make([]*dto.ActionResponse, 0, len(actions))
	for _, a := range actions {
		out = append(out, toActionResponse(a))
	}
	return out
}

func toPlanResponse(p *entity.Plan) dto.PlanResponse {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	var limit *int
	if !p.Unlimited() {
		l := *p.MonthlyMessageLimit
		limit = &l
	}
	return dto.PlanResponse{
		Id:                  p.Id,
		Slug:                p.Slug,
		Name:                p.Name,
		Provider:            p.Provider,
		Model:               p.Model,
		MonthlyMessageLimit: limit,
		Features:            features,
		Price:               p.Price,
	}
}

func toUsageResponse(u *quota.Usage) *dto.AssistantUsageResponse {
	return &dto.AssistantUsageResponse{
		Plan:         toPlanResponse(u.Plan),
		Used:         u.Used,
		Limit:        u.Limit,
		Remaining:    u.Remaining,
		PeriodStart:  u.PeriodStart,
		PeriodEndsAt: u.PeriodEndsAt,
	}
}

func toToolResponse(def tools.Definition, actor entity.Actor) *dto.ToolResponse {
	return &dto.ToolResponse{
		Name:                 def.Name,
		Description:          def.Description,
		Capability:           string(def.Capability),
		RequiresConfirmation: def.RequiresConfirmation,
		Parameters:           def.Parameters,
		Allowed:              actor.Can(def.Capability),
	}
}
