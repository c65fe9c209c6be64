package service

import (
	"context"

	"fleet-assistant-be/internal/dto"
	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/pkg/assistant/ledger"
	"fleet-assistant-be/pkg/assistant/tools"

	"github.com/google/uuid"
)

type IActionService interface {
	ListByConversation(ctx context.Context, actor entity.Actor, conversationId uuid.UUID, limit int) ([]*dto.ActionResponse, error)
	Show(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.ActionResponse, error)
	Confirm(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.ActionResponse, error)
	Cancel(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.ActionResponse, error)
	Tools(ctx context.Context, actor entity.Actor) []*dto.ToolResponse
}

type actionService struct {
	ledger   *ledger.Ledger
	registry *tools.Registry
}

func NewActionService(ledger *ledger.Ledger, registry *tools.Registry) IActionService {
	return &actionService{ledger: ledger, registry: registry}
}

func (s *actionService) ListByConversation(ctx context.Context, actor entity.Actor, conversationId uuid.UUID, limit int) ([]*dto.ActionResponse, error) {
	actions, err := s.ledger.ListRecent(ctx, actor, conversationId, limit)
	if err != nil {
		return nil, err
	}
	return toActionResponses(actions), nil
}

func (s *actionService) Show(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.ActionResponse, error) {
	action, err := s.ledger.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return toActionResponse(action), nil
}

func (s *actionService) Confirm(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.ActionResponse, error) {
	action, err := s.ledger.Confirm(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return toActionResponse(action), nil
}

func (s *actionService) Cancel(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.ActionResponse, error) {
	action, err := s.ledger.Cancel(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return toActionResponse(action), nil
}

// Tools lists the catalog with whether the caller's role may run each tool.
func (s *actionService) Tools(_ context.Context, actor entity.Actor) []*dto.ToolResponse {
	catalog := s.registry.Catalog()
	out := make([]*dto.ToolResponse, 0, len(catalog))
	for _, def := range catalog {
		out = append(out, toToolResponse(def, actor))
	}
	return out
}
