package mapper

import (
	"encoding/json"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/model"

	"gorm.io/datatypes"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

func (m *ConversationMapper) ConversationToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}
	return &entity.Conversation{
		Id:            c.Id,
		UserId:        c.UserId,
		CompanyId:     c.CompanyId,
		Title:         c.Title,
		LastMessageAt: c.LastMessageAt,
		Metadata:      jsonToMap(c.Metadata),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (m *ConversationMapper) ConversationToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}
	return &model.Conversation{
		Id:            c.Id,
		UserId:        c.UserId,
		CompanyId:     c.CompanyId,
		Title:         c.Title,
		LastMessageAt: c.LastMessageAt,
		Metadata:      mapToJSON(c.Metadata),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (m *ConversationMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:               msg.Id,
		ConversationId:   msg.ConversationId,
		UserId:           msg.UserId,
		Role:             entity.MessageRole(msg.Role),
		Content:          msg.Content,
		Provider:         msg.Provider,
		Model:            msg.Model,
		PromptTokens:     msg.PromptTokens,
		CompletionTokens: msg.CompletionTokens,
		Status:           entity.MessageStatus(msg.Status),
		Metadata:         m.decodeMetadata(entity.MessageRole(msg.Role), msg.Metadata),
		CreatedAt:        msg.CreatedAt,
	}
}

func (m *ConversationMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:               msg.Id,
		ConversationId:   msg.ConversationId,
		UserId:           msg.UserId,
		Role:             string(msg.Role),
		Content:          msg.Content,
		Provider:         msg.Provider,
		Model:            msg.Model,
		PromptTokens:     msg.PromptTokens,
		CompletionTokens: msg.CompletionTokens,
		Status:           string(msg.Status),
		Metadata:         m.encodeMetadata(msg.Metadata),
		CreatedAt:        msg.CreatedAt,
	}
}

func (m *ConversationMapper) encodeMetadata(meta entity.MessageMetadata) datatypes.JSON {
	if meta.Kind == "" {
		meta.Kind = entity.MetadataKindGeneric
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// decodeMetadata reads the tagged union back. Rows written before the kind
// tag existed, or by another writer, are kept whole under Extra.
func (m *ConversationMapper) decodeMetadata(role entity.MessageRole, raw datatypes.JSON) entity.MessageMetadata {
	if len(raw) == 0 {
		return entity.MessageMetadata{Kind: entity.MetadataKindGeneric}
	}
	var meta entity.MessageMetadata
	if err := json.Unmarshal(raw, &meta); err == nil && meta.Kind != "" {
		if meta.Kind == entity.MetadataKindAssistant && meta.Assistant != nil && meta.Assistant.ToolCalls == nil {
			meta.Assistant.ToolCalls = []entity.ToolCallProposal{}
		}
		return meta
	}
	return entity.MessageMetadata{Kind: entity.MetadataKindGeneric, Extra: jsonToMap(raw)}
}
