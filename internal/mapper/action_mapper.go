package mapper

import (
	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/model"
)

type ActionMapper struct{}

func NewActionMapper() *ActionMapper {
	return &ActionMapper{}
}

func (m *ActionMapper) ToEntity(a *model.Action) *entity.Action {
	if a == nil {
		return nil
	}
	return &entity.Action{
		Id:                   a.Id,
		ConversationId:       a.ConversationId,
		MessageId:            a.MessageId,
		UserId:               a.UserId,
		CompanyId:            a.CompanyId,
		Tool:                 a.Tool,
		Arguments:            jsonToRaw(a.Arguments),
		Status:               entity.ActionStatus(a.Status),
		RequiresConfirmation: a.RequiresConfirmation,
		Result:               jsonToRaw(a.Result),
		Error:                a.Error,
		ConfirmedAt:          a.ConfirmedAt,
		ExecutedAt:           a.ExecutedAt,
		CancelledAt:          a.CancelledAt,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

func (m *ActionMapper) ToModel(a *entity.Action) *model.Action {
	if a == nil {
		return nil
	}
	return &model.Action{
		Id:                   a.Id,
		ConversationId:       a.ConversationId,
		MessageId:            a.MessageId,
		UserId:               a.UserId,
		CompanyId:            a.CompanyId,
		Tool:                 a.Tool,
		Arguments:            rawToJSON(a.Arguments),
		Status:               string(a.Status),
		RequiresConfirmation: a.RequiresConfirmation,
		Result:               rawToJSON(a.Result),
		Error:                a.Error,
		ConfirmedAt:          a.ConfirmedAt,
		ExecutedAt:           a.ExecutedAt,
		CancelledAt:          a.CancelledAt,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}
