package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"fleet-assistant-be/internal/apperror"
	"fleet-assistant-be/internal/dto"
	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/pkg/logger"
	"fleet-assistant-be/internal/repository/specification"
	"fleet-assistant-be/internal/repository/unitofwork"
	"fleet-assistant-be/pkg/assistant/contextbuilder"
	"fleet-assistant-be/pkg/assistant/draft"
	"fleet-assistant-be/pkg/assistant/ledger"
	"fleet-assistant-be/pkg/assistant/quota"
	"fleet-assistant-be/pkg/events"
	"fleet-assistant-be/pkg/metrics"

	"github.com/google/uuid"
)

const (
	conversationModule = "ConversationService"

	titleRunes          = 60
	detailMessageLimit  = 50
	defaultMessageLimit = 50
	maxMessageLimit     = 100
	defaultPageLimit    = 20
	maxPageLimit        = 100
)

type IConversationService interface {
	Create(ctx context.Context, actor entity.Actor, req *dto.CreateConversationRequest) (*dto.ConversationResponse, error)
	List(ctx context.Context, actor entity.Actor, page, limit int) (*dto.ConversationPage, error)
	Show(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.ConversationDetailResponse, error)
	Update(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.UpdateConversationRequest) (*dto.ConversationResponse, error)
	ListMessages(ctx context.Context, actor entity.Actor, id uuid.UUID, query *dto.ListMessagesQuery) ([]*dto.MessageResponse, error)
	SendMessage(ctx context.Context, actor entity.Actor, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	ContextSnapshot(ctx context.Context, actor entity.Actor, conversationId *uuid.UUID, memoryLimit int) (*contextbuilder.Snapshot, error)
}

type conversationService struct {
	uowFactory unitofwork.RepositoryFactory
	guard      *quota.Guard
	builder    *contextbuilder.Builder
	generator  *draft.Generator
	ledger     *ledger.Ledger
	publisher  events.Publisher
	logger     logger.ILogger
}

func NewConversationService(
	uowFactory unitofwork.RepositoryFactory,
	guard *quota.Guard,
	builder *contextbuilder.Builder,
	generator *draft.Generator,
	ledger *ledger.Ledger,
	publisher events.Publisher,
	log logger.ILogger,
) IConversationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &conversationService{
		uowFactory: uowFactory,
		guard:      guard,
		builder:    builder,
		generator:  generator,
		ledger:     ledger,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *conversationService) Create(ctx context.Context, actor entity.Actor, req *dto.CreateConversationRequest) (*dto.ConversationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation := &entity.Conversation{
		UserId:    actor.UserId,
		CompanyId: actor.CompanyId,
		Title:     strings.TrimSpace(req.Title),
		Metadata:  req.Metadata,
	}
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, err
	}

	s.logger.Info(conversationModule, "Conversation created", map[string]interface{}{
		"conversation_id": conversation.Id,
		"user_id":         actor.UserId,
	})
	return toConversationResponse(conversation), nil
}

func (s *conversationService) List(ctx context.Context, actor entity.Actor, page, limit int) (*dto.ConversationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	scope := []specification.Specification{
		specification.UserOwnedBy{UserID: actor.UserId},
		specification.CompanyOwnedBy{CompanyID: actor.CompanyId},
	}

	total, err := uow.ConversationRepository().Count(ctx, scope...)
	if err != nil {
		return nil, err
	}
	conversations, err := uow.ConversationRepository().FindAll(ctx, append(scope,
		specification.RecentActivityFirst{},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)...)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ConversationResponse, 0, len(conversations))
	for _, c := range conversations {
		items = append(items, toConversationResponse(c))
	}
	return &dto.ConversationPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *conversationService) Show(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.ConversationDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := s.ownedConversation(ctx, uow, actor, id)
	if err != nil {
		return nil, err
	}

	messages, err := uow.MessageRepository().FindWindow(ctx, conversation.Id, detailMessageLimit, nil)
	if err != nil {
		return nil, err
	}
	return &dto.ConversationDetailResponse{
		ConversationResponse: *toConversationResponse(conversation),
		Messages:             toMessageResponses(messages),
	}, nil
}

func (s *conversationService) Update(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.UpdateConversationRequest) (*dto.ConversationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := s.ownedConversation(ctx, uow, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		conversation.Title = strings.TrimSpace(*req.Title)
	}
	if req.Metadata != nil {
		conversation.Metadata = req.Metadata
	}
	if err := uow.ConversationRepository().UpdateDetails(ctx, conversation); err != nil {
		return nil, err
	}

	updated, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	return toConversationResponse(updated), nil
}

func (s *conversationService) ListMessages(ctx context.Context, actor entity.Actor, id uuid.UUID, query *dto.ListMessagesQuery) ([]*dto.MessageResponse, error) {
	limit := defaultMessageLimit
	var before *time.Time
	if query != nil {
		if query.Limit > 0 {
			limit = query.Limit
		}
		before = query.Before
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.ownedConversation(ctx, uow, actor, id); err != nil {
		return nil, err
	}

	messages, err := uow.MessageRepository().FindWindow(ctx, id, limit, before)
	if err != nil {
		return nil, err
	}
	return toMessageResponses(messages), nil
}

// SendMessage runs one round trip. Authorization and quota are checked before
// anything is written; the provider call happens outside the transaction and
// its failure only degrades the assistant message.
func (s *conversationService) SendMessage(ctx context.Context, actor entity.Actor, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperror.Validation("message content is empty", map[string]string{"content": "is required"})
	}
	if utf8.RuneCountInString(content) > entity.MaxUserMessageLength {
		return nil, apperror.Validation("message content is too long", map[string]string{
			"content": "must be at most 4000 characters",
		})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	var conversation *entity.Conversation
	if req.ConversationId != nil {
		c, err := s.ownedConversation(ctx, uow, actor, *req.ConversationId)
		if err != nil {
			return nil, err
		}
		conversation = c
	}

	_, subscription, err := s.guard.Admit(ctx, uow, actor.UserId)
	if err != nil {
		return nil, err
	}

	snapshot := s.builder.Build(ctx, actor, contextbuilder.Options{ConversationId: req.ConversationId})
	reply := s.generator.Generate(ctx, content, snapshot)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if conversation == nil {
		conversation = &entity.Conversation{
			UserId:    actor.UserId,
			CompanyId: actor.CompanyId,
			Title:     titleFrom(content),
			Metadata:  map[string]any{},
		}
		if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
			return nil, err
		}
	} else if conversation.Title == "" {
		conversation.Title = titleFrom(content)
		if err := uow.ConversationRepository().UpdateDetails(ctx, conversation); err != nil {
			return nil, err
		}
	}

	userId := actor.UserId
	userMessage := &entity.Message{
		ConversationId: conversation.Id,
		UserId:         &userId,
		Role:           entity.MessageRoleUser,
		Content:        content,
		Status:         entity.MessageStatusSubmitted,
		Metadata:       entity.NewUserMetadata(req.Client),
	}
	if err := uow.MessageRepository().Create(ctx, userMessage); err != nil {
		return nil, err
	}

	assistantMessage := &entity.Message{
		ConversationId:   conversation.Id,
		Role:             entity.MessageRoleAssistant,
		Content:          reply.Fallback(),
		Provider:         reply.Metadata.Provider,
		Model:            reply.Metadata.Model,
		PromptTokens:     reply.Metadata.PromptTokens,
		CompletionTokens: reply.Metadata.CompletionTokens,
		Status:           reply.Metadata.Status,
		Metadata:         entity.NewAssistantMetadata(reply.Metadata),
	}
	if err := uow.MessageRepository().Create(ctx, assistantMessage); err != nil {
		return nil, err
	}

	actions, err := s.ledger.RecordToolCalls(ctx, uow, actor, conversation, &assistantMessage.Id, reply.Metadata.ToolCalls)
	if err != nil {
		return nil, err
	}

	lastMessageAt := assistantMessage.CreatedAt
	if err := uow.ConversationRepository().TouchLastMessageAt(ctx, conversation.Id, lastMessageAt); err != nil {
		return nil, err
	}
	conversation.LastMessageAt = &lastMessageAt

	// A failed provider call does not consume the allowance
	if !reply.Degraded() {
		if err := s.guard.Increment(ctx, uow, subscription.Id); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.ledger.AfterCommit(ctx, actions...)
	metrics.RecordMessage(string(userMessage.Role), string(userMessage.Status))
	metrics.RecordMessage(string(assistantMessage.Role), string(assistantMessage.Status))
	if err := s.publisher.Publish(ctx, events.MessageSent(actor.UserId, conversation.Id, assistantMessage.Id, assistantMessage.Status, len(actions))); err != nil {
		s.logger.Warn(conversationModule, "Failed to publish message event", map[string]interface{}{
			"conversation_id": conversation.Id,
			"error":           err.Error(),
		})
	}

	s.logger.Info(conversationModule, "Message processed", map[string]interface{}{
		"conversation_id": conversation.Id,
		"user_id":         actor.UserId,
		"status":          assistantMessage.Status,
		"actions":         len(actions),
	})

	return &dto.SendMessageResponse{
		Conversation: toConversationResponse(conversation),
		Messages:     toMessageResponses([]*entity.Message{userMessage, assistantMessage}),
		Actions:      toActionResponses(actions),
	}, nil
}

func (s *conversationService) ContextSnapshot(ctx context.Context, actor entity.Actor, conversationId *uuid.UUID, memoryLimit int) (*contextbuilder.Snapshot, error) {
	if conversationId != nil {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		if _, err := s.ownedConversation(ctx, uow, actor, *conversationId); err != nil {
			return nil, err
		}
	}
	return s.builder.Build(ctx, actor, contextbuilder.Options{
		ConversationId: conversationId,
		MemoryLimit:    memoryLimit,
	}), nil
}

func (s *conversationService) ownedConversation(ctx context.Context, uow unitofwork.UnitOfWork, actor entity.Actor, id uuid.UUID) (*entity.Conversation, error) {
	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, apperror.NotFound("conversation %s not found", id)
	}
	if !actor.Owns(conversation.UserId, conversation.CompanyId) {
		return nil, apperror.Forbidden("conversation %s belongs to another user", id)
	}
	return conversation, nil
}

func titleFrom(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(content) <= titleRunes {
		return content
	}
	return string([]rune(content)[:titleRunes])
}
