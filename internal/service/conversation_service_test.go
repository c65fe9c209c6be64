package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"fleet-assistant-be/internal/apperror"
	"fleet-assistant-be/internal/dto"
	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/pkg/logger"
	"fleet-assistant-be/internal/repository/unitofwork"
	"fleet-assistant-be/internal/testutil"
	"fleet-assistant-be/pkg/assistant/contextbuilder"
	"fleet-assistant-be/pkg/assistant/draft"
	"fleet-assistant-be/pkg/assistant/ledger"
	"fleet-assistant-be/pkg/assistant/quota"
	"fleet-assistant-be/pkg/assistant/tools"
	"fleet-assistant-be/pkg/events"
	"fleet-assistant-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type harness struct {
	factory   unitofwork.RepositoryFactory
	provider  *testutil.MockProvider
	guard     *quota.Guard
	publisher *testutil.RecordingPublisher
	service   IConversationService
	actions   IActionService
}

func newHarness(t *testing.T, freeLimit int) *harness {
	t.Helper()
	factory, _ := testutil.NewFactory(t)
	log := logger.NewNopLogger()
	publisher := &testutil.RecordingPublisher{}
	provider := &testutil.MockProvider{}
	registry := tools.NewFleetRegistry()

	guard := quota.NewGuard(quota.Config{FreePlanSlug: "free", FreePlanLimit: freeLimit}, publisher, log)
	builder := contextbuilder.NewBuilder(factory, StoreFor, nil, log, 0)
	generator := draft.NewGenerator(provider, registry.LLMTools(), draft.Config{Model: "test-model"}, log)
	l := ledger.NewLedger(factory, registry, StoreFor, publisher, log, ledger.WithInvalidator(builder))

	return &harness{
		factory:   factory,
		provider:  provider,
		guard:     guard,
		publisher: publisher,
		service:   NewConversationService(factory, guard, builder, generator, l, publisher, log),
		actions:   NewActionService(l, registry),
	}
}

func (h *harness) replies(text string, calls ...llm.ToolCall) {
	h.provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(&llm.Completion{Text: text, Model: "test-model", ToolCalls: calls}, nil).Once()
}

func (h *harness) used(t *testing.T, userId uuid.UUID) int {
	t.Helper()
	ctx := context.Background()
	usage, err := h.guard.Status(ctx, h.factory.NewUnitOfWork(ctx), userId)
	require.NoError(t, err)
	return usage.Used
}

func (h *harness) messageCount(t *testing.T) int64 {
	t.Helper()
	ctx := context.Background()
	n, err := h.factory.NewUnitOfWork(ctx).MessageRepository().Count(ctx)
	require.NoError(t, err)
	return n
}

func TestSendMessage_FirstMessageOfNewUser(t *testing.T) {
	h := newHarness(t, 50)
	ctx := context.Background()
	actor := testutil.NewActor(entity.RoleManager)
	h.replies("Your fleet has no vehicles yet.")

	resp, err := h.service.SendMessage(ctx, actor, &dto.SendMessageRequest{Content: "  How is my   fleet doing?  ", Client: "web"})
	require.NoError(t, err)

	assert.Equal(t, "How is my fleet doing?", resp.Conversation.Title)
	assert.NotNil(t, resp.Conversation.LastMessageAt)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "user", resp.Messages[0].Role)
	assert.Equal(t, "How is my   fleet doing?", resp.Messages[0].Content)
	assert.Equal(t, string(entity.MessageStatusSubmitted), resp.Messages[0].Status)
	assert.Equal(t, "assistant", resp.Messages[1].Role)
	assert.Equal(t, "Your fleet has no vehicles yet.", resp.Messages[1].Content)
	assert.Equal(t, string(entity.MessageStatusCompleted), resp.Messages[1].Status)
	assert.Equal(t, "mock", resp.Messages[1].Provider)
	assert.Empty(t, resp.Actions)

	assert.Equal(t, 1, h.used(t, actor.UserId))
	assert.Contains(t, h.publisher.Types(), events.TypeMessageSent)
	h.provider.AssertExpectations(t)
}

func TestSendMessage_QuotaExceeded(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	actor := testutil.NewActor(entity.RoleManager)
	h.replies("First answer.")

	first, err := h.service.SendMessage(ctx, actor, &dto.SendMessageRequest{Content: "first"})
	require.NoError(t, err)
	before := h.messageCount(t)

	_, err = h.service.SendMessage(ctx, actor, &dto.SendMessageRequest{
		ConversationId: &first.Conversation.Id,
		Content:        "second",
	})

	var quotaErr *apperror.QuotaExceededError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, 1, quotaErr.Limit)
	assert.Equal(t, 1, quotaErr.Used)
	assert.Equal(t, before, h.messageCount(t), "nothing stored")
	assert.Equal(t, 1, h.used(t, actor.UserId), "counter untouched")
	// The provider was only called for the first message
	h.provider.AssertNumberOfCalls(t, "Complete", 1)
}

func TestSendMessage_ProviderFailureStillStoresPair(t *testing.T) {
	h := newHarness(t, 50)
	ctx := context.Background()
	actor := testutil.NewActor(entity.RoleManager)
	h.provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("503 from upstream")).Once()

	resp, err := h.service.SendMessage(ctx, actor, &dto.SendMessageRequest{Content: "Any critical parts?"})
	require.NoError(t, err)

	require.Len(t, resp.Messages, 2)
	assistant := resp.Messages[1]
	assert.Equal(t, string(entity.MessageStatusFailed), assistant.Status)
	assert.Equal(t, draft.FallbackText, assistant.Content)
	assert.Contains(t, assistant.Error, "503 from upstream")
	assert.Equal(t, 0, h.used(t, actor.UserId), "failed round trips are free")
	assert.Equal(t, int64(2), h.messageCount(t))
}

func TestSendMessage_DegradedRepliesDoNotCount(t *testing.T) {
	h := newHarness(t, 50)
	ctx := context.Background()
	actor := testutil.NewActor(entity.RoleTechnician)

	h.provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, context.DeadlineExceeded).Once()
	timedOut, err := h.service.SendMessage(ctx, actor, &dto.SendMessageRequest{Content: "Status of B 1234 XY?"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.MessageStatusTimeout), timedOut.Messages[1].Status)
	assert.Equal(t, 0, h.used(t, actor.UserId))

	h.provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused")).Once()
	conversationId := timedOut.Conversation.Id
	failed, err := h.service.SendMessage(ctx, actor, &dto.SendMessageRequest{ConversationId: &conversationId, Content: "Retry please"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.MessageStatusFailed), failed.Messages[1].Status)
	assert.Equal(t, 0, h.used(t, actor.UserId))

	h.replies("B 1234 XY is active.")
	_, err = h.service.SendMessage(ctx, actor, &dto.SendMessageRequest{ConversationId: &conversationId, Content: "And now?"})
	require.NoError(t, err)
	assert.Equal(t, 1, h.used(t, actor.UserId))
	assert.Equal(t, int64(6), h.messageCount(t))
	h.provider.AssertExpectations(t)
}

func TestSendMessage_ToolCalls(t *testing.T) {
	h := newHarness(t, 50)
	ctx := context.Background()
	actor := testutil.NewActor(entity.RoleManager)
	fleet := testutil.SeedFleet(t, h.factory, actor.CompanyId)

	h.replies("I can open an order for that.",
		llm.ToolCall{Id: "c1", Name: tools.CreateMaintenanceOrder, Arguments: json.RawMessage(`{"plate":"B 1234 XY","title":"Brake noise"}`)},
		llm.ToolCall{Id: "c2", Name: "order_pizza", Arguments: json.RawMessage(`{"size":"xl"}`)},
	)

	resp, err := h.service.SendMessage(ctx, actor, &dto.SendMessageRequest{Content: "Brakes on B 1234 XY squeak"})
	require.NoError(t, err)

	require.Len(t, resp.Messages, 2, "unknown tools do not block the message")
	require.Len(t, resp.Actions, 2)
	assert.Equal(t, string(entity.ActionStatusPendingConfirmation), resp.Actions[0].Status)
	assert.Equal(t, resp.Messages[1].Id, *resp.Actions[0].MessageId)
	assert.Equal(t, string(entity.ActionStatusInvalid), resp.Actions[1].Status)
	require.NotNil(t, resp.Actions[1].Error)
	require.Len(t, resp.Messages[1].ToolCalls, 2)

	confirmed, err := h.actions.Confirm(ctx, actor, resp.Actions[0].Id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ActionStatusExecuted), confirmed.Status)

	var order entity.MaintenanceOrder
	require.NoError(t, json.Unmarshal(confirmed.Result, &order))
	assert.Equal(t, fleet.Vehicle.Id, order.VehicleId)
	assert.Equal(t, "Brake noise", order.Title)
}

func TestSendMessage_ConversationOrdering(t *testing.T) {
	h := newHarness(t, 50)
	ctx := context.Background()
	actor := testutil.NewActor(entity.RoleTechnician)
	h.replies("one")
	h.replies("two")

	first, err := h.service.SendMessage(ctx, actor, &dto.SendMessageRequest{Content: "u1"})
	require.NoError(t, err)
	_, err = h.service.SendMessage(ctx, actor, &dto.SendMessageRequest{ConversationId: &first.Conversation.Id, Content: "u2"})
	require.NoError(t, err)

	messages, err := h.service.ListMessages(ctx, actor, first.Conversation.Id, nil)
	require.NoError(t, err)
	contents := make([]string, 0, len(messages))
	for _, m := range messages {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"u1", "one", "u2", "two"}, contents)

	latest, err := h.service.ListMessages(ctx, actor, first.Conversation.Id, &dto.ListMessagesQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "u2", latest[0].Content)

	detail, err := h.service.Show(ctx, actor, first.Conversation.Id)
	require.NoError(t, err)
	assert.Len(t, detail.Messages, 4)
	assert.Equal(t, 2, h.used(t, actor.UserId))
}

func TestSendMessage_Rejections(t *testing.T) {
	h := newHarness(t, 50)
	ctx := context.Background()
	owner := testutil.NewActor(entity.RoleManager)
	conversation, err := h.service.Create(ctx, owner, &dto.CreateConversationRequest{Title: "Mine"})
	require.NoError(t, err)
	missing := uuid.New()

	tests := []struct {
		name     string
		actor    entity.Actor
		req      *dto.SendMessageRequest
		wantKind apperror.Kind
	}{
		{name: "blank content", actor: owner, req: &dto.SendMessageRequest{Content: " \n\t "}, wantKind: apperror.KindValidation},
		{name: "too long", actor: owner, req: &dto.SendMessageRequest{Content: strings.Repeat("é", entity.MaxUserMessageLength+1)}, wantKind: apperror.KindValidation},
		{name: "someone else's conversation", actor: testutil.Colleague(owner, entity.RoleAdmin), req: &dto.SendMessageRequest{ConversationId: &conversation.Id, Content: "hi"}, wantKind: apperror.KindForbidden},
		{name: "unknown conversation", actor: owner, req: &dto.SendMessageRequest{ConversationId: &missing, Content: "hi"}, wantKind: apperror.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.service.SendMessage(ctx, tt.actor, tt.req)
			assert.Equal(t, tt.wantKind, apperror.KindOf(err))
		})
	}

	assert.Equal(t, int64(0), h.messageCount(t))
	h.provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessage_MaxLengthIsAccepted(t *testing.T) {
	h := newHarness(t, 50)
	actor := testutil.NewActor(entity.RoleViewer)
	h.replies("ok")

	_, err := h.service.SendMessage(context.Background(), actor, &dto.SendMessageRequest{
		Content: strings.Repeat("é", entity.MaxUserMessageLength),
	})
	assert.NoError(t, err)
}

func TestConversationList(t *testing.T) {
	h := newHarness(t, 50)
	ctx := context.Background()
	actor := testutil.NewActor(entity.RoleManager)
	for _, title := range []string{"a", "b", "c"} {
		_, err := h.service.Create(ctx, actor, &dto.CreateConversationRequest{Title: title})
		require.NoError(t, err)
	}
	_, err := h.service.Create(ctx, testutil.NewActor(entity.RoleManager), &dto.CreateConversationRequest{Title: "other"})
	require.NoError(t, err)

	page, err := h.service.List(ctx, actor, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c", page.Items[0].Title, "most recent first")

	second, err := h.service.List(ctx, actor, 2, 2)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "a", second.Items[0].Title)
}

func TestConversationUpdate(t *testing.T) {
	h := newHarness(t, 50)
	ctx := context.Background()
	actor := testutil.NewActor(entity.RoleManager)
	created, err := h.service.Create(ctx, actor, &dto.CreateConversationRequest{Title: "Draft"})
	require.NoError(t, err)
	assert.NotNil(t, created.Metadata)

	title := "  Brake audit  "
	updated, err := h.service.Update(ctx, actor, created.Id, &dto.UpdateConversationRequest{
		Title:    &title,
		Metadata: map[string]any{"pinned": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "Brake audit", updated.Title)
	assert.Equal(t, true, updated.Metadata["pinned"])

	_, err = h.service.Update(ctx, testutil.Colleague(actor, entity.RoleAdmin), created.Id, &dto.UpdateConversationRequest{Title: &title})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

func TestTitleFrom(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Check tyres", want: "Check tyres"},
		{in: "  line one\n\nline   two ", want: "line one line two"},
		{in: strings.Repeat("x", 61), want: strings.Repeat("x", 60)},
		{in: strings.Repeat("ü", 70), want: strings.Repeat("ü", 60)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, titleFrom(tt.in))
	}
}
