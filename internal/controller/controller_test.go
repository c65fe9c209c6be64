package controller_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"fleet-assistant-be/internal/controller"
	"fleet-assistant-be/internal/dto"
	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/pkg/logger"
	"fleet-assistant-be/internal/pkg/serverutils"
	"fleet-assistant-be/internal/service"
	"fleet-assistant-be/internal/testutil"
	"fleet-assistant-be/pkg/assistant/contextbuilder"
	"fleet-assistant-be/pkg/assistant/draft"
	"fleet-assistant-be/pkg/assistant/ledger"
	"fleet-assistant-be/pkg/assistant/quota"
	"fleet-assistant-be/pkg/assistant/tools"
	"fleet-assistant-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const secret = "controller-secret"

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type api struct {
	app      *fiber.App
	provider *testutil.MockProvider
}

func newAPI(t *testing.T, freeLimit int) *api {
	t.Helper()
	factory, _ := testutil.NewFactory(t)
	log := logger.NewNopLogger()
	publisher := &testutil.RecordingPublisher{}
	provider := &testutil.MockProvider{}
	registry := tools.NewFleetRegistry()

	guard := quota.NewGuard(quota.Config{FreePlanSlug: "free", FreePlanLimit: freeLimit}, publisher, log)
	builder := contextbuilder.NewBuilder(factory, service.StoreFor, nil, log, 0)
	generator := draft.NewGenerator(provider, registry.LLMTools(), draft.Config{Model: "test-model"}, log)
	actionLedger := ledger.NewLedger(factory, registry, service.StoreFor, publisher, log, ledger.WithInvalidator(builder))

	conversations := service.NewConversationService(factory, guard, builder, generator, actionLedger, publisher, log)
	actions := service.NewActionService(actionLedger, registry)
	plans := service.NewPlanService(factory, guard)

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandlerMiddleware(log)})
	root := app.Group("/api")
	controller.NewPlanController(plans).RegisterRoutes(root)

	assistant := root.Group("/assistant/v1", serverutils.JwtMiddleware(secret))
	controller.NewConversationController(conversations).RegisterRoutes(assistant)
	controller.NewActionController(actions).RegisterRoutes(assistant)
	controller.NewAssistantController(conversations, actions, plans).RegisterRoutes(assistant)

	return &api{app: app, provider: provider}
}

func tokenFor(t *testing.T, actor entity.Actor) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    actor.UserId.String(),
		"company_id": actor.CompanyId.String(),
		"role":       string(actor.Role),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func (a *api) call(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func (a *api) replies(text string, calls ...llm.ToolCall) {
	a.provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(&llm.Completion{Text: text, Model: "test-model", ToolCalls: calls}, nil).Once()
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestAssistantRoutes_ProposeAndConfirm(t *testing.T) {
	a := newAPI(t, 50)
	actor := testutil.NewActor(entity.RoleManager)
	token := tokenFor(t, actor)
	a.replies("I can open a maintenance order for that.",
		llm.ToolCall{Id: "c1", Name: tools.CreateMaintenanceOrder, Arguments: json.RawMessage(`{"plate":"X 1 Y","title":"Check tyres"}`)},
	)

	status, body := a.call(t, "POST", "/api/assistant/v1/messages", token, map[string]any{"content": "Tyres on X 1 Y look worn"})
	require.Equal(t, fiber.StatusAccepted, status, body.Message)
	assert.Equal(t, 202, body.Code)

	sent := decode[dto.SendMessageResponse](t, body.Data)
	require.Len(t, sent.Messages, 2)
	require.Len(t, sent.Actions, 1)
	assert.Equal(t, string(entity.ActionStatusPendingConfirmation), sent.Actions[0].Status)

	actionPath := "/api/assistant/v1/actions/" + sent.Actions[0].Id.String()
	status, body = a.call(t, "GET", actionPath, token, nil)
	require.Equal(t, fiber.StatusOK, status)

	// The vehicle does not exist, so execution fails and the action lands in error.
	status, body = a.call(t, "POST", actionPath+"/confirm", token, nil)
	require.Equal(t, fiber.StatusOK, status, body.Message)
	assert.Equal(t, string(entity.ActionStatusError), decode[dto.ActionResponse](t, body.Data).Status)

	status, _ = a.call(t, "POST", actionPath+"/confirm", token, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = a.call(t, "POST", actionPath+"/cancel", token, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	conversationPath := "/api/assistant/v1/conversations/" + sent.Conversation.Id.String()
	status, body = a.call(t, "GET", conversationPath+"/actions?limit=5", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]dto.ActionResponse](t, body.Data), 1)

	status, body = a.call(t, "GET", conversationPath+"/messages", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]dto.MessageResponse](t, body.Data), 2)

	status, body = a.call(t, "GET", "/api/assistant/v1/usage", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	usage := decode[dto.AssistantUsageResponse](t, body.Data)
	assert.Equal(t, 1, usage.Used)
	require.NotNil(t, usage.Remaining)
	assert.Equal(t, 49, *usage.Remaining)

	a.provider.AssertExpectations(t)
}

func TestAssistantRoutes_ConversationCrud(t *testing.T) {
	a := newAPI(t, 50)
	owner := testutil.NewActor(entity.RoleTechnician)
	token := tokenFor(t, owner)

	status, body := a.call(t, "POST", "/api/assistant/v1/conversations", token, map[string]any{"title": "Depot A"})
	require.Equal(t, fiber.StatusCreated, status, body.Message)
	assert.Equal(t, 201, body.Code)
	created := decode[dto.ConversationResponse](t, body.Data)
	path := "/api/assistant/v1/conversations/" + created.Id.String()

	status, body = a.call(t, "PATCH", path, token, map[string]any{"title": "Depot B"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Depot B", decode[dto.ConversationResponse](t, body.Data).Title)

	status, body = a.call(t, "GET", "/api/assistant/v1/conversations?page=1&limit=10", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, int64(1), decode[dto.ConversationPage](t, body.Data).Total)

	stranger := tokenFor(t, testutil.Colleague(owner, entity.RoleManager))
	status, _ = a.call(t, "GET", path, stranger, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestAssistantRoutes_Rejections(t *testing.T) {
	a := newAPI(t, 50)
	token := tokenFor(t, testutil.NewActor(entity.RoleManager))

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{name: "no token", method: "GET", path: "/api/assistant/v1/conversations", want: fiber.StatusUnauthorized},
		{name: "bad id", method: "GET", path: "/api/assistant/v1/conversations/not-a-uuid", token: token, want: fiber.StatusBadRequest},
		{name: "missing conversation", method: "GET", path: "/api/assistant/v1/conversations/0190a4f2-0000-7000-8000-000000000000", token: token, want: fiber.StatusNotFound},
		{name: "missing action", method: "POST", path: "/api/assistant/v1/actions/0190a4f2-0000-7000-8000-000000000000/confirm", token: token, want: fiber.StatusNotFound},
		{name: "empty content", method: "POST", path: "/api/assistant/v1/messages", token: token, body: map[string]any{"content": ""}, want: fiber.StatusUnprocessableEntity},
		{name: "bad context conversation", method: "GET", path: "/api/assistant/v1/context?conversation_id=nope", token: token, want: fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := a.call(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, status)
			assert.False(t, body.Success)
		})
	}
}

func TestAssistantRoutes_QuotaExceeded(t *testing.T) {
	a := newAPI(t, 1)
	token := tokenFor(t, testutil.NewActor(entity.RoleViewer))
	a.replies("First and last.")

	status, _ := a.call(t, "POST", "/api/assistant/v1/messages", token, map[string]any{"content": "hello"})
	require.Equal(t, fiber.StatusAccepted, status)

	status, body := a.call(t, "POST", "/api/assistant/v1/messages", token, map[string]any{"content": "again"})
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	quotaBody := decode[dto.LimitExceededResponse](t, body.Data)
	assert.Equal(t, 1, quotaBody.Limit)
	assert.Equal(t, 1, quotaBody.Used)
	assert.NotNil(t, quotaBody.ResetAfter)
	a.provider.AssertExpectations(t)
}

func TestAssistantRoutes_ToolsContextAndPlans(t *testing.T) {
	a := newAPI(t, 50)
	viewer := testutil.NewActor(entity.RoleViewer)
	token := tokenFor(t, viewer)

	status, body := a.call(t, "GET", "/api/assistant/v1/tools", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	catalog := decode[[]dto.ToolResponse](t, body.Data)
	require.NotEmpty(t, catalog)
	for _, tool := range catalog {
		assert.Equal(t, !tool.RequiresConfirmation, tool.Allowed, tool.Name)
	}

	status, _ = a.call(t, "GET", "/api/assistant/v1/context?memory_limit=3", token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	// The usage call creates the default plan.
	status, _ = a.call(t, "GET", "/api/assistant/v1/usage", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, body = a.call(t, "GET", "/api/plans", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	plans := decode[[]dto.PlanResponse](t, body.Data)
	require.Len(t, plans, 1)
	assert.Equal(t, "free", plans[0].Slug)
}
