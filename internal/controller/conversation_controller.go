package controller

import (
	"fleet-assistant-be/internal/dto"
	"fleet-assistant-be/internal/pkg/serverutils"
	"fleet-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IConversationController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	ListMessages(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	StartConversation(ctx *fiber.Ctx) error
}

type conversationController struct {
	service        service.IConversationService
	sendMiddleware []fiber.Handler
}

// NewConversationController takes the handlers that guard message sends,
// such as the per-user rate limiter.
func NewConversationController(service service.IConversationService, sendMiddleware ...fiber.Handler) IConversationController {
	return &conversationController{service: service, sendMiddleware: sendMiddleware}
}

// RegisterRoutes expects r to be the authenticated assistant group.
func (c *conversationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/conversations")
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Patch(":id", c.Update)
	h.Get(":id/messages", c.ListMessages)
	h.Post(":id/messages", c.guarded(c.SendMessage)...)

	r.Post("/messages", c.guarded(c.StartConversation)...)
}

func (c *conversationController) guarded(handler fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(c.sendMiddleware)+1)
	handlers = append(handlers, c.sendMiddleware...)
	return append(handlers, handler)
}

func (c *conversationController) Create(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFrom(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateConversationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), actor, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.CreatedResponse("Success create conversation", res))
}

func (c *conversationController) List(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFrom(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), actor, ctx.QueryInt("page", 1), ctx.QueryInt("limit", 20))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list conversations", res))
}

func (c *conversationController) Show(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFrom(ctx)
	if err != nil {
		return err
	}
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show conversation", res))
}

func (c *conversationController) Update(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFrom(ctx)
	if err != nil {
		return err
	}
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateConversationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), actor, id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update conversation", res))
}

func (c *conversationController) ListMessages(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFrom(ctx)
	if err != nil {
		return err
	}
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	var query dto.ListMessagesQuery
	if err := ctx.QueryParser(&query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}

	res, err := c.service.ListMessages(ctx.UserContext(), actor, id, &query)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list messages", res))
}

func (c *conversationController) SendMessage(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	return c.send(ctx, func(req *dto.SendMessageRequest) { req.ConversationId = &id })
}

func (c *conversationController) StartConversation(ctx *fiber.Ctx) error {
	return c.send(ctx, func(*dto.SendMessageRequest) {})
}

func (c *conversationController) send(ctx *fiber.Ctx, scope func(*dto.SendMessageRequest)) error {
	actor, err := serverutils.ActorFrom(ctx)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	scope(&req)
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.UserContext(), actor, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.AcceptedResponse("Message accepted", res))
}
