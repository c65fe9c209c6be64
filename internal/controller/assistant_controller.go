package controller

import (
	"fleet-assistant-be/internal/pkg/serverutils"
	"fleet-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Context(ctx *fiber.Ctx) error
	Tools(ctx *fiber.Ctx) error
	Usage(ctx *fiber.Ctx) error
}

type assistantController struct {
	conversationService service.IConversationService
	actionService       service.IActionService
	planService         service.PlanService
}

func NewAssistantController(
	conversationService service.IConversationService,
	actionService service.IActionService,
	planService service.PlanService,
) IAssistantController {
	return &assistantController{
		conversationService: conversationService,
		actionService:       actionService,
		planService:         planService,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	r.Get("/context", c.Context)
	r.Get("/tools", c.Tools)
	r.Get("/usage", c.Usage)
}

// Context shows what the model would be told right now.
func (c *assistantController) Context(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFrom(ctx)
	if err != nil {
		return err
	}

	var conversationId *uuid.UUID
	if raw := ctx.Query("conversation_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid conversation_id")
		}
		conversationId = &id
	}

	snapshot, err := c.conversationService.ContextSnapshot(ctx.UserContext(), actor, conversationId, ctx.QueryInt("memory_limit", 0))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Context snapshot", snapshot))
}

func (c *assistantController) Tools(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFrom(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Tool catalog", c.actionService.Tools(ctx.UserContext(), actor)))
}

func (c *assistantController) Usage(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFrom(ctx)
	if err != nil {
		return err
	}

	usage, err := c.planService.GetUsage(ctx.UserContext(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Usage status retrieved", usage))
}
