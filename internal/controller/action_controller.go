package controller

import (
	"fleet-assistant-be/internal/pkg/serverutils"
	"fleet-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IActionController interface {
	RegisterRoutes(r fiber.Router)
	ListByConversation(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Confirm(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
}

type actionController struct {
	service service.IActionService
}

func NewActionController(service service.IActionService) IActionController {
	return &actionController{service: service}
}

func (c *actionController) RegisterRoutes(r fiber.Router) {
	r.Get("/conversations/:id/actions", c.ListByConversation)

	h := r.Group("/actions")
	h.Get(":id", c.Show)
	h.Post(":id/confirm", c.Confirm)
	h.Post(":id/cancel", c.Cancel)
}

func (c *actionController) ListByConversation(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFrom(ctx)
	if err != nil {
		return err
	}
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.ListByConversation(ctx.UserContext(), actor, id, ctx.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list actions", res))
}

func (c *actionController) Show(ctx *fiber.Ctx) error {
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
	return ctx.JSON(serverutils.SuccessResponse("Success show action", res))
}

func (c *actionController) Confirm(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFrom(ctx)
	if err != nil {
		return err
	}
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.Confirm(ctx.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Action confirmed", res))
}

func (c *actionController) Cancel(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFrom(ctx)
	if err != nil {
		return err
	}
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.Cancel(ctx.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Action cancelled", res))
}
