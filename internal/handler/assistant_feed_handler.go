package handler

import (
	"fleet-assistant-be/internal/pkg/logger"
	"fleet-assistant-be/internal/pkg/serverutils"
	internalWS "fleet-assistant-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// AssistantFeedHandler streams action and message events to the browser.
type AssistantFeedHandler struct {
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewAssistantFeedHandler(hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *AssistantFeedHandler {
	return &AssistantFeedHandler{
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// ServeWs authenticates the handshake, then hands the connection to the hub.
func (h *AssistantFeedHandler) ServeWs(c *fiber.Ctx) error {
	// Browsers cannot set headers on a websocket handshake, so the query wins
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
	}

	actor, err := serverutils.ParseActor(tokenStr, h.jwtSecret)
	if err != nil {
		h.logger.Warn("AssistantFeedHandler", "Invalid token in websocket handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("AssistantFeedHandler", "Starting WebSocket session", map[string]interface{}{"user_id": actor.UserId})
		internalWS.ServeWs(h.hub, conn, actor.UserId)
		h.logger.Info("AssistantFeedHandler", "WebSocket session ended", map[string]interface{}{"user_id": actor.UserId})
	})(c)
}

func (h *AssistantFeedHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/assistant", h.ServeWs)
}
