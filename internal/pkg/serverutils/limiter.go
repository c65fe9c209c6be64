package serverutils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// PerUserLimiter caps requests per authenticated user per minute. It must run
// after JwtMiddleware. Zero disables it.
func PerUserLimiter(perMinute int) []fiber.Handler {
	if perMinute <= 0 {
		return nil
	}
	return []fiber.Handler{limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		KeyGenerator: func(ctx *fiber.Ctx) string {
			if actor, err := ActorFrom(ctx); err == nil {
				return actor.UserId.String()
			}
			return ctx.IP()
		},
		LimitReached: func(ctx *fiber.Ctx) error {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse(fiber.StatusTooManyRequests, "Too many messages, slow down"))
		},
	})}
}
