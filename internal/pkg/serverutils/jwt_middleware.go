package serverutils

import (
	"fmt"
	"strings"

	"fleet-assistant-be/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const actorKey = "actor"

// ParseActor verifies an HS256/384/512 token and extracts the caller.
func ParseActor(tokenStr string, secret string) (entity.Actor, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return entity.Actor{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entity.Actor{}, fmt.Errorf("invalid claims")
	}

	userId, err := uuidClaim(claims, "user_id")
	if err != nil {
		return entity.Actor{}, err
	}
	companyId, err := uuidClaim(claims, "company_id")
	if err != nil {
		return entity.Actor{}, err
	}

	role := entity.RoleViewer
	if r, ok := claims["role"].(string); ok && r != "" {
		role = entity.Role(strings.ToLower(r))
	}
	return entity.Actor{UserId: userId, CompanyId: companyId, Role: role}, nil
}

func uuidClaim(claims jwt.MapClaims, key string) (uuid.UUID, error) {
	raw, ok := claims[key].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("claim %s missing", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("claim %s: %w", key, err)
	}
	return id, nil
}

func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}

		actor, err := ParseActor(authHeader[7:], secret)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		ctx.Locals(actorKey, actor)
		ctx.Locals("user_id", actor.UserId.String())
		return ctx.Next()
	}
}

// ActorFrom returns the caller stored by JwtMiddleware.
func ActorFrom(ctx *fiber.Ctx) (entity.Actor, error) {
	actor, ok := ctx.Locals(actorKey).(entity.Actor)
	if !ok {
		return entity.Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return actor, nil
}
