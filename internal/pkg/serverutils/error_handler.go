package serverutils

import (
	"errors"

	"fleet-assistant-be/internal/apperror"
	"fleet-assistant-be/internal/dto"
	"fleet-assistant-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error returned by a handler to its HTTP status.
func StatusFor(err error) int {
	if err == nil {
		return fiber.StatusOK
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	switch apperror.KindOf(err) {
	case apperror.KindQuotaExceeded:
		return fiber.StatusTooManyRequests
	case apperror.KindForbidden:
		return fiber.StatusForbidden
	case apperror.KindNotFound, apperror.KindToolNotFound:
		return fiber.StatusNotFound
	case apperror.KindInvalidTransition:
		return fiber.StatusConflict
	case apperror.KindValidation, apperror.KindInvalidArguments:
		return fiber.StatusUnprocessableEntity
	case apperror.KindProviderFailure:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// ErrorHandlerMiddleware renders every error returned by a handler as an
// ErrorResponse. Unclassified errors are logged and their text hidden.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		status := StatusFor(err)

		var quota *apperror.QuotaExceededError
		if errors.As(err, &quota) {
			return ctx.Status(status).JSON(ErrorResponseWithData(status, err.Error(), dto.LimitExceededResponse{
				Limit:      quota.Limit,
				Used:       quota.Used,
				ResetAfter: quota.ResetAfter,
			}))
		}

		var appErr *apperror.Error
		if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
			return ctx.Status(status).JSON(ErrorResponseWithData(status, appErr.Error(), appErr.Fields))
		}

		message := err.Error()
		if status == fiber.StatusInternalServerError {
			log.Error("HTTP", "Unhandled error", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"error":  err.Error(),
			})
			message = "Internal server error"
		}
		return ctx.Status(status).JSON(ErrorResponse(status, message))
	}
}
