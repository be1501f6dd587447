package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/prayer-clock/backend/internal/apperr"
	"github.com/prayer-clock/backend/internal/http/dto"
	"github.com/prayer-clock/backend/internal/middleware"
	"go.uber.org/zap"
)

// respondError writes err as a JSON error body with the status of its code.
// Errors outside the taxonomy are logged and hidden behind a generic message.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := apperr.HTTPStatus(err)
	resp := dto.ErrorResponse{
		Error:     err.Error(),
		Code:      string(apperr.CodeOf(err)),
		Retryable: apperr.IsRetryable(err),
		RequestID: middleware.GetRequestID(c),
	}

	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}

	if status == fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("request_id", resp.RequestID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		resp.Error = "internal error"
	}
	return c.Status(status).JSON(resp)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error:     msg,
		Code:      string(apperr.CodeValidation),
		RequestID: middleware.GetRequestID(c),
	})
}
