package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/chitralai/chitralai/internal/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID := requestIDFrom(c)

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(ErrorResponse{Error: ErrorBody{
				Code:      "HTTP_ERROR",
				Message:   fiberErr.Message,
				RequestID: requestID,
			}})
		}

		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			if appErr.StatusCode >= 500 {
				logger.Error("request failed",
					slog.String("code", appErr.Code),
					slog.String("message", appErr.Message),
					slog.Any("error", appErr.Err),
					slog.String("request_id", requestID),
				)
			}

			return c.Status(appErr.StatusCode).JSON(ErrorResponse{Error: ErrorBody{
				Code:      appErr.Code,
				Message:   appErr.Message,
				RequestID: requestID,
			}})
		}

		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("request timed out",
				slog.String("path", c.Path()),
				slog.String("request_id", requestID),
			)
			return c.Status(fiber.StatusGatewayTimeout).JSON(ErrorResponse{Error: ErrorBody{
				Code:      "TIMEOUT",
				Message:   "The request took too long",
				RequestID: requestID,
			}})
		}

		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
			slog.String("request_id", requestID),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: ErrorBody{
			Code:      domain.ErrInternal.Code,
			Message:   domain.ErrInternal.Message,
			RequestID: requestID,
		}})
	}
}

// requestIDFrom reads the id set by the requestid middleware.
func requestIDFrom(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
