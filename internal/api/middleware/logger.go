package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

func Logger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// The error handler has not run yet; derive the status it will set.
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if code := errorStatus(err); code != 0 {
				status = code
			}
		}

		logLevel := slog.LevelInfo
		if status >= 500 {
			logLevel = slog.LevelError
		} else if status >= 400 {
			logLevel = slog.LevelWarn
		}

		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.IP()),
			slog.String("request_id", requestIDFrom(c)),
		}
		if email, ok := c.Locals(LocalUserEmail).(string); ok {
			attrs = append(attrs, slog.String("user_email", email))
		}
		logger.LogAttrs(c.Context(), logLevel, "http request", attrs...)

		return err
	}
}
