package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Audit emits one structured log line per request.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
			slog.Duration("duration", time.Since(start)),
		}
		if reqID, _ := c.Locals(requestIDHeader).(string); reqID != "" {
			attrs = append(attrs, slog.String("request_id", reqID))
		}
		if uid, _ := c.Locals(LocalUserID).(string); uid != "" {
			attrs = append(attrs, slog.String("user_id", uid))
		}

		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
			logger.Error("request completed", attrs...)
			return err
		}
		logger.Info("request completed", attrs...)
		return nil
	}
}
