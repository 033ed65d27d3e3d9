package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

type ctxKey string

const loggerKey ctxKey = "logger"

// RequestLoggerMiddleware stores a request-scoped *slog.Logger in the user
// context carrying the Fiber request ID and the overlay the service hosts.
// Must run after requestid.New().
func RequestLoggerMiddleware(overlayID string) fiber.Handler {
	base := slog.Default().With("overlay_id", overlayID)
	return func(c *fiber.Ctx) error {
		l := base
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			l = l.With("request_id", rid)
		}
		c.SetUserContext(context.WithValue(c.UserContext(), loggerKey, l))
		return c.Next()
	}
}

// LoggerFromCtx extracts the per-request logger, or slog.Default().
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
