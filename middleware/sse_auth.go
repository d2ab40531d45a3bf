package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SSEAuth authenticates EventSource requests, which cannot set headers, from
// the token query parameter.
//
// Usage:
//
//	app.Get("/notifications/stream", middleware.SSEAuth(verifier, profiles, log), h.Stream)
func SSEAuth(verifier *TokenVerifier, opener SessionOpener, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Query("token"))
		if raw == "" {
			raw = bearerToken(c.Get(fiber.HeaderAuthorization))
		}
		if raw == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "missing token in query",
			})
		}
		return authenticate(c, verifier, opener, log, raw)
	}
}
