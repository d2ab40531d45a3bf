package middleware

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// RequireAdmin must run after Auth.
func RequireAdmin(checker AdminChecker, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		ok, err := checker.IsAdmin(c.UserContext(), userID)
		if err != nil {
			log.Error("admin check failed", "user_id", userID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to verify admin role"})
		}
		if !ok {
			log.Warn("non-admin denied", "user_id", userID, "path", c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
		}
		return c.Next()
	}
}
