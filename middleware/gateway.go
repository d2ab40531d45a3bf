package middleware

import (
	"crypto/subtle"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// APIKey rejects requests that do not carry the platform key in the apikey
// header. Paths in open skip the check.
func APIKey(expected string, log *slog.Logger, open ...string) fiber.Handler {
	skip := make(map[string]bool, len(open))
	for _, p := range open {
		skip[p] = true
	}

	return func(c *fiber.Ctx) error {
		if skip[c.Path()] || c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		key := c.Get("apikey")
		if key == "" {
			// EventSource cannot set headers
			key = c.Query("apikey")
		}
		if key == "" {
			log.Warn("missing api key", "path", c.Path(), "ip", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing apikey",
			})
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
			log.Warn("invalid api key", "path", c.Path(), "ip", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid apikey",
			})
		}
		return c.Next()
	}
}
