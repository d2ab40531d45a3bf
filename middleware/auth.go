package middleware

import (
	"context"
	"errors"
	"log/slog"

	"mpa-platform/models"
	"mpa-platform/session"

	"github.com/gofiber/fiber/v2"
)

// Keys under which the auth middleware stores the caller in fiber locals.
const (
	LocalUserID  = "user_id"
	LocalEmail   = "email"
	LocalProfile = "profile"
)

// SessionOpener turns a verified identity into a bootstrapped profile.
type SessionOpener interface {
	Ensure(ctx context.Context, id session.Identity) (*models.Profile, error)
}

// Auth verifies the bearer access token and makes sure the caller has a profile.
func Auth(verifier *TokenVerifier, opener SessionOpener, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}
		return authenticate(c, verifier, opener, log, raw)
	}
}

// UserID returns the authenticated caller, or "" on public routes.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

// Profile returns the caller's profile as loaded by Auth.
func Profile(c *fiber.Ctx) *models.Profile {
	p, _ := c.Locals(LocalProfile).(*models.Profile)
	return p
}

func authenticate(c *fiber.Ctx, verifier *TokenVerifier, opener SessionOpener, log *slog.Logger, raw string) error {
	id, err := verifier.Verify(raw)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, ErrTokenExpired) {
			msg = "token expired"
		}
		log.Debug("token rejected", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
	}

	profile, err := opener.Ensure(c.UserContext(), id)
	if err != nil {
		log.Error("profile bootstrap failed", "user_id", id.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load profile",
		})
	}

	c.Locals(LocalUserID, id.UserID)
	c.Locals(LocalEmail, id.Email)
	c.Locals(LocalProfile, profile)
	return c.Next()
}

// OptionalAuth records the caller when a valid bearer token is present and
// lets anonymous requests through. It does not bootstrap a profile.
func OptionalAuth(verifier *TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := bearerToken(c.Get(fiber.HeaderAuthorization)); raw != "" {
			if id, err := verifier.Verify(raw); err == nil {
				c.Locals(LocalUserID, id.UserID)
				c.Locals(LocalEmail, id.Email)
			}
		}
		return c.Next()
	}
}
