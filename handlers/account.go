package handlers

import (
	"log/slog"

	"mpa-platform/functions"
	"mpa-platform/services"

	"github.com/gofiber/fiber/v2"
)

// AccountHandler serves the pre-sign-in helpers used by the signup and
// password reset pages.
type AccountHandler struct {
	fn  *functions.Client
	log *slog.Logger
}

func SetupAccountRoutes(api fiber.Router, fn *functions.Client, log *slog.Logger) {
	h := &AccountHandler{fn: fn, log: log}

	api.Post("/password/check", h.CheckPassword)
	api.Post("/auth/email", h.SendEmail)
}

func (h *AccountHandler) CheckPassword(c *fiber.Ctx) error {
	var body struct {
		Password string `json:"password"`
		Confirm  string `json:"confirm"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	check := services.CheckPassword(body.Password, body.Confirm)
	return c.JSON(fiber.Map{"valid": check.Valid(), "checks": check})
}

func (h *AccountHandler) SendEmail(c *fiber.Ctx) error {
	var body functions.EmailRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	resp, err := h.fn.SendEmail(c.UserContext(), body)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(resp)
}
