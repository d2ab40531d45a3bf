package handlers

import (
	"log/slog"

	"mpa-platform/middleware"
	"mpa-platform/services"

	"github.com/gofiber/fiber/v2"
)

type ReferralHandler struct {
	svc *services.ReferralService
	log *slog.Logger
}

func SetupReferralRoutes(api fiber.Router, auth fiber.Handler, svc *services.ReferralService, log *slog.Logger) {
	h := &ReferralHandler{svc: svc, log: log}

	r := api.Group("/referrals", auth)
	r.Get("/", h.List)
	r.Get("/stats", h.Stats)
	r.Post("/redeem", h.Redeem)
}

func (h *ReferralHandler) Redeem(c *fiber.Ctx) error {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	ref, err := h.svc.Redeem(c.UserContext(), middleware.UserID(c), body.Code)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ref)
}

func (h *ReferralHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.svc.Stats(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(stats)
}

func (h *ReferralHandler) List(c *fiber.Ctx) error {
	refs, err := h.svc.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(refs)
}
