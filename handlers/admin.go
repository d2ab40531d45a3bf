package handlers

import (
	"log/slog"

	"mpa-platform/middleware"
	"mpa-platform/services"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	svc *services.AdminService
	log *slog.Logger
}

func SetupAdminRoutes(admin fiber.Router, svc *services.AdminService, log *slog.Logger) {
	h := &AdminHandler{svc: svc, log: log}

	admin.Get("/users", h.ListUsers)
	admin.Post("/users/:id/points", h.AdjustPoints)
	admin.Post("/users/delete-all", h.DeleteAllUsers)
	admin.Post("/admins", h.CreateAdmin)
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, err := h.svc.ListUsers(c.UserContext(), c.Query("q"), pageFromQuery(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(page)
}

func (h *AdminHandler) AdjustPoints(c *fiber.Ctx) error {
	var body struct {
		Delta  int64  `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	p, err := h.svc.AdjustPoints(c.UserContext(), middleware.UserID(c), c.Params("id"), body.Delta, body.Reason)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(p)
}

func (h *AdminHandler) CreateAdmin(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	msg, err := h.svc.CreateAdmin(c.UserContext(), body.Email, body.Password)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": msg})
}

func (h *AdminHandler) DeleteAllUsers(c *fiber.Ctx) error {
	var body struct {
		Confirmation string `json:"confirmation"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	n, err := h.svc.DeleteAllUsers(c.UserContext(), middleware.UserID(c), body.Confirmation)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"success": true, "deleted": n})
}
