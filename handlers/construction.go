package handlers

import (
	"log/slog"

	"mpa-platform/models"
	"mpa-platform/services"

	"github.com/gofiber/fiber/v2"
)

type ConstructionHandler struct {
	svc *services.ConstructionService
	log *slog.Logger
}

type phaseView struct {
	models.ConstructionPhase
	CanStart bool `json:"can_start"`
}

func SetupConstructionRoutes(api, admin fiber.Router, svc *services.ConstructionService, log *slog.Logger) {
	h := &ConstructionHandler{svc: svc, log: log}

	// Public, polled by the construction banner
	api.Get("/settings", h.GetSettings)
	api.Get("/construction/phases", h.ListPhases)

	admin.Put("/construction/mode", h.ToggleMode)
	admin.Put("/construction/progress", h.SetProgress)
	admin.Post("/construction/phases/:id/start", h.StartPhase)
	admin.Post("/construction/phases/:id/complete", h.CompletePhase)
}

func (h *ConstructionHandler) GetSettings(c *fiber.Ctx) error {
	settings := h.svc.Settings(c.UserContext())
	if settings == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Settings are unavailable right now."})
	}
	return c.JSON(settings)
}

func (h *ConstructionHandler) ListPhases(c *fiber.Ctx) error {
	phases := h.svc.FetchPhases(c.UserContext())
	if phases == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Construction phases are unavailable right now."})
	}
	out := make([]phaseView, 0, len(phases))
	for _, p := range phases {
		out = append(out, phaseView{ConstructionPhase: p, CanStart: services.CanStart(phases, p.ID)})
	}
	return c.JSON(out)
}

func (h *ConstructionHandler) StartPhase(c *fiber.Ctx) error {
	if !h.svc.StartPhase(c.UserContext(), c.Params("id")) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Failed to start phase."})
	}
	return c.JSON(fiber.Map{"success": true, "settings": h.svc.Settings(c.UserContext())})
}

func (h *ConstructionHandler) CompletePhase(c *fiber.Ctx) error {
	if !h.svc.CompletePhase(c.UserContext(), c.Params("id")) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Failed to complete phase."})
	}
	return c.JSON(fiber.Map{"success": true, "settings": h.svc.Settings(c.UserContext())})
}

func (h *ConstructionHandler) SetProgress(c *fiber.Ctx) error {
	var body struct {
		Progress *int `json:"progress"`
	}
	if err := c.BodyParser(&body); err != nil || body.Progress == nil {
		return badRequest(c, "progress is required")
	}
	value := h.svc.SetProgress(c.UserContext(), *body.Progress)
	if value < 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Failed to update progress."})
	}
	return c.JSON(fiber.Map{"progress": value})
}

func (h *ConstructionHandler) ToggleMode(c *fiber.Ctx) error {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.BodyParser(&body); err != nil || body.Enabled == nil {
		return badRequest(c, "enabled is required")
	}
	if !h.svc.ToggleMode(c.UserContext(), *body.Enabled) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Failed to update construction mode."})
	}
	return c.JSON(fiber.Map{"construction_mode": *body.Enabled})
}
