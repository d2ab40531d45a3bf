package handlers

import (
	"log/slog"

	"mpa-platform/middleware"
	"mpa-platform/models"
	"mpa-platform/services"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	svc *services.ReportService
	log *slog.Logger
}

func SetupReportRoutes(api, admin fiber.Router, auth fiber.Handler, svc *services.ReportService, log *slog.Logger) {
	h := &ReportHandler{svc: svc, log: log}

	r := api.Group("/reports", auth)
	r.Post("/", h.Submit)
	r.Get("/", h.ListOwn)
	r.Get("/quota", h.Quota)

	admin.Get("/reports", h.ListAll)
	admin.Post("/reports/:id/resolve", h.Resolve)
}

func (h *ReportHandler) Submit(c *fiber.Ctx) error {
	var body struct {
		Type           models.ErrorReportType `json:"type"`
		TransactionRef string                 `json:"transaction_ref"`
		Description    string                 `json:"description"`
		ContactEmail   string                 `json:"contact_email"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	report, err := h.svc.Submit(c.UserContext(), middleware.UserID(c), services.ReportInput{
		Type:           body.Type,
		TransactionRef: body.TransactionRef,
		Description:    body.Description,
		ContactEmail:   body.ContactEmail,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ReportHandler) Quota(c *fiber.Ctx) error {
	q, err := h.svc.Quota(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(q)
}

func (h *ReportHandler) ListOwn(c *fiber.Ctx) error {
	items, err := h.svc.ListOwn(c.UserContext(), middleware.UserID(c), pageFromQuery(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(items)
}

func (h *ReportHandler) ListAll(c *fiber.Ctx) error {
	status := models.ErrorReportStatus(c.Query("status"))
	items, err := h.svc.ListAll(c.UserContext(), status, pageFromQuery(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(items)
}

func (h *ReportHandler) Resolve(c *fiber.Ctx) error {
	r, err := h.svc.Resolve(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(r)
}
