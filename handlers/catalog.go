package handlers

import (
	"log/slog"

	"mpa-platform/middleware"
	"mpa-platform/services"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	svc *services.CatalogService
	log *slog.Logger
}

type serviceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PricePoints int64  `json:"price_points"`
	Active      *bool  `json:"active"`
}

func (r serviceRequest) input() services.ServiceInput {
	return services.ServiceInput{
		Name:        r.Name,
		Description: r.Description,
		PricePoints: r.PricePoints,
		Active:      r.Active,
	}
}

func SetupCatalogRoutes(api, admin fiber.Router, auth fiber.Handler, svc *services.CatalogService, log *slog.Logger) {
	h := &CatalogHandler{svc: svc, log: log}

	api.Get("/services", h.List)
	api.Get("/services/:id", h.Get)
	api.Post("/services/:id/purchase", auth, h.Purchase)
	api.Get("/orders", auth, h.Orders)

	admin.Get("/services", h.ListAll)
	admin.Post("/services", h.Create)
	admin.Patch("/services/:id", h.Update)
}

func (h *CatalogHandler) List(c *fiber.Ctx) error {
	items, err := h.svc.List(c.UserContext(), false)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(items)
}

func (h *CatalogHandler) ListAll(c *fiber.Ctx) error {
	items, err := h.svc.List(c.UserContext(), true)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(items)
}

func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	s, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(s)
}

func (h *CatalogHandler) Purchase(c *fiber.Ctx) error {
	var body struct {
		Note string `json:"note"`
	}
	// body is optional
	_ = c.BodyParser(&body)
	order, err := h.svc.Purchase(c.UserContext(), middleware.UserID(c), c.Params("id"), body.Note)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *CatalogHandler) Orders(c *fiber.Ctx) error {
	orders, err := h.svc.Orders(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(orders)
}

func (h *CatalogHandler) Create(c *fiber.Ctx) error {
	var body serviceRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	s, err := h.svc.Create(c.UserContext(), body.input())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s)
}

func (h *CatalogHandler) Update(c *fiber.Ctx) error {
	var body serviceRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	s, err := h.svc.Update(c.UserContext(), c.Params("id"), body.input())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(s)
}
