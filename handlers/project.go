package handlers

import (
	"log/slog"

	"mpa-platform/middleware"
	"mpa-platform/services"

	"github.com/gofiber/fiber/v2"
)

type ProjectHandler struct {
	svc       *services.ProjectService
	maxUpload int64
	log       *slog.Logger
}

func SetupProjectRoutes(api fiber.Router, auth fiber.Handler, svc *services.ProjectService, verifier *middleware.TokenVerifier, maxUpload int64, log *slog.Logger) {
	h := &ProjectHandler{svc: svc, maxUpload: maxUpload, log: log}

	// 🔓 Public feed; owners also see their own drafts by id
	api.Get("/projects", h.Feed)
	api.Get("/projects/:id", middleware.OptionalAuth(verifier), h.Get)

	// 🔐 Authenticated
	api.Post("/projects", auth, h.Create)
	api.Delete("/projects/:id", auth, h.Delete)
}

func (h *ProjectHandler) Feed(c *fiber.Ctx) error {
	page, err := h.svc.Feed(c.UserContext(), pageFromQuery(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(page)
}

func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	p, err := h.svc.Get(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(p)
}

func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var body struct {
		Title   string `json:"title"   form:"title"`
		Summary string `json:"summary" form:"summary"`
		Body    string `json:"body"    form:"body"`
		Link    string `json:"link"    form:"link"`
		Publish bool   `json:"publish" form:"publish"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	cover, err := optionalUpload(c, "cover", h.maxUpload)
	if err != nil {
		return fail(c, h.log, err)
	}

	p, err := h.svc.Create(c.UserContext(), middleware.UserID(c), services.ProjectInput{
		Title:   body.Title,
		Summary: body.Summary,
		Body:    body.Body,
		Link:    body.Link,
		Publish: body.Publish,
		Cover:   cover,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return fail(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
