package handlers

import (
	"log/slog"

	"mpa-platform/apperror"
	"mpa-platform/middleware"
	"mpa-platform/models"
	"mpa-platform/services"
	"mpa-platform/session"

	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	profiles  *services.ProfileService
	admin     *services.AdminService
	sessions  *session.Manager
	maxUpload int64
	log       *slog.Logger
}

func SetupProfileRoutes(api fiber.Router, auth fiber.Handler, d Deps) {
	h := &ProfileHandler{
		profiles:  d.Profiles,
		admin:     d.Admin,
		sessions:  d.Sessions,
		maxUpload: d.MaxUpload,
		log:       d.Log,
	}

	me := api.Group("/me", auth)
	me.Get("/", h.Me)
	me.Get("/admin", h.IsAdmin)
	me.Patch("/theme", h.UpdateTheme)
	me.Patch("/display-name", h.UpdateDisplayName)
	me.Post("/avatar", h.UploadAvatar)

	api.Post("/auth/signout", auth, h.SignOut)
}

func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	if p := middleware.Profile(c); p != nil {
		return c.JSON(p)
	}
	p, err := h.profiles.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(p)
}

func (h *ProfileHandler) IsAdmin(c *fiber.Ctx) error {
	ok, err := h.admin.IsAdmin(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"is_admin": ok})
}

func (h *ProfileHandler) UpdateTheme(c *fiber.Ctx) error {
	var body struct {
		Theme models.Theme `json:"theme"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	p, err := h.profiles.UpdateTheme(c.UserContext(), middleware.UserID(c), body.Theme)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(p)
}

func (h *ProfileHandler) UpdateDisplayName(c *fiber.Ctx) error {
	var body struct {
		DisplayName string `json:"display_name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	p, err := h.profiles.UpdateDisplayName(c.UserContext(), middleware.UserID(c), body.DisplayName)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(p)
}

func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	up, err := optionalUpload(c, "avatar", h.maxUpload)
	if err != nil {
		return fail(c, h.log, err)
	}
	if up == nil {
		return fail(c, h.log, apperror.ValidationFailed("avatar", "Please choose an image to upload."))
	}
	p, err := h.profiles.UploadAvatar(c.UserContext(), middleware.UserID(c), up)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(p)
}

// SignOut drops the server-side session; the token itself stays valid until it expires.
func (h *ProfileHandler) SignOut(c *fiber.Ctx) error {
	h.sessions.SignOut(middleware.UserID(c))
	return c.SendStatus(fiber.StatusNoContent)
}
