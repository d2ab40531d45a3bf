package handlers

import (
	"context"
	"log/slog"
	"time"

	"mpa-platform/functions"
	"mpa-platform/middleware"
	"mpa-platform/services"
	"mpa-platform/session"

	"github.com/gofiber/fiber/v2"
)

const defaultMaxUpload = 5 << 20

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Construction  *services.ConstructionService
	Referrals     *services.ReferralService
	Payments      *services.PaymentService
	Profiles      *services.ProfileService
	Notifications *services.NotificationService
	Reports       *services.ReportService
	Catalog       *services.CatalogService
	Projects      *services.ProjectService
	Admin         *services.AdminService
	Functions     *functions.Client
	Sessions      *session.Manager
	Verifier      *middleware.TokenVerifier
	Ping          func(ctx context.Context) error
	MaxUpload     int64
	PollInterval  time.Duration
	Log           *slog.Logger
}

// Setup registers every route on app.
func Setup(app *fiber.App, d Deps) {
	if d.MaxUpload <= 0 {
		d.MaxUpload = defaultMaxUpload
	}
	if d.PollInterval <= 0 {
		d.PollInterval = 2 * time.Second
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if d.Ping != nil {
			if err := d.Ping(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	auth := middleware.Auth(d.Verifier, d.Profiles, d.Log)
	admin := api.Group("/admin", auth, middleware.RequireAdmin(d.Admin, d.Log))

	SetupConstructionRoutes(api, admin, d.Construction, d.Log)
	SetupProfileRoutes(api, auth, d)
	SetupReferralRoutes(api, auth, d.Referrals, d.Log)
	SetupPaymentRoutes(api, admin, auth, d.Payments, d.MaxUpload, d.Log)
	SetupNotificationRoutes(api, admin, auth, d)
	SetupReportRoutes(api, admin, auth, d.Reports, d.Log)
	SetupCatalogRoutes(api, admin, auth, d.Catalog, d.Log)
	SetupProjectRoutes(api, auth, d.Projects, d.Verifier, d.MaxUpload, d.Log)
	SetupAdminRoutes(admin, d.Admin, d.Log)
	SetupAccountRoutes(api, d.Functions, d.Log)
}
