package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"mpa-platform/config"
	"mpa-platform/functions"
	"mpa-platform/gateway"
	"mpa-platform/handlers"
	"mpa-platform/middleware"
	"mpa-platform/services"
	"mpa-platform/session"
	"mpa-platform/utils"
	"mpa-platform/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg.Log)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := gateway.Open(cfg.Database.URL, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer gw.Close()

	if cfg.Database.AutoMigrate {
		if err := gw.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	storage, err := utils.NewStorage(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	fn := functions.NewClient(cfg.Functions.BaseURL, cfg.Functions.Key, cfg.Functions.Timeout, log)
	if !fn.Configured() {
		log.Warn("FUNCTIONS_BASE_URL not set, admin operations run against the database only")
	}

	sessions := session.NewManager(log)

	construction := services.NewConstructionService(gw, cfg.Construction.AutoAdvance, log)
	notifications := services.NewNotificationService(gw, log)
	payments := services.NewPaymentService(gw, storage, log)

	scheduler, err := services.NewScheduler(cfg.Scheduler, notifications, payments, sessions, log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "mpa-platform",
		BodyLimit:    cfg.Server.BodyLimitMB << 20,
		ErrorHandler: errorHandler(log),
	})

	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} | ${locals:requestid} | ${status} | ${latency} | ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.Origins(), ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, apikey",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// 🔐 Every route needs the platform key, except health checks
	app.Use(middleware.APIKey(cfg.Server.APIKey, log, "/health"))

	if local, ok := storage.(*utils.LocalStorage); ok {
		app.Static("/uploads", local.Dir)
	}

	handlers.Setup(app, handlers.Deps{
		Construction:  construction,
		Referrals:     services.NewReferralService(gw, cfg.Limits.ReferralBonus, log),
		Payments:      payments,
		Profiles:      services.NewProfileService(gw, storage, sessions, cfg.Limits.DefaultPoints, cfg.Limits.CodeGenerateRetries, log),
		Notifications: notifications,
		Reports:       services.NewReportService(gw, cfg.Limits.DailyErrorReports, log),
		Catalog:       services.NewCatalogService(gw, log),
		Projects:      services.NewProjectService(gw, storage, log),
		Admin:         services.NewAdminService(gw, fn, log),
		Functions:     fn,
		Sessions:      sessions,
		Verifier:      middleware.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer),
		Ping:          gw.Ping,
		Log:           log,
	})

	workers.NewSettingsPoller(construction, cfg.Construction.RefreshInterval, log).Start(ctx)
	scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(fmt.Sprintf(":%d", cfg.Server.Port))
	}()
	log.Info("server running", "port", cfg.Server.Port, "origins", cfg.Server.Origins())

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	if err := scheduler.Shutdown(); err != nil {
		log.Error("scheduler shutdown failed", "error", err)
	}
	return nil
}

func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code, msg = fe.Code, fe.Message
		} else {
			log.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}
