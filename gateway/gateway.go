// Package gateway is the single data handle the services talk to: typed
// table operations per entity plus the named procedures (process_referral_bonus,
// toggle_construction_mode, ...) that run as one transaction each.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mpa-platform/apperror"
	"mpa-platform/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Gateway struct {
	DB  *gorm.DB
	log *slog.Logger
}

// Open connects to Postgres with error translation enabled so unique
// violations surface as gorm.ErrDuplicatedKey.
func Open(dsn string, log *slog.Logger) (*Gateway, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger: logger.NewSlogLogger(log.With("component", "gorm"), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db, log), nil
}

func New(db *gorm.DB, log *slog.Logger) *Gateway {
	return &Gateway{DB: db, log: log.With("component", "gateway")}
}

// Migrate creates the schema, the settings row and the default phases.
func (g *Gateway) Migrate(ctx context.Context) error {
	db := g.DB.WithContext(ctx)
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	settings := models.SiteSettings{ID: models.SiteSettingsID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&settings).Error; err != nil {
		return fmt.Errorf("failed to seed site settings: %w", err)
	}

	var phases int64
	if err := db.Model(&models.ConstructionPhase{}).Count(&phases).Error; err != nil {
		return fmt.Errorf("failed to count phases: %w", err)
	}
	if phases == 0 {
		seed := make([]models.ConstructionPhase, len(models.DefaultPhases))
		copy(seed, models.DefaultPhases)
		if err := db.Create(&seed).Error; err != nil {
			return fmt.Errorf("failed to seed phases: %w", err)
		}
		g.log.Info("seeded default construction phases", "count", len(seed))
	}
	return nil
}

func (g *Gateway) Close() error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping is used by the health endpoint.
func (g *Gateway) Ping(ctx context.Context) error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// translate maps driver errors onto apperror kinds.
func translate(err error, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFound(resource, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &apperror.AppError{Err: apperror.ErrConflict, Message: resource + " already exists"}
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("%s: %w", resource, err)
}

func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

func notify(tx *gorm.DB, userID, title, message string, kind models.NotificationType) error {
	return tx.Create(&models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
	}).Error
}
