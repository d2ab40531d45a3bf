package gateway

import (
	"context"
	"time"

	"mpa-platform/apperror"
	"mpa-platform/models"

	"gorm.io/gorm"
)

func (g *Gateway) GetSiteSettings(ctx context.Context) (*models.SiteSettings, error) {
	var s models.SiteSettings
	if err := g.DB.WithContext(ctx).First(&s, "id = ?", models.SiteSettingsID).Error; err != nil {
		return nil, translate(err, "site settings", "1")
	}
	return &s, nil
}

// ListPhases returns phases ordered by their progress interval.
func (g *Gateway) ListPhases(ctx context.Context) ([]models.ConstructionPhase, error) {
	var phases []models.ConstructionPhase
	if err := g.DB.WithContext(ctx).Order("progress_start ASC").Order("created_at ASC").Find(&phases).Error; err != nil {
		return nil, translate(err, "construction phases", "")
	}
	return phases, nil
}

func (g *Gateway) GetPhase(ctx context.Context, id string) (*models.ConstructionPhase, error) {
	var p models.ConstructionPhase
	if err := g.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err, "construction phase", id)
	}
	return &p, nil
}

// SetPhaseStatus moves a phase forward and stamps the matching timestamp.
func (g *Gateway) SetPhaseStatus(ctx context.Context, id string, status models.PhaseStatus, at time.Time) (*models.ConstructionPhase, error) {
	var out models.ConstructionPhase
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).First(&out, "id = ?", id).Error; err != nil {
			return err
		}
		if !out.Status.CanAdvanceTo(status) {
			return apperror.Conflict("phase " + out.Name + " cannot move from " + string(out.Status) + " to " + string(status))
		}

		updates := map[string]any{"status": status}
		switch status {
		case models.PhaseInProgress:
			updates["started_at"] = at
		case models.PhaseCompleted:
			updates["completed_at"] = at
			if out.StartedAt == nil {
				updates["started_at"] = at
			}
		}
		if err := tx.Model(&out).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&out, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate(err, "construction phase", id)
	}
	return &out, nil
}

// UpdateConstructionProgress is the update_construction_progress procedure.
// The value is expected to be clamped already.
func (g *Gateway) UpdateConstructionProgress(ctx context.Context, progress int) (*models.SiteSettings, error) {
	res := g.DB.WithContext(ctx).Model(&models.SiteSettings{}).
		Where("id = ?", models.SiteSettingsID).
		Update("construction_progress", progress)
	if res.Error != nil {
		return nil, translate(res.Error, "site settings", "1")
	}
	return g.GetSiteSettings(ctx)
}

// ToggleConstructionMode is the toggle_construction_mode procedure.
func (g *Gateway) ToggleConstructionMode(ctx context.Context, enabled bool) (*models.SiteSettings, error) {
	res := g.DB.WithContext(ctx).Model(&models.SiteSettings{}).
		Where("id = ?", models.SiteSettingsID).
		Update("construction_mode", enabled)
	if res.Error != nil {
		return nil, translate(res.Error, "site settings", "1")
	}
	return g.GetSiteSettings(ctx)
}
