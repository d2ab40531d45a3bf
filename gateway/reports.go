package gateway

import (
	"context"
	"fmt"
	"time"

	"mpa-platform/apperror"
	"mpa-platform/models"

	"gorm.io/gorm"
)

// SubmitErrorReport is the submit_error_report procedure. The reporter's
// profile row is locked so concurrent submissions count each other.
func (g *Gateway) SubmitErrorReport(ctx context.Context, r *models.ErrorReport, limit int, dayStart time.Time) error {
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Profile
		if err := tx.Clauses(forUpdate()).Select("id").First(&p, "id = ?", r.UserID).Error; err != nil {
			return translate(err, "profile", r.UserID)
		}

		var today int64
		if err := tx.Model(&models.ErrorReport{}).
			Where("user_id = ? AND created_at >= ?", r.UserID, dayStart).
			Count(&today).Error; err != nil {
			return err
		}
		if today >= int64(limit) {
			return apperror.LimitExceeded(fmt.Sprintf("You can submit at most %d reports per day. Please try again tomorrow.", limit))
		}
		return tx.Create(r).Error
	})
	return translate(err, "error report", r.ID)
}

func (g *Gateway) CountErrorReportsSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var n int64
	err := g.DB.WithContext(ctx).Model(&models.ErrorReport{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&n).Error
	return n, translate(err, "error reports", userID)
}

func (g *Gateway) ListErrorReports(ctx context.Context, userID string, status models.ErrorReportStatus, limit, offset int) ([]models.ErrorReport, error) {
	q := g.DB.WithContext(ctx)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.ErrorReport
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, translate(err, "error reports", userID)
	}
	return out, nil
}

func (g *Gateway) ResolveErrorReport(ctx context.Context, id string) (*models.ErrorReport, error) {
	var out models.ErrorReport
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).First(&out, "id = ?", id).Error; err != nil {
			return err
		}
		if out.Status == models.ReportResolved {
			return nil
		}
		if err := tx.Model(&out).Update("status", models.ReportResolved).Error; err != nil {
			return err
		}
		return notify(tx, out.UserID, "Report resolved",
			"Your "+string(out.Type)+" report has been reviewed and resolved.", models.NotificationInfo)
	})
	if err != nil {
		return nil, translate(err, "error report", id)
	}
	return &out, nil
}
