package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mpa-platform/apperror"
	"mpa-platform/models"

	"gorm.io/gorm"
)

// ProcessReferralBonus is the process_referral_bonus procedure. Every
// precondition is re-checked under row locks, then both balances are
// credited and the referral recorded in the same transaction.
func (g *Gateway) ProcessReferralBonus(ctx context.Context, referredID, code string, bonus int64) (*models.Referral, error) {
	var out models.Referral
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var referred models.Profile
		if err := tx.Clauses(forUpdate()).First(&referred, "id = ?", referredID).Error; err != nil {
			return translate(err, "profile", referredID)
		}
		if referred.ReferredBy != nil {
			return apperror.Conflict(models.MsgReferralAlreadyUsed)
		}

		var referrer models.Profile
		if err := tx.Clauses(forUpdate()).First(&referrer, "referral_code = ?", code).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &apperror.AppError{Err: apperror.ErrNotFound, Message: models.MsgReferralNoSuchCode, Field: "code"}
			}
			return err
		}
		if referrer.ID == referred.ID {
			return apperror.Forbidden(models.MsgReferralSelf)
		}

		now := time.Now().UTC()
		out = models.Referral{
			ReferrerID:  referrer.ID,
			ReferredID:  referred.ID,
			CodeUsed:    code,
			Status:      models.ReferralCompleted,
			BonusAmount: bonus,
			CompletedAt: &now,
		}
		if err := tx.Create(&out).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict(models.MsgReferralAlreadyUsed)
			}
			return err
		}

		if err := tx.Model(&models.Profile{}).Where("id = ?", referred.ID).Updates(map[string]any{
			"referred_by": referrer.ID,
			"points":      gorm.Expr("points + ?", bonus),
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Profile{}).Where("id = ?", referrer.ID).
			Update("points", gorm.Expr("points + ?", bonus)).Error; err != nil {
			return err
		}

		if err := notify(tx, referred.ID, "Referral bonus",
			fmt.Sprintf("You received %d Spark Points for joining with %s's code.", bonus, referrer.Username),
			models.NotificationSuccess); err != nil {
			return err
		}
		return notify(tx, referrer.ID, "Referral bonus",
			fmt.Sprintf("%s joined with your code. You earned %d Spark Points.", referred.Username, bonus),
			models.NotificationSuccess)
	})
	if err != nil {
		return nil, translate(err, "referral", referredID)
	}
	return &out, nil
}

func (g *Gateway) ListReferrals(ctx context.Context, referrerID string) ([]models.Referral, error) {
	var out []models.Referral
	if err := g.DB.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, translate(err, "referrals", referrerID)
	}
	return out, nil
}

func (g *Gateway) ReferralStats(ctx context.Context, referrerID string) (*models.ReferralStats, error) {
	var stats models.ReferralStats
	err := g.DB.WithContext(ctx).Model(&models.Referral{}).
		Select(
			"COUNT(*) AS total, "+
				"COUNT(*) FILTER (WHERE status = ?) AS completed, "+
				"COUNT(*) FILTER (WHERE status = ?) AS pending, "+
				"COALESCE(SUM(bonus_amount) FILTER (WHERE status = ?), 0) AS points_earned",
			models.ReferralCompleted, models.ReferralPending, models.ReferralCompleted,
		).
		Where("referrer_id = ?", referrerID).
		Scan(&stats).Error
	if err != nil {
		return nil, translate(err, "referrals", referrerID)
	}
	return &stats, nil
}
