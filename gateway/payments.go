package gateway

import (
	"context"
	"fmt"
	"time"

	"mpa-platform/apperror"
	"mpa-platform/models"

	"gorm.io/gorm"
)

func (g *Gateway) InsertTransaction(ctx context.Context, t *models.PaymentTransaction) error {
	return translate(g.DB.WithContext(ctx).Create(t).Error, "payment transaction", t.ID)
}

func (g *Gateway) GetTransaction(ctx context.Context, id string) (*models.PaymentTransaction, error) {
	var t models.PaymentTransaction
	if err := g.DB.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err, "payment transaction", id)
	}
	return &t, nil
}

func (g *Gateway) ListTransactions(ctx context.Context, userID string) ([]models.PaymentTransaction, error) {
	var out []models.PaymentTransaction
	if err := g.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, translate(err, "payment transactions", userID)
	}
	return out, nil
}

// ListTransactionsByStatus is the reviewer queue; an empty status lists everything.
func (g *Gateway) ListTransactionsByStatus(ctx context.Context, status models.PaymentStatus, limit, offset int) ([]models.PaymentTransaction, error) {
	q := g.DB.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.PaymentTransaction
	if err := q.Order("created_at ASC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, translate(err, "payment transactions", "")
	}
	return out, nil
}

// ListPendingOlderThan returns pending claims created before cutoff.
func (g *Gateway) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.PaymentTransaction, error) {
	var out []models.PaymentTransaction
	if err := g.DB.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.PaymentPending, cutoff).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, translate(err, "payment transactions", "")
	}
	return out, nil
}

func (g *Gateway) InsertPaymentMethod(ctx context.Context, m *models.PaymentMethod) error {
	return g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.IsDefault {
			if err := tx.Model(&models.PaymentMethod{}).
				Where("user_id = ?", m.UserID).
				Update("is_default", false).Error; err != nil {
				return translate(err, "payment method", m.ID)
			}
		}
		return translate(tx.Create(m).Error, "payment method", m.ID)
	})
}

func (g *Gateway) ListPaymentMethods(ctx context.Context, userID string) ([]models.PaymentMethod, error) {
	var out []models.PaymentMethod
	if err := g.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, translate(err, "payment methods", userID)
	}
	return out, nil
}

// VerifyPayment is the verify_payment procedure: the claim is settled once
// and its points credited in the same transaction.
func (g *Gateway) VerifyPayment(ctx context.Context, txID, adminID string) (*models.PaymentTransaction, error) {
	var out models.PaymentTransaction
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).First(&out, "id = ?", txID).Error; err != nil {
			return err
		}
		if out.Status != models.PaymentPending {
			return apperror.Conflict("payment is already " + string(out.Status))
		}

		now := time.Now().UTC()
		if err := tx.Model(&out).Updates(map[string]any{
			"status":              models.PaymentCompleted,
			"verification_status": models.VerificationVerified,
			"verified_by":         adminID,
			"verified_at":         now,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Profile{}).Where("id = ?", out.UserID).
			Update("points", gorm.Expr("points + ?", out.Points)).Error; err != nil {
			return err
		}
		if err := notify(tx, out.UserID, "Payment verified",
			fmt.Sprintf("Your payment %s was verified. %d Spark Points were added to your balance.", out.ReferenceID, out.Points),
			models.NotificationSuccess); err != nil {
			return err
		}
		return tx.First(&out, "id = ?", txID).Error
	})
	if err != nil {
		return nil, translate(err, "payment transaction", txID)
	}
	return &out, nil
}

func (g *Gateway) RejectPayment(ctx context.Context, txID, adminID, reason string) (*models.PaymentTransaction, error) {
	var out models.PaymentTransaction
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).First(&out, "id = ?", txID).Error; err != nil {
			return err
		}
		if out.Status != models.PaymentPending {
			return apperror.Conflict("payment is already " + string(out.Status))
		}

		now := time.Now().UTC()
		if err := tx.Model(&out).Updates(map[string]any{
			"status":              models.PaymentRejected,
			"verification_status": models.VerificationRejected,
			"verified_by":         adminID,
			"verified_at":         now,
			"rejection_reason":    reason,
		}).Error; err != nil {
			return err
		}
		if err := notify(tx, out.UserID, "Payment rejected",
			fmt.Sprintf("Your payment %s could not be verified: %s", out.ReferenceID, reason),
			models.NotificationError); err != nil {
			return err
		}
		return tx.First(&out, "id = ?", txID).Error
	})
	if err != nil {
		return nil, translate(err, "payment transaction", txID)
	}
	return &out, nil
}
