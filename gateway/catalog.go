package gateway

import (
	"context"
	"fmt"

	"mpa-platform/apperror"
	"mpa-platform/models"

	"gorm.io/gorm"
)

func (g *Gateway) ListServices(ctx context.Context, includeInactive bool) ([]models.DigitalService, error) {
	q := g.DB.WithContext(ctx)
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	var out []models.DigitalService
	if err := q.Order("price_points ASC").Order("name ASC").Find(&out).Error; err != nil {
		return nil, translate(err, "services", "")
	}
	return out, nil
}

func (g *Gateway) GetService(ctx context.Context, id string) (*models.DigitalService, error) {
	var s models.DigitalService
	if err := g.DB.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err, "service", id)
	}
	return &s, nil
}

func (g *Gateway) InsertService(ctx context.Context, s *models.DigitalService) error {
	return translate(g.DB.WithContext(ctx).Create(s).Error, "service", s.Slug)
}

func (g *Gateway) UpdateService(ctx context.Context, id string, updates map[string]any) (*models.DigitalService, error) {
	res := g.DB.WithContext(ctx).Model(&models.DigitalService{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, translate(res.Error, "service", id)
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("service", id)
	}
	return g.GetService(ctx, id)
}

// PurchaseService is the purchase_service procedure: the balance check and
// the deduction happen under one lock on the buyer's profile.
func (g *Gateway) PurchaseService(ctx context.Context, userID, serviceID, note string) (*models.ServiceOrder, error) {
	var order models.ServiceOrder
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var svc models.DigitalService
		if err := tx.First(&svc, "id = ?", serviceID).Error; err != nil {
			return translate(err, "service", serviceID)
		}
		if !svc.Active {
			return apperror.Conflict("service " + svc.Name + " is not available")
		}

		var buyer models.Profile
		if err := tx.Clauses(forUpdate()).First(&buyer, "id = ?", userID).Error; err != nil {
			return translate(err, "profile", userID)
		}
		if buyer.Points < svc.PricePoints {
			return apperror.InsufficientPoints(buyer.Points, svc.PricePoints)
		}

		if err := tx.Model(&buyer).Update("points", gorm.Expr("points - ?", svc.PricePoints)).Error; err != nil {
			return err
		}
		order = models.ServiceOrder{
			UserID:      userID,
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			PointsSpent: svc.PricePoints,
			Status:      models.OrderPending,
			Note:        note,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return notify(tx, userID, "Order placed",
			fmt.Sprintf("You purchased %s for %d Spark Points.", svc.Name, svc.PricePoints),
			models.NotificationSuccess)
	})
	if err != nil {
		return nil, translate(err, "service order", serviceID)
	}
	return &order, nil
}

func (g *Gateway) ListOrders(ctx context.Context, userID string) ([]models.ServiceOrder, error) {
	var out []models.ServiceOrder
	if err := g.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, translate(err, "service orders", userID)
	}
	return out, nil
}
