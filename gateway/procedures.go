package gateway

import (
	"context"

	"mpa-platform/models"

	"gorm.io/gorm"
)

// IsUserAdmin is the is_user_admin procedure. Unknown users are not admins.
func (g *Gateway) IsUserAdmin(ctx context.Context, userID string) (bool, error) {
	var n int64
	err := g.DB.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ? AND role = ?", userID, models.RoleAdmin).
		Count(&n).Error
	if err != nil {
		return false, translate(err, "profile", userID)
	}
	return n > 0, nil
}

// PromoteToAdmin sets the admin role on the profile registered under email.
func (g *Gateway) PromoteToAdmin(ctx context.Context, email string) (*models.Profile, error) {
	var out models.Profile
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).First(&out, "email = ?", email).Error; err != nil {
			return err
		}
		return tx.Model(&out).Update("role", models.RoleAdmin).Error
	})
	if err != nil {
		return nil, translate(err, "profile", email)
	}
	return &out, nil
}

// DeleteAllUsers is the delete_all_users procedure. It removes every profile
// and every row that belongs to one, and reports how many profiles went.
func (g *Gateway) DeleteAllUsers(ctx context.Context) (int64, error) {
	var deleted int64
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := func() *gorm.DB {
			return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped()
		}
		for _, dependent := range []any{
			&models.Notification{},
			&models.Referral{},
			&models.PaymentTransaction{},
			&models.PaymentMethod{},
			&models.ErrorReport{},
			&models.ServiceOrder{},
			&models.Project{},
		} {
			if err := all().Delete(dependent).Error; err != nil {
				return err
			}
		}
		res := all().Delete(&models.Profile{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, translate(err, "profiles", "")
	}
	g.log.Warn("deleted all users", "count", deleted)
	return deleted, nil
}
