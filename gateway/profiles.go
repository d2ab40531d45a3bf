package gateway

import (
	"context"
	"strings"

	"mpa-platform/apperror"
	"mpa-platform/models"

	"gorm.io/gorm"
)

func (g *Gateway) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := g.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err, "profile", id)
	}
	return &p, nil
}

func (g *Gateway) FindProfileByReferralCode(ctx context.Context, code string) (*models.Profile, error) {
	var p models.Profile
	if err := g.DB.WithContext(ctx).First(&p, "referral_code = ?", code).Error; err != nil {
		return nil, translate(err, "profile", code)
	}
	return &p, nil
}

// InsertProfile fails with apperror.ErrConflict on any unique violation
// (id, referral code or MPA id).
func (g *Gateway) InsertProfile(ctx context.Context, p *models.Profile) error {
	return translate(g.DB.WithContext(ctx).Create(p).Error, "profile", p.ID)
}

// AssignCodes sets the referral code and MPA id, each only when still empty.
func (g *Gateway) AssignCodes(ctx context.Context, id, referralCode, mpaID string) (*models.Profile, error) {
	var out models.Profile
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).First(&out, "id = ?", id).Error; err != nil {
			return err
		}
		updates := map[string]any{}
		if out.ReferralCode == nil || *out.ReferralCode == "" {
			updates["referral_code"] = referralCode
		}
		if out.MPAID == nil || *out.MPAID == "" {
			updates["mpa_id"] = mpaID
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&out).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&out, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate(err, "profile", id)
	}
	return &out, nil
}

// UpdateProfile applies a partial update of user-editable columns.
func (g *Gateway) UpdateProfile(ctx context.Context, id string, updates map[string]any) (*models.Profile, error) {
	db := g.DB.WithContext(ctx)
	res := db.Model(&models.Profile{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, translate(res.Error, "profile", id)
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("profile", id)
	}
	return g.GetProfile(ctx, id)
}

func (g *Gateway) ListProfiles(ctx context.Context, search string, limit, offset int) ([]models.Profile, int64, error) {
	scope := func() *gorm.DB {
		q := g.DB.WithContext(ctx).Model(&models.Profile{})
		if search != "" {
			term := "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
			q = q.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(mpa_id) LIKE ?", term, term, term)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, translate(err, "profiles", "")
	}

	var profiles []models.Profile
	if err := scope().Order("created_at DESC").Limit(limit).Offset(offset).Find(&profiles).Error; err != nil {
		return nil, 0, translate(err, "profiles", "")
	}
	return profiles, total, nil
}

// AdjustPoints adds delta (possibly negative) to a balance; the balance never goes below zero.
func (g *Gateway) AdjustPoints(ctx context.Context, id string, delta int64, reason string) (*models.Profile, error) {
	var out models.Profile
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).First(&out, "id = ?", id).Error; err != nil {
			return err
		}
		if out.Points+delta < 0 {
			return apperror.InsufficientPoints(out.Points, -delta)
		}
		out.Points += delta
		if err := tx.Model(&out).Update("points", out.Points).Error; err != nil {
			return err
		}
		kind := models.NotificationSuccess
		if delta < 0 {
			kind = models.NotificationWarning
		}
		return notify(tx, id, "Spark Points updated", reason, kind)
	})
	if err != nil {
		return nil, translate(err, "profile", id)
	}
	return &out, nil
}
