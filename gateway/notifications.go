package gateway

import (
	"context"
	"time"

	"mpa-platform/apperror"
	"mpa-platform/models"
)

func (g *Gateway) InsertNotification(ctx context.Context, n *models.Notification) error {
	return translate(g.DB.WithContext(ctx).Create(n).Error, "notification", n.ID)
}

// ListNotifications returns the newest notifications first.
func (g *Gateway) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	q := g.DB.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []models.Notification
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, translate(err, "notifications", userID)
	}
	return out, nil
}

// NotificationsSince feeds the event stream, oldest first.
func (g *Gateway) NotificationsSince(ctx context.Context, userID string, since time.Time) ([]models.Notification, error) {
	var out []models.Notification
	if err := g.DB.WithContext(ctx).
		Where("user_id = ? AND created_at > ?", userID, since).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, translate(err, "notifications", userID)
	}
	return out, nil
}

func (g *Gateway) NotificationCounts(ctx context.Context, userID string) (*models.NotificationCounts, error) {
	var counts models.NotificationCounts
	err := g.DB.WithContext(ctx).Model(&models.Notification{}).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE read = false) AS unread").
		Where("user_id = ?", userID).
		Scan(&counts).Error
	if err != nil {
		return nil, translate(err, "notifications", userID)
	}
	return &counts, nil
}

// MarkNotificationRead only touches rows owned by userID.
func (g *Gateway) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res := g.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return translate(res.Error, "notification", id)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("notification", id)
	}
	return nil
}

func (g *Gateway) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res := g.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return res.RowsAffected, translate(res.Error, "notifications", userID)
}

func (g *Gateway) DeleteNotification(ctx context.Context, userID, id string) error {
	res := g.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return translate(res.Error, "notification", id)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("notification", id)
	}
	return nil
}

// PurgeReadNotifications removes read notifications created before cutoff.
func (g *Gateway) PurgeReadNotifications(ctx context.Context, cutoff time.Time) (int64, error) {
	res := g.DB.WithContext(ctx).
		Where("read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, translate(res.Error, "notifications", "")
}
