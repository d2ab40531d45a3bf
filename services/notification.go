package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"mpa-platform/apperror"
	"mpa-platform/models"
)

type notificationStore interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	NotificationsSince(ctx context.Context, userID string, since time.Time) ([]models.Notification, error)
	NotificationCounts(ctx context.Context, userID string) (*models.NotificationCounts, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, userID, id string) error
	PurgeReadNotifications(ctx context.Context, cutoff time.Time) (int64, error)
}

type NotificationService struct {
	store notificationStore
	log   *slog.Logger
}

func NewNotificationService(store notificationStore, log *slog.Logger) *NotificationService {
	return &NotificationService{store: store, log: log.With("service", "notification")}
}

func (s *NotificationService) Create(ctx context.Context, n models.Notification) (*models.Notification, error) {
	n.Title = strings.TrimSpace(n.Title)
	if n.UserID == "" {
		return nil, apperror.ValidationFailed("user_id", "Recipient is required.")
	}
	if n.Title == "" {
		return nil, apperror.ValidationFailed("title", "Title is required.")
	}
	if n.Type == "" {
		n.Type = models.NotificationInfo
	}
	if !n.Type.IsValid() {
		return nil, apperror.ValidationFailed("type", "Type must be info, success, warning or error.")
	}
	n.ID = ""
	n.Read = false
	if err := s.store.InsertNotification(ctx, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = 50
	}
	return s.store.ListNotifications(ctx, userID, unreadOnly, limit)
}

func (s *NotificationService) Since(ctx context.Context, userID string, since time.Time) ([]models.Notification, error) {
	return s.store.NotificationsSince(ctx, userID, since)
}

func (s *NotificationService) Counts(ctx context.Context, userID string) (*models.NotificationCounts, error) {
	return s.store.NotificationCounts(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.store.MarkNotificationRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllNotificationsRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteNotification(ctx, userID, id)
}

// Cleanup deletes read notifications older than retention.
func (s *NotificationService) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.store.PurgeReadNotifications(ctx, time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("purged read notifications", "count", n)
	}
	return n, nil
}
