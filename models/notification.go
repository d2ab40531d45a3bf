package models

import "time"

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError:
		return true
	}
	return false
}

type Notification struct {
	ID        string           `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string           `gorm:"type:uuid;index;not null" json:"user_id"`
	Title     string           `gorm:"not null" json:"title"`
	Message   string           `gorm:"type:text" json:"message"`
	Type      NotificationType `gorm:"type:varchar(16);not null;default:'info'" json:"type"`
	Read      bool             `gorm:"not null;default:false;index" json:"read"`
	CreatedAt time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
}

// NotificationCounts is polled by clients for the bell badge.
type NotificationCounts struct {
	Total  int64 `json:"total_count"`
	Unread int64 `json:"unread_count"`
}
