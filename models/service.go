package models

// DigitalService is a paid offering bought with Spark Points.
type DigitalService struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	PricePoints int64  `gorm:"not null" json:"price_points"`
	Active      bool   `gorm:"not null;index" json:"active"`

	Timestamps
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderFulfilled OrderStatus = "fulfilled"
)

type ServiceOrder struct {
	ID          string      `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID      string      `gorm:"type:uuid;index;not null" json:"user_id"`
	ServiceID   string      `gorm:"type:uuid;index;not null" json:"service_id"`
	ServiceName string      `json:"service_name"`
	PointsSpent int64       `gorm:"not null" json:"points_spent"`
	Status      OrderStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	Note        string      `json:"note,omitempty"`

	Timestamps
}
