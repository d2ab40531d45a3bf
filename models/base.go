package models

import (
	"time"

	"gorm.io/gorm"
)

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// SoftDelete marks rows that are hidden instead of removed.
type SoftDelete struct {
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Profile{},
		&SiteSettings{},
		&ConstructionPhase{},
		&Referral{},
		&Notification{},
		&PaymentTransaction{},
		&PaymentMethod{},
		&ErrorReport{},
		&DigitalService{},
		&ServiceOrder{},
		&Project{},
	}
}
