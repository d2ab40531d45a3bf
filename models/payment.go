package models

import "time"

type PaymentMethodType string

const (
	PaymentBankTransfer PaymentMethodType = "bank_transfer"
	PaymentUPI          PaymentMethodType = "upi"
)

func (t PaymentMethodType) IsValid() bool {
	return t == PaymentBankTransfer || t == PaymentUPI
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRejected  PaymentStatus = "rejected"
)

type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationVerified   VerificationStatus = "verified"
	VerificationRejected   VerificationStatus = "rejected"
)

// PaymentTransaction is a user's claim of an offline payment, settled by a reviewer.
type PaymentTransaction struct {
	ID                 string             `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID             string             `gorm:"type:uuid;index;not null" json:"user_id"`
	Amount             int64              `gorm:"not null" json:"amount"`
	Points             int64              `gorm:"not null" json:"points"`
	PaymentMethod      PaymentMethodType  `gorm:"type:varchar(32);not null" json:"payment_method"`
	ReferenceID        string             `gorm:"not null;index" json:"reference_id"`
	ProofURL           *string            `json:"proof_url,omitempty"`
	Status             PaymentStatus      `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	VerificationStatus VerificationStatus `gorm:"type:varchar(16);not null;default:'unverified'" json:"verification_status"`
	VerifiedBy         *string            `gorm:"type:uuid" json:"verified_by,omitempty"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty"`
	RejectionReason    string             `json:"rejection_reason,omitempty"`

	Timestamps
}

// PaymentMethod is a reusable payer detail (UPI id or bank account) saved by the user.
type PaymentMethod struct {
	ID        string            `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string            `gorm:"type:uuid;index;not null" json:"user_id"`
	Type      PaymentMethodType `gorm:"type:varchar(32);not null" json:"type"`
	Label     string            `json:"label"`
	Details   string            `gorm:"not null" json:"details"`
	IsDefault bool              `gorm:"not null;default:false" json:"is_default"`

	Timestamps
}
