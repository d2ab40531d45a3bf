package models

import "time"

type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "pending"
	ReferralCompleted ReferralStatus = "completed"
)

func (rs ReferralStatus) IsValid() bool {
	switch rs {
	case ReferralPending, ReferralCompleted:
		return true
	}
	return false
}

// Referral is written by the referral bonus procedure; clients only read it.
type Referral struct {
	ID          string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ReferrerID  string         `gorm:"type:uuid;index;not null" json:"referrer_id"`
	ReferredID  string         `gorm:"type:uuid;uniqueIndex;not null" json:"referred_id"`
	CodeUsed    string         `gorm:"not null" json:"code_used"`
	Status      ReferralStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	BonusAmount int64          `gorm:"not null;default:0" json:"bonus_amount"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`

	Timestamps
}

// ReferralStats summarises a referrer's activity.
type ReferralStats struct {
	Total        int64 `json:"total"`
	Completed    int64 `json:"completed"`
	Pending      int64 `json:"pending"`
	PointsEarned int64 `json:"points_earned"`
}

// Rejection messages shown verbatim to the user.
const (
	MsgReferralNoSuchCode  = "Invalid referral code. No user found with this code."
	MsgReferralAlreadyUsed = "You have already used a referral code."
	MsgReferralSelf        = "You cannot use your own referral code."
)
