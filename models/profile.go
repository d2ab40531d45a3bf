package models

// Role controls access to the admin back-office.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) IsValid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// Profile is the identity record behind every authenticated session.
// ID equals the platform auth user id (JWT subject).
type Profile struct {
	ID           string  `gorm:"primaryKey;type:uuid" json:"id"`
	Email        string  `gorm:"index" json:"email"`
	Username     string  `gorm:"index;not null" json:"username"`
	DisplayName  string  `json:"display_name"`
	AvatarURL    *string `json:"avatar_url,omitempty"`
	Role         Role    `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	Points       int64   `gorm:"not null;default:0" json:"points"`
	ReferralCode *string `gorm:"uniqueIndex" json:"referral_code,omitempty"`
	MPAID        *string `gorm:"column:mpa_id;uniqueIndex" json:"mpa_id,omitempty"`
	ReferredBy   *string `gorm:"type:uuid;index" json:"referred_by,omitempty"`
	Theme        Theme   `gorm:"type:varchar(16);not null;default:'system'" json:"theme"`

	Timestamps
}

func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// NeedsCodes reports whether the profile still lacks a referral code or MPA id.
func (p *Profile) NeedsCodes() bool {
	return p.ReferralCode == nil || *p.ReferralCode == "" || p.MPAID == nil || *p.MPAID == ""
}
