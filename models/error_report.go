package models

type ErrorReportType string

const (
	ReportPayment ErrorReportType = "payment"
	ReportBug     ErrorReportType = "bug"
	ReportAccount ErrorReportType = "account"
	ReportOther   ErrorReportType = "other"
)

func (t ErrorReportType) IsValid() bool {
	switch t {
	case ReportPayment, ReportBug, ReportAccount, ReportOther:
		return true
	}
	return false
}

type ErrorReportStatus string

const (
	ReportOpen     ErrorReportStatus = "open"
	ReportResolved ErrorReportStatus = "resolved"
)

type ErrorReport struct {
	ID             string            `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID         string            `gorm:"type:uuid;index;not null" json:"user_id"`
	Type           ErrorReportType   `gorm:"type:varchar(16);not null" json:"type"`
	TransactionRef *string           `json:"transaction_ref,omitempty"`
	Description    string            `gorm:"type:text;not null" json:"description"`
	ContactEmail   string            `gorm:"not null" json:"contact_email"`
	Status         ErrorReportStatus `gorm:"type:varchar(16);not null;default:'open'" json:"status"`

	Timestamps
}
