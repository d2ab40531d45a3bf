package services

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"mpa-platform/apperror"
	"mpa-platform/models"
)

type reportStore interface {
	SubmitErrorReport(ctx context.Context, r *models.ErrorReport, limit int, dayStart time.Time) error
	CountErrorReportsSince(ctx context.Context, userID string, since time.Time) (int64, error)
	ListErrorReports(ctx context.Context, userID string, status models.ErrorReportStatus, limit, offset int) ([]models.ErrorReport, error)
	ResolveErrorReport(ctx context.Context, id string) (*models.ErrorReport, error)
}

type ReportInput struct {
	Type           models.ErrorReportType
	TransactionRef string
	Description    string
	ContactEmail   string
}

// ReportQuota is what a user may still submit today.
type ReportQuota struct {
	Limit     int   `json:"limit"`
	Used      int64 `json:"used"`
	Remaining int64 `json:"remaining"`
}

type ReportService struct {
	store reportStore
	limit int
	now   func() time.Time
	log   *slog.Logger
}

func NewReportService(store reportStore, dailyLimit int, log *slog.Logger) *ReportService {
	return &ReportService{
		store: store,
		limit: dailyLimit,
		now:   func() time.Time { return time.Now().UTC() },
		log:   log.With("service", "report"),
	}
}

func (s *ReportService) dayStart() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Submit validates the report and inserts it unless the user already hit
// today's limit. Count and insert happen in one gateway call.
func (s *ReportService) Submit(ctx context.Context, userID string, in ReportInput) (*models.ErrorReport, error) {
	in.Description = strings.TrimSpace(in.Description)
	in.ContactEmail = strings.TrimSpace(in.ContactEmail)
	in.TransactionRef = strings.TrimSpace(in.TransactionRef)

	if !in.Type.IsValid() {
		return nil, apperror.ValidationFailed("type", "Please select a report type.")
	}
	if in.Description == "" {
		return nil, apperror.ValidationFailed("description", "Please describe the problem.")
	}
	if _, err := mail.ParseAddress(in.ContactEmail); err != nil {
		return nil, apperror.ValidationFailed("contact_email", "Please enter a valid contact email.")
	}
	if in.Type == models.ReportPayment && in.TransactionRef == "" {
		return nil, apperror.ValidationFailed("transaction_ref", "Please enter the transaction reference for payment issues.")
	}

	r := &models.ErrorReport{
		UserID:       userID,
		Type:         in.Type,
		Description:  in.Description,
		ContactEmail: in.ContactEmail,
		Status:       models.ReportOpen,
	}
	if in.TransactionRef != "" {
		r.TransactionRef = &in.TransactionRef
	}

	if err := s.store.SubmitErrorReport(ctx, r, s.limit, s.dayStart()); err != nil {
		return nil, err
	}
	s.log.Info("error report submitted", "user_id", userID, "report_id", r.ID, "type", r.Type)
	return r, nil
}

func (s *ReportService) Quota(ctx context.Context, userID string) (*ReportQuota, error) {
	used, err := s.store.CountErrorReportsSince(ctx, userID, s.dayStart())
	if err != nil {
		return nil, err
	}
	remaining := int64(s.limit) - used
	if remaining < 0 {
		remaining = 0
	}
	return &ReportQuota{Limit: s.limit, Used: used, Remaining: remaining}, nil
}

func (s *ReportService) ListOwn(ctx context.Context, userID string, page Page) ([]models.ErrorReport, error) {
	return s.store.ListErrorReports(ctx, userID, "", page.Limit(), page.Offset())
}

func (s *ReportService) ListAll(ctx context.Context, status models.ErrorReportStatus, page Page) ([]models.ErrorReport, error) {
	return s.store.ListErrorReports(ctx, "", status, page.Limit(), page.Offset())
}

func (s *ReportService) Resolve(ctx context.Context, id string) (*models.ErrorReport, error) {
	return s.store.ResolveErrorReport(ctx, id)
}
