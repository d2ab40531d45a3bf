package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"mpa-platform/functions"
	"mpa-platform/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// storeMock implements every store interface the services depend on. A nil
// Func panics when called, so tests only wire what they expect.
type storeMock struct {
	GetProfileFunc                 func(ctx context.Context, id string) (*models.Profile, error)
	FindProfileByReferralCodeFunc  func(ctx context.Context, code string) (*models.Profile, error)
	InsertProfileFunc              func(ctx context.Context, p *models.Profile) error
	AssignCodesFunc                func(ctx context.Context, id, referralCode, mpaID string) (*models.Profile, error)
	UpdateProfileFunc              func(ctx context.Context, id string, updates map[string]any) (*models.Profile, error)
	ListProfilesFunc               func(ctx context.Context, search string, limit, offset int) ([]models.Profile, int64, error)
	AdjustPointsFunc               func(ctx context.Context, id string, delta int64, reason string) (*models.Profile, error)
	PromoteToAdminFunc             func(ctx context.Context, email string) (*models.Profile, error)
	IsUserAdminFunc                func(ctx context.Context, userID string) (bool, error)
	DeleteAllUsersFunc             func(ctx context.Context) (int64, error)
	ProcessReferralBonusFunc       func(ctx context.Context, referredID, code string, bonus int64) (*models.Referral, error)
	ListReferralsFunc              func(ctx context.Context, referrerID string) ([]models.Referral, error)
	ReferralStatsFunc              func(ctx context.Context, referrerID string) (*models.ReferralStats, error)
	GetSiteSettingsFunc            func(ctx context.Context) (*models.SiteSettings, error)
	ListPhasesFunc                 func(ctx context.Context) ([]models.ConstructionPhase, error)
	SetPhaseStatusFunc             func(ctx context.Context, id string, status models.PhaseStatus, at time.Time) (*models.ConstructionPhase, error)
	UpdateConstructionProgressFunc func(ctx context.Context, progress int) (*models.SiteSettings, error)
	ToggleConstructionModeFunc     func(ctx context.Context, enabled bool) (*models.SiteSettings, error)
	InsertNotificationFunc         func(ctx context.Context, n *models.Notification) error
	InsertTransactionFunc          func(ctx context.Context, t *models.PaymentTransaction) error
	InsertPaymentMethodFunc        func(ctx context.Context, m *models.PaymentMethod) error
	SubmitErrorReportFunc          func(ctx context.Context, r *models.ErrorReport, limit int, dayStart time.Time) error
	CountErrorReportsSinceFunc     func(ctx context.Context, userID string, since time.Time) (int64, error)
	ListPublishedProjectsFunc      func(ctx context.Context, limit, offset int) ([]models.Project, int64, error)
	GetProjectFunc                 func(ctx context.Context, id string) (*models.Project, error)
	InsertProjectFunc              func(ctx context.Context, p *models.Project) error
	InsertServiceFunc              func(ctx context.Context, s *models.DigitalService) error
	UpdateServiceFunc              func(ctx context.Context, id string, updates map[string]any) (*models.DigitalService, error)
	PurchaseServiceFunc            func(ctx context.Context, userID, serviceID, note string) (*models.ServiceOrder, error)
	ListTransactionsFunc           func(ctx context.Context, userID string) ([]models.PaymentTransaction, error)
	ListTransactionsByStatusFunc   func(ctx context.Context, status models.PaymentStatus, limit, offset int) ([]models.PaymentTransaction, error)
	ListPendingOlderThanFunc       func(ctx context.Context, cutoff time.Time) ([]models.PaymentTransaction, error)
	ListPaymentMethodsFunc         func(ctx context.Context, userID string) ([]models.PaymentMethod, error)
	VerifyPaymentFunc              func(ctx context.Context, txID, adminID string) (*models.PaymentTransaction, error)
	RejectPaymentFunc              func(ctx context.Context, txID, adminID, reason string) (*models.PaymentTransaction, error)
	ListNotificationsFunc          func(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	NotificationsSinceFunc         func(ctx context.Context, userID string, since time.Time) ([]models.Notification, error)
	NotificationCountsFunc         func(ctx context.Context, userID string) (*models.NotificationCounts, error)
	MarkNotificationReadFunc       func(ctx context.Context, userID, id string) error
	MarkAllNotificationsReadFunc   func(ctx context.Context, userID string) (int64, error)
	DeleteNotificationFunc         func(ctx context.Context, userID, id string) error
	PurgeReadNotificationsFunc     func(ctx context.Context, cutoff time.Time) (int64, error)
	ListErrorReportsFunc           func(ctx context.Context, userID string, status models.ErrorReportStatus, limit, offset int) ([]models.ErrorReport, error)
	ResolveErrorReportFunc         func(ctx context.Context, id string) (*models.ErrorReport, error)
	DeleteProjectFunc              func(ctx context.Context, ownerID, id string) error
	ListServicesFunc               func(ctx context.Context, includeInactive bool) ([]models.DigitalService, error)
	GetServiceFunc                 func(ctx context.Context, id string) (*models.DigitalService, error)
	ListOrdersFunc                 func(ctx context.Context, userID string) ([]models.ServiceOrder, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *storeMock) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

func (m *storeMock) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func missing(name string) {
	panic("storeMock." + name + "Func: method is nil but was just called")
}

func (m *storeMock) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	m.record("GetProfile")
	if m.GetProfileFunc == nil {
		missing("GetProfile")
	}
	return m.GetProfileFunc(ctx, id)
}

func (m *storeMock) FindProfileByReferralCode(ctx context.Context, code string) (*models.Profile, error) {
	m.record("FindProfileByReferralCode")
	if m.FindProfileByReferralCodeFunc == nil {
		missing("FindProfileByReferralCode")
	}
	return m.FindProfileByReferralCodeFunc(ctx, code)
}

func (m *storeMock) InsertProfile(ctx context.Context, p *models.Profile) error {
	m.record("InsertProfile")
	if m.InsertProfileFunc == nil {
		missing("InsertProfile")
	}
	return m.InsertProfileFunc(ctx, p)
}

func (m *storeMock) AssignCodes(ctx context.Context, id, referralCode, mpaID string) (*models.Profile, error) {
	m.record("AssignCodes")
	if m.AssignCodesFunc == nil {
		missing("AssignCodes")
	}
	return m.AssignCodesFunc(ctx, id, referralCode, mpaID)
}

func (m *storeMock) UpdateProfile(ctx context.Context, id string, updates map[string]any) (*models.Profile, error) {
	m.record("UpdateProfile")
	if m.UpdateProfileFunc == nil {
		missing("UpdateProfile")
	}
	return m.UpdateProfileFunc(ctx, id, updates)
}

func (m *storeMock) ListProfiles(ctx context.Context, search string, limit, offset int) ([]models.Profile, int64, error) {
	m.record("ListProfiles")
	if m.ListProfilesFunc == nil {
		missing("ListProfiles")
	}
	return m.ListProfilesFunc(ctx, search, limit, offset)
}

func (m *storeMock) AdjustPoints(ctx context.Context, id string, delta int64, reason string) (*models.Profile, error) {
	m.record("AdjustPoints")
	if m.AdjustPointsFunc == nil {
		missing("AdjustPoints")
	}
	return m.AdjustPointsFunc(ctx, id, delta, reason)
}

func (m *storeMock) PromoteToAdmin(ctx context.Context, email string) (*models.Profile, error) {
	m.record("PromoteToAdmin")
	if m.PromoteToAdminFunc == nil {
		missing("PromoteToAdmin")
	}
	return m.PromoteToAdminFunc(ctx, email)
}

func (m *storeMock) IsUserAdmin(ctx context.Context, userID string) (bool, error) {
	m.record("IsUserAdmin")
	if m.IsUserAdminFunc == nil {
		missing("IsUserAdmin")
	}
	return m.IsUserAdminFunc(ctx, userID)
}

func (m *storeMock) DeleteAllUsers(ctx context.Context) (int64, error) {
	m.record("DeleteAllUsers")
	if m.DeleteAllUsersFunc == nil {
		missing("DeleteAllUsers")
	}
	return m.DeleteAllUsersFunc(ctx)
}

func (m *storeMock) ProcessReferralBonus(ctx context.Context, referredID, code string, bonus int64) (*models.Referral, error) {
	m.record("ProcessReferralBonus")
	if m.ProcessReferralBonusFunc == nil {
		missing("ProcessReferralBonus")
	}
	return m.ProcessReferralBonusFunc(ctx, referredID, code, bonus)
}

func (m *storeMock) ListReferrals(ctx context.Context, referrerID string) ([]models.Referral, error) {
	m.record("ListReferrals")
	if m.ListReferralsFunc == nil {
		missing("ListReferrals")
	}
	return m.ListReferralsFunc(ctx, referrerID)
}

func (m *storeMock) ReferralStats(ctx context.Context, referrerID string) (*models.ReferralStats, error) {
	m.record("ReferralStats")
	if m.ReferralStatsFunc == nil {
		missing("ReferralStats")
	}
	return m.ReferralStatsFunc(ctx, referrerID)
}

func (m *storeMock) GetSiteSettings(ctx context.Context) (*models.SiteSettings, error) {
	m.record("GetSiteSettings")
	if m.GetSiteSettingsFunc == nil {
		missing("GetSiteSettings")
	}
	return m.GetSiteSettingsFunc(ctx)
}

func (m *storeMock) ListPhases(ctx context.Context) ([]models.ConstructionPhase, error) {
	m.record("ListPhases")
	if m.ListPhasesFunc == nil {
		missing("ListPhases")
	}
	return m.ListPhasesFunc(ctx)
}

func (m *storeMock) SetPhaseStatus(ctx context.Context, id string, status models.PhaseStatus, at time.Time) (*models.ConstructionPhase, error) {
	m.record("SetPhaseStatus")
	if m.SetPhaseStatusFunc == nil {
		missing("SetPhaseStatus")
	}
	return m.SetPhaseStatusFunc(ctx, id, status, at)
}

func (m *storeMock) UpdateConstructionProgress(ctx context.Context, progress int) (*models.SiteSettings, error) {
	m.record("UpdateConstructionProgress")
	if m.UpdateConstructionProgressFunc == nil {
		missing("UpdateConstructionProgress")
	}
	return m.UpdateConstructionProgressFunc(ctx, progress)
}

func (m *storeMock) ToggleConstructionMode(ctx context.Context, enabled bool) (*models.SiteSettings, error) {
	m.record("ToggleConstructionMode")
	if m.ToggleConstructionModeFunc == nil {
		missing("ToggleConstructionMode")
	}
	return m.ToggleConstructionModeFunc(ctx, enabled)
}

func (m *storeMock) InsertNotification(ctx context.Context, n *models.Notification) error {
	m.record("InsertNotification")
	if m.InsertNotificationFunc == nil {
		missing("InsertNotification")
	}
	return m.InsertNotificationFunc(ctx, n)
}

func (m *storeMock) InsertTransaction(ctx context.Context, t *models.PaymentTransaction) error {
	m.record("InsertTransaction")
	if m.InsertTransactionFunc == nil {
		missing("InsertTransaction")
	}
	return m.InsertTransactionFunc(ctx, t)
}

func (m *storeMock) InsertPaymentMethod(ctx context.Context, pm *models.PaymentMethod) error {
	m.record("InsertPaymentMethod")
	if m.InsertPaymentMethodFunc == nil {
		missing("InsertPaymentMethod")
	}
	return m.InsertPaymentMethodFunc(ctx, pm)
}

func (m *storeMock) SubmitErrorReport(ctx context.Context, r *models.ErrorReport, limit int, dayStart time.Time) error {
	m.record("SubmitErrorReport")
	if m.SubmitErrorReportFunc == nil {
		missing("SubmitErrorReport")
	}
	return m.SubmitErrorReportFunc(ctx, r, limit, dayStart)
}

func (m *storeMock) CountErrorReportsSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	m.record("CountErrorReportsSince")
	if m.CountErrorReportsSinceFunc == nil {
		missing("CountErrorReportsSince")
	}
	return m.CountErrorReportsSinceFunc(ctx, userID, since)
}

func (m *storeMock) ListPublishedProjects(ctx context.Context, limit, offset int) ([]models.Project, int64, error) {
	m.record("ListPublishedProjects")
	if m.ListPublishedProjectsFunc == nil {
		missing("ListPublishedProjects")
	}
	return m.ListPublishedProjectsFunc(ctx, limit, offset)
}

func (m *storeMock) GetProject(ctx context.Context, id string) (*models.Project, error) {
	m.record("GetProject")
	if m.GetProjectFunc == nil {
		missing("GetProject")
	}
	return m.GetProjectFunc(ctx, id)
}

func (m *storeMock) InsertProject(ctx context.Context, p *models.Project) error {
	m.record("InsertProject")
	if m.InsertProjectFunc == nil {
		missing("InsertProject")
	}
	return m.InsertProjectFunc(ctx, p)
}

func (m *storeMock) InsertService(ctx context.Context, s *models.DigitalService) error {
	m.record("InsertService")
	if m.InsertServiceFunc == nil {
		missing("InsertService")
	}
	return m.InsertServiceFunc(ctx, s)
}

func (m *storeMock) UpdateService(ctx context.Context, id string, updates map[string]any) (*models.DigitalService, error) {
	m.record("UpdateService")
	if m.UpdateServiceFunc == nil {
		missing("UpdateService")
	}
	return m.UpdateServiceFunc(ctx, id, updates)
}

func (m *storeMock) PurchaseService(ctx context.Context, userID, serviceID, note string) (*models.ServiceOrder, error) {
	m.record("PurchaseService")
	if m.PurchaseServiceFunc == nil {
		missing("PurchaseService")
	}
	return m.PurchaseServiceFunc(ctx, userID, serviceID, note)
}

func (m *storeMock) ListTransactions(ctx context.Context, userID string) ([]models.PaymentTransaction, error) {
	m.record("ListTransactions")
	if m.ListTransactionsFunc == nil {
		missing("ListTransactions")
	}
	return m.ListTransactionsFunc(ctx, userID)
}

func (m *storeMock) ListTransactionsByStatus(ctx context.Context, status models.PaymentStatus, limit, offset int) ([]models.PaymentTransaction, error) {
	m.record("ListTransactionsByStatus")
	if m.ListTransactionsByStatusFunc == nil {
		missing("ListTransactionsByStatus")
	}
	return m.ListTransactionsByStatusFunc(ctx, status, limit, offset)
}

func (m *storeMock) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.PaymentTransaction, error) {
	m.record("ListPendingOlderThan")
	if m.ListPendingOlderThanFunc == nil {
		missing("ListPendingOlderThan")
	}
	return m.ListPendingOlderThanFunc(ctx, cutoff)
}

func (m *storeMock) ListPaymentMethods(ctx context.Context, userID string) ([]models.PaymentMethod, error) {
	m.record("ListPaymentMethods")
	if m.ListPaymentMethodsFunc == nil {
		missing("ListPaymentMethods")
	}
	return m.ListPaymentMethodsFunc(ctx, userID)
}

func (m *storeMock) VerifyPayment(ctx context.Context, txID, adminID string) (*models.PaymentTransaction, error) {
	m.record("VerifyPayment")
	if m.VerifyPaymentFunc == nil {
		missing("VerifyPayment")
	}
	return m.VerifyPaymentFunc(ctx, txID, adminID)
}

func (m *storeMock) RejectPayment(ctx context.Context, txID, adminID, reason string) (*models.PaymentTransaction, error) {
	m.record("RejectPayment")
	if m.RejectPaymentFunc == nil {
		missing("RejectPayment")
	}
	return m.RejectPaymentFunc(ctx, txID, adminID, reason)
}

func (m *storeMock) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	m.record("ListNotifications")
	if m.ListNotificationsFunc == nil {
		missing("ListNotifications")
	}
	return m.ListNotificationsFunc(ctx, userID, unreadOnly, limit)
}

func (m *storeMock) NotificationsSince(ctx context.Context, userID string, since time.Time) ([]models.Notification, error) {
	m.record("NotificationsSince")
	if m.NotificationsSinceFunc == nil {
		missing("NotificationsSince")
	}
	return m.NotificationsSinceFunc(ctx, userID, since)
}

func (m *storeMock) NotificationCounts(ctx context.Context, userID string) (*models.NotificationCounts, error) {
	m.record("NotificationCounts")
	if m.NotificationCountsFunc == nil {
		missing("NotificationCounts")
	}
	return m.NotificationCountsFunc(ctx, userID)
}

func (m *storeMock) MarkNotificationRead(ctx context.Context, userID, id string) error {
	m.record("MarkNotificationRead")
	if m.MarkNotificationReadFunc == nil {
		missing("MarkNotificationRead")
	}
	return m.MarkNotificationReadFunc(ctx, userID, id)
}

func (m *storeMock) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	m.record("MarkAllNotificationsRead")
	if m.MarkAllNotificationsReadFunc == nil {
		missing("MarkAllNotificationsRead")
	}
	return m.MarkAllNotificationsReadFunc(ctx, userID)
}

func (m *storeMock) DeleteNotification(ctx context.Context, userID, id string) error {
	m.record("DeleteNotification")
	if m.DeleteNotificationFunc == nil {
		missing("DeleteNotification")
	}
	return m.DeleteNotificationFunc(ctx, userID, id)
}

func (m *storeMock) PurgeReadNotifications(ctx context.Context, cutoff time.Time) (int64, error) {
	m.record("PurgeReadNotifications")
	if m.PurgeReadNotificationsFunc == nil {
		missing("PurgeReadNotifications")
	}
	return m.PurgeReadNotificationsFunc(ctx, cutoff)
}

func (m *storeMock) ListErrorReports(ctx context.Context, userID string, status models.ErrorReportStatus, limit, offset int) ([]models.ErrorReport, error) {
	m.record("ListErrorReports")
	if m.ListErrorReportsFunc == nil {
		missing("ListErrorReports")
	}
	return m.ListErrorReportsFunc(ctx, userID, status, limit, offset)
}

func (m *storeMock) ResolveErrorReport(ctx context.Context, id string) (*models.ErrorReport, error) {
	m.record("ResolveErrorReport")
	if m.ResolveErrorReportFunc == nil {
		missing("ResolveErrorReport")
	}
	return m.ResolveErrorReportFunc(ctx, id)
}

func (m *storeMock) DeleteProject(ctx context.Context, ownerID, id string) error {
	m.record("DeleteProject")
	if m.DeleteProjectFunc == nil {
		missing("DeleteProject")
	}
	return m.DeleteProjectFunc(ctx, ownerID, id)
}

func (m *storeMock) ListServices(ctx context.Context, includeInactive bool) ([]models.DigitalService, error) {
	m.record("ListServices")
	if m.ListServicesFunc == nil {
		missing("ListServices")
	}
	return m.ListServicesFunc(ctx, includeInactive)
}

func (m *storeMock) GetService(ctx context.Context, id string) (*models.DigitalService, error) {
	m.record("GetService")
	if m.GetServiceFunc == nil {
		missing("GetService")
	}
	return m.GetServiceFunc(ctx, id)
}

func (m *storeMock) ListOrders(ctx context.Context, userID string) ([]models.ServiceOrder, error) {
	m.record("ListOrders")
	if m.ListOrdersFunc == nil {
		missing("ListOrders")
	}
	return m.ListOrdersFunc(ctx, userID)
}

// storageMock records uploads.
type storageMock struct {
	UploadFunc func(ctx context.Context, key, contentType string, body []byte) (string, error)
	keys       []string
}

func (s *storageMock) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	s.keys = append(s.keys, key)
	if s.UploadFunc == nil {
		return "https://cdn.example.com/" + key, nil
	}
	return s.UploadFunc(ctx, key, contentType, body)
}

type functionsMock struct {
	configured          bool
	AdminOperationFunc  func(ctx context.Context, req functions.AdminRequest) (*functions.AdminResponse, error)
	adminOperationCalls []functions.AdminRequest
}

func (f *functionsMock) Configured() bool { return f.configured }

func (f *functionsMock) AdminOperation(ctx context.Context, req functions.AdminRequest) (*functions.AdminResponse, error) {
	f.adminOperationCalls = append(f.adminOperationCalls, req)
	if f.AdminOperationFunc == nil {
		return &functions.AdminResponse{Success: true}, nil
	}
	return f.AdminOperationFunc(ctx, req)
}
