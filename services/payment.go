package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mpa-platform/apperror"
	"mpa-platform/models"
	"mpa-platform/utils"
)

type paymentStore interface {
	InsertTransaction(ctx context.Context, t *models.PaymentTransaction) error
	ListTransactions(ctx context.Context, userID string) ([]models.PaymentTransaction, error)
	ListTransactionsByStatus(ctx context.Context, status models.PaymentStatus, limit, offset int) ([]models.PaymentTransaction, error)
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.PaymentTransaction, error)
	InsertPaymentMethod(ctx context.Context, m *models.PaymentMethod) error
	ListPaymentMethods(ctx context.Context, userID string) ([]models.PaymentMethod, error)
	VerifyPayment(ctx context.Context, txID, adminID string) (*models.PaymentTransaction, error)
	RejectPayment(ctx context.Context, txID, adminID, reason string) (*models.PaymentTransaction, error)
}

// MaxPaymentAmount is the largest single claim accepted.
const MaxPaymentAmount int64 = 10_000_000

// CalculateCustomPoints converts a paid amount to points with a tier bonus:
// 5% from 1000, 4% from 500, 3% from 100, none below.
func CalculateCustomPoints(amount int64) int64 {
	var percent int64
	switch {
	case amount >= 1000:
		percent = 105
	case amount >= 500:
		percent = 104
	case amount >= 100:
		percent = 103
	default:
		return amount
	}
	// split so large amounts cannot overflow
	return amount/100*percent + amount%100*percent/100
}

type SubmitPaymentInput struct {
	Amount        int64
	Method        models.PaymentMethodType
	ReferenceID   string
	Proof         *utils.Upload
	SaveMethod    bool
	MethodLabel   string
	MethodDetails string
}

type PaymentService struct {
	store   paymentStore
	storage utils.Storage
	log     *slog.Logger
}

func NewPaymentService(store paymentStore, storage utils.Storage, log *slog.Logger) *PaymentService {
	return &PaymentService{store: store, storage: storage, log: log.With("service", "payment")}
}

// Submit records a pending claim of an offline payment for manual review.
func (s *PaymentService) Submit(ctx context.Context, userID string, in SubmitPaymentInput) (*models.PaymentTransaction, error) {
	in.ReferenceID = strings.TrimSpace(in.ReferenceID)
	switch {
	case in.Amount <= 0:
		return nil, apperror.ValidationFailed("amount", "Please enter a valid amount.")
	case in.Amount > MaxPaymentAmount:
		return nil, apperror.ValidationFailed("amount", fmt.Sprintf("Amount cannot exceed %d.", MaxPaymentAmount))
	case !in.Method.IsValid():
		return nil, apperror.ValidationFailed("payment_method", "Please select a payment method.")
	case in.ReferenceID == "":
		return nil, apperror.ValidationFailed("reference_id", "Please enter the transaction reference.")
	case in.SaveMethod && strings.TrimSpace(in.MethodDetails) == "":
		return nil, apperror.ValidationFailed("method_details", "Payment method details are required to save it.")
	}

	tx := &models.PaymentTransaction{
		UserID:             userID,
		Amount:             in.Amount,
		Points:             CalculateCustomPoints(in.Amount),
		PaymentMethod:      in.Method,
		ReferenceID:        in.ReferenceID,
		Status:             models.PaymentPending,
		VerificationStatus: models.VerificationUnverified,
	}

	if in.Proof != nil {
		url, err := s.storage.Upload(ctx, utils.ObjectKey("payment-proofs", userID, in.Proof.Filename), in.Proof.ContentType, in.Proof.Body)
		if err != nil {
			s.log.Error("failed to upload payment proof", "user_id", userID, "error", err)
			return nil, apperror.Remote("Failed to upload payment proof. Please try again.")
		}
		tx.ProofURL = &url
	}

	if err := s.store.InsertTransaction(ctx, tx); err != nil {
		return nil, err
	}

	if in.SaveMethod {
		method := &models.PaymentMethod{
			UserID:  userID,
			Type:    in.Method,
			Label:   strings.TrimSpace(in.MethodLabel),
			Details: strings.TrimSpace(in.MethodDetails),
		}
		if err := s.store.InsertPaymentMethod(ctx, method); err != nil {
			// the claim is already recorded
			s.log.Warn("failed to save payment method", "user_id", userID, "error", err)
		}
	}

	s.log.Info("payment submitted", "user_id", userID, "transaction_id", tx.ID, "amount", tx.Amount, "points", tx.Points)
	return tx, nil
}

func (s *PaymentService) ListTransactions(ctx context.Context, userID string) ([]models.PaymentTransaction, error) {
	return s.store.ListTransactions(ctx, userID)
}

func (s *PaymentService) ListPaymentMethods(ctx context.Context, userID string) ([]models.PaymentMethod, error) {
	return s.store.ListPaymentMethods(ctx, userID)
}

func (s *PaymentService) SavePaymentMethod(ctx context.Context, userID string, m models.PaymentMethod) (*models.PaymentMethod, error) {
	if !m.Type.IsValid() {
		return nil, apperror.ValidationFailed("type", "Please select a payment method.")
	}
	if strings.TrimSpace(m.Details) == "" {
		return nil, apperror.ValidationFailed("details", "Payment method details are required.")
	}
	m.ID = ""
	m.UserID = userID
	if err := s.store.InsertPaymentMethod(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Review lists transactions for the back-office queue.
func (s *PaymentService) Review(ctx context.Context, status models.PaymentStatus, page Page) ([]models.PaymentTransaction, error) {
	return s.store.ListTransactionsByStatus(ctx, status, page.Limit(), page.Offset())
}

func (s *PaymentService) Verify(ctx context.Context, txID, adminID string) (*models.PaymentTransaction, error) {
	tx, err := s.store.VerifyPayment(ctx, txID, adminID)
	if err != nil {
		return nil, err
	}
	s.log.Info("payment verified", "transaction_id", txID, "admin_id", adminID, "points", tx.Points)
	return tx, nil
}

func (s *PaymentService) Reject(ctx context.Context, txID, adminID, reason string) (*models.PaymentTransaction, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.ValidationFailed("reason", "A rejection reason is required.")
	}
	tx, err := s.store.RejectPayment(ctx, txID, adminID, reason)
	if err != nil {
		return nil, err
	}
	s.log.Info("payment rejected", "transaction_id", txID, "admin_id", adminID)
	return tx, nil
}

// StalePending returns pending claims older than age.
func (s *PaymentService) StalePending(ctx context.Context, age time.Duration) ([]models.PaymentTransaction, error) {
	return s.store.ListPendingOlderThan(ctx, time.Now().UTC().Add(-age))
}
