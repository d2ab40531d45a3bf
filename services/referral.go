package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"mpa-platform/apperror"
	"mpa-platform/models"
)

type referralStore interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	FindProfileByReferralCode(ctx context.Context, code string) (*models.Profile, error)
	ProcessReferralBonus(ctx context.Context, referredID, code string, bonus int64) (*models.Referral, error)
	ListReferrals(ctx context.Context, referrerID string) ([]models.Referral, error)
	ReferralStats(ctx context.Context, referrerID string) (*models.ReferralStats, error)
}

type ReferralService struct {
	store referralStore
	bonus int64
	log   *slog.Logger
}

func NewReferralService(store referralStore, bonus int64, log *slog.Logger) *ReferralService {
	return &ReferralService{store: store, bonus: bonus, log: log.With("service", "referral")}
}

// NormalizeCode uppercases and trims a user-typed referral code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Redeem applies code for userID. Already-referred, unknown-code and
// own-code cases are rejected before the bonus procedure is called; the
// procedure re-checks all three under lock.
func (s *ReferralService) Redeem(ctx context.Context, userID, code string) (*models.Referral, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, apperror.ValidationFailed("code", "Please enter a referral code.")
	}

	caller, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if caller.ReferredBy != nil && *caller.ReferredBy != "" {
		return nil, apperror.Conflict(models.MsgReferralAlreadyUsed)
	}
	if caller.ReferralCode != nil && *caller.ReferralCode == code {
		return nil, apperror.Forbidden(models.MsgReferralSelf)
	}

	referrer, err := s.store.FindProfileByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: models.MsgReferralNoSuchCode, Field: "code"}
		}
		return nil, err
	}
	if referrer.ID == caller.ID {
		return nil, apperror.Forbidden(models.MsgReferralSelf)
	}

	ref, err := s.store.ProcessReferralBonus(ctx, userID, code, s.bonus)
	if err != nil {
		s.log.Warn("referral bonus rejected", "user_id", userID, "code", code, "error", err)
		return nil, err
	}
	s.log.Info("referral redeemed", "referrer_id", ref.ReferrerID, "referred_id", ref.ReferredID, "bonus", ref.BonusAmount)
	return ref, nil
}

func (s *ReferralService) Stats(ctx context.Context, userID string) (*models.ReferralStats, error) {
	return s.store.ReferralStats(ctx, userID)
}

func (s *ReferralService) List(ctx context.Context, userID string) ([]models.Referral, error) {
	return s.store.ListReferrals(ctx, userID)
}
