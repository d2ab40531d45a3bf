package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mpa-platform/apperror"
	"mpa-platform/functions"
	"mpa-platform/models"
)

// DeleteAllConfirmation must be sent verbatim to wipe every account.
const DeleteAllConfirmation = "DELETE ALL USERS"

type adminStore interface {
	IsUserAdmin(ctx context.Context, userID string) (bool, error)
	ListProfiles(ctx context.Context, search string, limit, offset int) ([]models.Profile, int64, error)
	AdjustPoints(ctx context.Context, id string, delta int64, reason string) (*models.Profile, error)
	PromoteToAdmin(ctx context.Context, email string) (*models.Profile, error)
	DeleteAllUsers(ctx context.Context) (int64, error)
}

type adminFunctions interface {
	Configured() bool
	AdminOperation(ctx context.Context, req functions.AdminRequest) (*functions.AdminResponse, error)
}

type AdminService struct {
	store adminStore
	fn    adminFunctions
	log   *slog.Logger
}

func NewAdminService(store adminStore, fn adminFunctions, log *slog.Logger) *AdminService {
	return &AdminService{store: store, fn: fn, log: log.With("service", "admin")}
}

func (s *AdminService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return s.store.IsUserAdmin(ctx, userID)
}

type UserPage struct {
	Items      []models.Profile `json:"items"`
	Page       int              `json:"page"`
	Size       int              `json:"size"`
	TotalItems int64            `json:"total_items"`
	TotalPages int              `json:"total_pages"`
}

func (s *AdminService) ListUsers(ctx context.Context, search string, page Page) (*UserPage, error) {
	page = page.Normalize()
	items, total, err := s.store.ListProfiles(ctx, search, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	return &UserPage{Items: items, Page: page.Number, Size: page.Size, TotalItems: total, TotalPages: page.TotalPages(total)}, nil
}

func (s *AdminService) AdjustPoints(ctx context.Context, adminID, userID string, delta int64, reason string) (*models.Profile, error) {
	if delta == 0 {
		return nil, apperror.ValidationFailed("delta", "Point adjustment must not be zero.")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		if delta > 0 {
			reason = fmt.Sprintf("An administrator added %d Spark Points to your balance.", delta)
		} else {
			reason = fmt.Sprintf("An administrator removed %d Spark Points from your balance.", -delta)
		}
	}
	p, err := s.store.AdjustPoints(ctx, userID, delta, reason)
	if err != nil {
		return nil, err
	}
	s.log.Info("points adjusted", "admin_id", adminID, "user_id", userID, "delta", delta, "balance", p.Points)
	return p, nil
}

// CreateAdmin creates an admin account through the admin function and marks
// any existing profile for that email as admin.
func (s *AdminService) CreateAdmin(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperror.ValidationFailed("email", "Email is required.")
	}

	msg := "Admin role granted."
	if s.fn.Configured() {
		if !CheckPassword(password, password).Valid() {
			return "", apperror.ValidationFailed("password", "Password must be at least 8 characters with upper and lower case letters, a digit and a special character.")
		}
		resp, err := s.fn.AdminOperation(ctx, functions.AdminRequest{Operation: functions.OpCreateAdmin, Email: email, Password: password})
		if err != nil {
			return "", err
		}
		if resp.Message != "" {
			msg = resp.Message
		}
	}

	if _, err := s.store.PromoteToAdmin(ctx, email); err != nil {
		// the account may have no profile until its first sign-in
		if !s.fn.Configured() || !errors.Is(err, apperror.ErrNotFound) {
			return "", err
		}
	}
	s.log.Warn("admin created", "email", email)
	return msg, nil
}

// DeleteAllUsers removes every account. confirmation must equal
// DeleteAllConfirmation.
func (s *AdminService) DeleteAllUsers(ctx context.Context, adminID, confirmation string) (int64, error) {
	if confirmation != DeleteAllConfirmation {
		return 0, apperror.ValidationFailed("confirmation", fmt.Sprintf("Type %q to confirm.", DeleteAllConfirmation))
	}

	if s.fn.Configured() {
		if _, err := s.fn.AdminOperation(ctx, functions.AdminRequest{Operation: functions.OpDeleteAllUsers}); err != nil {
			return 0, err
		}
	}
	n, err := s.store.DeleteAllUsers(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Warn("all users deleted", "admin_id", adminID, "profiles", n)
	return n, nil
}
