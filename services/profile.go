package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"

	"mpa-platform/apperror"
	"mpa-platform/models"
	"mpa-platform/session"
	"mpa-platform/utils"

	"github.com/gosimple/slug"
	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const mpaIDSuffix = "-mpa"

type profileStore interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	InsertProfile(ctx context.Context, p *models.Profile) error
	AssignCodes(ctx context.Context, id, referralCode, mpaID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id string, updates map[string]any) (*models.Profile, error)
	InsertNotification(ctx context.Context, n *models.Notification) error
}

type ProfileService struct {
	store         profileStore
	storage       utils.Storage
	sessions      *session.Manager
	defaultPoints int64
	retries       int
	digits        func() int
	log           *slog.Logger
}

func NewProfileService(store profileStore, storage utils.Storage, sessions *session.Manager, defaultPoints int64, retries int, log *slog.Logger) *ProfileService {
	if retries < 1 {
		retries = 1
	}
	return &ProfileService{
		store:         store,
		storage:       storage,
		sessions:      sessions,
		defaultPoints: defaultPoints,
		retries:       retries,
		digits:        func() int { return rand.IntN(10000) },
		log:           log.With("service", "profile"),
	}
}

// UsernameFromEmail transliterates and lowercases the local part of email.
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	local = strings.ToLower(unidecode.Unidecode(local))

	var b strings.Builder
	for _, r := range local {
		if r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

// DisplayNameFromUsername turns "jane.doe" into "Jane Doe".
func DisplayNameFromUsername(username string) string {
	words := strings.FieldsFunc(username, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	return cases.Title(language.Und).String(strings.Join(words, " "))
}

// MPAID derives the public MPA id. Attempts after the first carry a random
// number so retries after a collision produce a fresh candidate.
func MPAID(username string, attempt, n int) string {
	base := slug.Make(username)
	if base == "" {
		base = "user"
	}
	if attempt == 0 {
		return base + mpaIDSuffix
	}
	return fmt.Sprintf("%s-%04d%s", base, n, mpaIDSuffix)
}

// ReferralCode is the first three letters of username, uppercased and padded
// with X, followed by four digits.
func ReferralCode(username string, n int) string {
	var prefix []rune
	for _, r := range strings.ToUpper(unidecode.Unidecode(username)) {
		if r >= 'A' && r <= 'Z' {
			prefix = append(prefix, r)
			if len(prefix) == 3 {
				break
			}
		}
	}
	for len(prefix) < 3 {
		prefix = append(prefix, 'X')
	}
	return fmt.Sprintf("%s%04d", string(prefix), n%10000)
}

// Ensure returns the signed-in user's current profile, bootstrapping it on
// first sight. The session keeps the last profile seen so listeners hear
// about changes made outside this process, such as a referral bonus.
func (s *ProfileService) Ensure(ctx context.Context, id session.Identity) (*models.Profile, error) {
	p, _, err := s.Bootstrap(ctx, id)
	if err != nil {
		return nil, err
	}

	prev, known := s.sessions.Current(id.UserID)
	s.sessions.SignIn(id, p)
	if known && profileChanged(prev.Profile, p) {
		s.sessions.UpdateProfile(p)
	}
	return p, nil
}

func profileChanged(a, b *models.Profile) bool {
	if a == nil || b == nil {
		return a != b
	}
	return a.Points != b.Points ||
		a.Role != b.Role ||
		a.Theme != b.Theme ||
		a.DisplayName != b.DisplayName ||
		!sameString(a.ReferredBy, b.ReferredBy) ||
		!sameString(a.AvatarURL, b.AvatarURL)
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Bootstrap makes sure a profile row exists for id and that it carries a
// referral code and MPA id. created reports whether the row was inserted.
func (s *ProfileService) Bootstrap(ctx context.Context, id session.Identity) (p *models.Profile, created bool, err error) {
	p, err = s.store.GetProfile(ctx, id.UserID)
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrNotFound):
		p, created, err = s.create(ctx, id)
		if err != nil {
			return nil, false, err
		}
	default:
		return nil, false, err
	}

	if p.NeedsCodes() {
		if p, err = s.assignCodes(ctx, p); err != nil {
			return nil, false, err
		}
	}

	if created {
		s.welcome(ctx, p)
	}
	return p, created, nil
}

// create inserts the profile together with fresh codes, retrying with new
// candidates on a unique violation.
func (s *ProfileService) create(ctx context.Context, id session.Identity) (*models.Profile, bool, error) {
	username := UsernameFromEmail(id.Email)

	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		code := ReferralCode(username, s.digits())
		mpaID := MPAID(username, attempt, s.digits())
		p := &models.Profile{
			ID:           id.UserID,
			Email:        id.Email,
			Username:     username,
			DisplayName:  DisplayNameFromUsername(username),
			Role:         models.RoleUser,
			Points:       s.defaultPoints,
			ReferralCode: &code,
			MPAID:        &mpaID,
			Theme:        models.ThemeSystem,
		}

		err := s.store.InsertProfile(ctx, p)
		if err == nil {
			s.log.Info("profile created", "user_id", p.ID, "username", username, "mpa_id", mpaID)
			return p, true, nil
		}
		if !errors.Is(err, apperror.ErrConflict) {
			return nil, false, err
		}

		// a concurrent sign-in may have inserted the same id
		if existing, getErr := s.store.GetProfile(ctx, id.UserID); getErr == nil {
			return existing, false, nil
		}
		s.log.Warn("profile code collision, retrying", "user_id", id.UserID, "attempt", attempt+1)
		lastErr = err
	}
	return nil, false, fmt.Errorf("profile bootstrap: no unique codes after %d attempts: %w", s.retries, lastErr)
}

func (s *ProfileService) assignCodes(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		updated, err := s.store.AssignCodes(ctx, p.ID, ReferralCode(p.Username, s.digits()), MPAID(p.Username, attempt, s.digits()))
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.log.Warn("code collision while assigning codes, retrying", "user_id", p.ID, "attempt", attempt+1)
		lastErr = err
	}
	return nil, fmt.Errorf("profile bootstrap: no unique codes after %d attempts: %w", s.retries, lastErr)
}

func (s *ProfileService) welcome(ctx context.Context, p *models.Profile) {
	err := s.store.InsertNotification(ctx, &models.Notification{
		UserID:  p.ID,
		Title:   "Welcome to MPA!",
		Message: fmt.Sprintf("Your account is ready and %d Spark Points have been added to your balance.", p.Points),
		Type:    models.NotificationSuccess,
	})
	if err != nil {
		s.log.Warn("failed to send welcome notification", "user_id", p.ID, "error", err)
	}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	return s.store.GetProfile(ctx, userID)
}

func (s *ProfileService) UpdateTheme(ctx context.Context, userID string, theme models.Theme) (*models.Profile, error) {
	if !theme.IsValid() {
		return nil, apperror.ValidationFailed("theme", "Theme must be light, dark or system.")
	}
	return s.update(ctx, userID, map[string]any{"theme": theme})
}

func (s *ProfileService) UpdateDisplayName(ctx context.Context, userID, name string) (*models.Profile, error) {
	name = strings.Join(strings.Fields(name), " ")
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		return nil, apperror.ValidationFailed("display_name", "Display name must be between 2 and 50 characters.")
	}
	return s.update(ctx, userID, map[string]any{"display_name": name})
}

// UploadAvatar stores an image and points the profile at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID string, file *utils.Upload) (*models.Profile, error) {
	if file == nil || !strings.HasPrefix(file.ContentType, "image/") {
		return nil, apperror.ValidationFailed("avatar", "Avatar must be an image.")
	}
	url, err := s.storage.Upload(ctx, utils.ObjectKey("avatars", userID, file.Filename), file.ContentType, file.Body)
	if err != nil {
		s.log.Error("failed to upload avatar", "user_id", userID, "error", err)
		return nil, apperror.Remote("Failed to upload avatar. Please try again.")
	}
	return s.update(ctx, userID, map[string]any{"avatar_url": url})
}

func (s *ProfileService) update(ctx context.Context, userID string, updates map[string]any) (*models.Profile, error) {
	p, err := s.store.UpdateProfile(ctx, userID, updates)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateProfile(p)
	return p, nil
}
