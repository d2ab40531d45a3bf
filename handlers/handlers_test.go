package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mpa-platform/apperror"
	"mpa-platform/functions"
	"mpa-platform/middleware"
	"mpa-platform/models"
	"mpa-platform/services"
	"mpa-platform/session"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-secret"

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// memStore is an in-memory stand-in for the gateway, covering the
// construction, referral, report, profile and admin stores.
type memStore struct {
	mu        sync.Mutex
	profiles  map[string]*models.Profile
	admins    map[string]bool
	settings  models.SiteSettings
	phases    []models.ConstructionPhase
	reportErr error
	bonusErr  error
	notified  int
}

func newMemStore() *memStore {
	return &memStore{
		profiles: map[string]*models.Profile{},
		admins:   map[string]bool{},
		settings: models.SiteSettings{ID: models.SiteSettingsID, ConstructionMode: true, ConstructionProgress: 35},
		phases: []models.ConstructionPhase{
			{ID: "p1", Name: "Planning", ProgressStart: 0, ProgressEnd: 20, Status: models.PhaseCompleted},
			{ID: "p2", Name: "Build", ProgressStart: 20, ProgressEnd: 60, Status: models.PhaseInProgress},
			{ID: "p3", Name: "Launch", ProgressStart: 60, ProgressEnd: 100, Status: models.PhasePending},
		},
	}
}

func (m *memStore) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, apperror.NotFound("profile", id)
	}
	out := *p
	return &out, nil
}

func (m *memStore) FindProfileByReferralCode(_ context.Context, code string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.ReferralCode != nil && *p.ReferralCode == code {
			out := *p
			return &out, nil
		}
	}
	return nil, apperror.NotFound("profile", code)
}

func (m *memStore) InsertProfile(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; ok {
		return apperror.Conflict("profile exists")
	}
	stored := *p
	m.profiles[p.ID] = &stored
	return nil
}

func (m *memStore) AssignCodes(_ context.Context, id, referralCode, mpaID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.profiles[id]
	p.ReferralCode, p.MPAID = &referralCode, &mpaID
	out := *p
	return &out, nil
}

func (m *memStore) UpdateProfile(_ context.Context, id string, _ map[string]any) (*models.Profile, error) {
	return m.GetProfile(context.Background(), id)
}

func (m *memStore) InsertNotification(context.Context, *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified++
	return nil
}

func (m *memStore) ProcessReferralBonus(_ context.Context, referredID, code string, bonus int64) (*models.Referral, error) {
	if m.bonusErr != nil {
		return nil, m.bonusErr
	}
	return &models.Referral{ReferrerID: "someone", ReferredID: referredID, CodeUsed: code, Status: models.ReferralCompleted, BonusAmount: bonus}, nil
}

func (m *memStore) ListReferrals(context.Context, string) ([]models.Referral, error) {
	return []models.Referral{}, nil
}

func (m *memStore) ReferralStats(context.Context, string) (*models.ReferralStats, error) {
	return &models.ReferralStats{}, nil
}

func (m *memStore) GetSiteSettings(context.Context) (*models.SiteSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.settings
	return &out, nil
}

func (m *memStore) ListPhases(context.Context) ([]models.ConstructionPhase, error) {
	return m.phases, nil
}

func (m *memStore) SetPhaseStatus(_ context.Context, id string, status models.PhaseStatus, _ time.Time) (*models.ConstructionPhase, error) {
	for i := range m.phases {
		if m.phases[i].ID == id {
			if !m.phases[i].Status.CanAdvanceTo(status) {
				return nil, apperror.Conflict("bad transition")
			}
			m.phases[i].Status = status
			out := m.phases[i]
			return &out, nil
		}
	}
	return nil, apperror.NotFound("phase", id)
}

func (m *memStore) UpdateConstructionProgress(_ context.Context, progress int) (*models.SiteSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.ConstructionProgress = progress
	out := m.settings
	return &out, nil
}

func (m *memStore) ToggleConstructionMode(_ context.Context, enabled bool) (*models.SiteSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.ConstructionMode = enabled
	out := m.settings
	return &out, nil
}

func (m *memStore) SubmitErrorReport(_ context.Context, r *models.ErrorReport, _ int, _ time.Time) error {
	if m.reportErr != nil {
		return m.reportErr
	}
	r.ID = "r1"
	return nil
}

func (m *memStore) CountErrorReportsSince(context.Context, string, time.Time) (int64, error) {
	return 2, nil
}

func (m *memStore) ListErrorReports(context.Context, string, models.ErrorReportStatus, int, int) ([]models.ErrorReport, error) {
	return []models.ErrorReport{}, nil
}

func (m *memStore) ResolveErrorReport(_ context.Context, id string) (*models.ErrorReport, error) {
	return &models.ErrorReport{ID: id, Status: models.ReportResolved}, nil
}

func (m *memStore) IsUserAdmin(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.admins[userID], nil
}

func (m *memStore) ListProfiles(context.Context, string, int, int) ([]models.Profile, int64, error) {
	return []models.Profile{}, 0, nil
}

func (m *memStore) AdjustPoints(ctx context.Context, id string, _ int64, _ string) (*models.Profile, error) {
	return m.GetProfile(ctx, id)
}

func (m *memStore) PromoteToAdmin(_ context.Context, email string) (*models.Profile, error) {
	return nil, apperror.NotFound("profile", email)
}

func (m *memStore) DeleteAllUsers(context.Context) (int64, error) {
	return 0, nil
}

type testEnv struct {
	app      *fiber.App
	store    *memStore
	sessions *session.Manager
}

func newTestEnv(t *testing.T, ping func(context.Context) error, gates ...fiber.Handler) *testEnv {
	t.Helper()
	store := newMemStore()
	sessions := session.NewManager(quiet)
	fn := functions.NewClient("", "", time.Second, quiet)

	app := fiber.New()
	for _, g := range gates {
		app.Use(g)
	}
	Setup(app, Deps{
		Construction: services.NewConstructionService(store, false, quiet),
		Referrals:    services.NewReferralService(store, 50, quiet),
		Profiles:     services.NewProfileService(store, nil, sessions, 100, 3, quiet),
		Reports:      services.NewReportService(store, 5, quiet),
		Admin:        services.NewAdminService(store, fn, quiet),
		Functions:    fn,
		Sessions:     sessions,
		Verifier:     middleware.NewTokenVerifier(testSecret, ""),
		Ping:         ping,
		Log:          quiet,
	})
	return &testEnv{app: app, store: store, sessions: sessions}
}

func token(t *testing.T, sub, email string) string {
	t.Helper()
	now := time.Now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	down := newTestEnv(t, func(context.Context) error { return errors.New("db down") })
	resp, _ = down.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSettingsAndPhases(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodGet, "/api/settings", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["construction_mode"])
	assert.EqualValues(t, 35, body["progress"])

	req := httptest.NewRequest(http.MethodGet, "/api/construction/phases", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var phases []struct {
		ID       string `json:"id"`
		CanStart bool   `json:"can_start"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&phases))
	require.Len(t, phases, 3)
	assert.False(t, phases[1].CanStart, "already in progress")
	assert.False(t, phases[2].CanStart, "predecessor not completed")
}

func TestMe_RequiresToken(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, body := env.do(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "missing bearer token", body["error"])
}

func TestMe_BootstrapsProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, body := env.do(t, http.MethodGet, "/api/me", token(t, "u1", "Jane.Doe@example.com"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "jane.doe", body["username"])
	assert.Equal(t, "Jane Doe", body["display_name"])
	assert.EqualValues(t, 100, body["points"])
	assert.Equal(t, "jane-doe-mpa", body["mpa_id"])
	assert.Equal(t, 1, env.store.notified, "welcome notification")
	assert.Equal(t, 1, env.sessions.Active())

	resp, _ = env.do(t, http.MethodPost, "/api/auth/signout", token(t, "u1", "Jane.Doe@example.com"), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, env.sessions.Active())
}

func TestMe_ReflectsPointsCreditedElsewhere(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := token(t, "u1", "jane@example.com")
	resp, body := env.do(t, http.MethodGet, "/api/me", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 100, body["points"])

	env.store.mu.Lock()
	env.store.profiles["u1"].Points = 150
	env.store.mu.Unlock()

	resp, body = env.do(t, http.MethodGet, "/api/me", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 150, body["points"])

	current, ok := env.sessions.Current("u1")
	require.True(t, ok)
	assert.Equal(t, int64(150), current.Profile.Points)
}

func TestNotificationStream_PassesAPIKeyGate(t *testing.T) {
	env := newTestEnv(t, nil, middleware.APIKey("platform-key", quiet, "/health"))

	resp, body := env.do(t, http.MethodGet, "/api/notifications/stream", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "missing apikey", body["error"])

	// the key gate lets the query key through and the stream's own auth answers
	resp, body = env.do(t, http.MethodGet, "/api/notifications/stream?apikey=platform-key", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "missing token in query", body["error"])

	resp, body = env.do(t, http.MethodGet, "/api/notifications/stream?apikey=platform-key&token=garbage", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid token", body["error"])

	resp, _ = env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRedeem_ErrorMessages(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := token(t, "u1", "jane@example.com")
	resp, _ := env.do(t, http.MethodGet, "/api/me", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("no such code", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/referrals/redeem", tok, fiber.Map{"code": "zzz9999"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, models.MsgReferralNoSuchCode, body["error"])
		assert.Equal(t, "code", body["field"])
	})

	t.Run("procedure message surfaces verbatim", func(t *testing.T) {
		other := "ref"
		code := "BOB1234"
		env.store.profiles[other] = &models.Profile{ID: other, ReferralCode: &code}
		env.store.bonusErr = apperror.Conflict(models.MsgReferralAlreadyUsed)

		resp, body := env.do(t, http.MethodPost, "/api/referrals/redeem", tok, fiber.Map{"code": "bob1234"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, models.MsgReferralAlreadyUsed, body["error"])
	})

	t.Run("success", func(t *testing.T) {
		env.store.bonusErr = nil
		resp, body := env.do(t, http.MethodPost, "/api/referrals/redeem", tok, fiber.Map{"code": "BOB1234"})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.EqualValues(t, 50, body["bonus_amount"])
	})
}

func TestReports_LimitMapsToTooManyRequests(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := token(t, "u1", "jane@example.com")
	report := fiber.Map{"type": "bug", "description": "broken", "contact_email": "jane@example.com"}

	resp, _ := env.do(t, http.MethodPost, "/api/reports", tok, report)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	env.store.reportErr = apperror.LimitExceeded("You can submit at most 5 reports per day. Please try again tomorrow.")
	resp, body := env.do(t, http.MethodPost, "/api/reports", tok, report)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body["error"], "at most 5 reports")

	resp, body = env.do(t, http.MethodGet, "/api/reports/quota", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, body["remaining"])
}

func TestAdmin_Gate(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := token(t, "u1", "jane@example.com")

	resp, _ := env.do(t, http.MethodPut, "/api/admin/construction/progress", tok, fiber.Map{"progress": 150})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	env.store.admins["u1"] = true
	resp, body := env.do(t, http.MethodPut, "/api/admin/construction/progress", tok, fiber.Map{"progress": 150})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 100, body["progress"])

	resp, body = env.do(t, http.MethodPost, "/api/admin/users/delete-all", tok, fiber.Map{"confirmation": "yes"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "confirmation", body["field"])

	resp, _ = env.do(t, http.MethodPost, "/api/admin/construction/phases/p1/start", tok, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "completed phase cannot restart")

	resp, _ = env.do(t, http.MethodPost, "/api/admin/construction/phases/p2/complete", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPasswordCheck(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodPost, "/api/password/check", "", fiber.Map{"password": "Str0ng!pass", "confirm": "Str0ng!pass"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])

	_, body = env.do(t, http.MethodPost, "/api/password/check", "", fiber.Map{"password": "weak", "confirm": "weak"})
	assert.Equal(t, false, body["valid"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, false, checks["length"])
	assert.Equal(t, true, checks["matches"])
}

func TestPaymentQuote(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodGet, "/api/payments/quote?amount=1000", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1050, body["points"])

	resp, _ = env.do(t, http.MethodGet, "/api/payments/quote?amount=-3", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/payments/quote?amount=10000000", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 10_500_000, body["points"])

	resp, _ = env.do(t, http.MethodGet, "/api/payments/quote?amount=10000001", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/payments/quote?amount=90000000000000000", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSendEmail_Unconfigured(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := env.do(t, http.MethodPost, "/api/auth/email", "", fiber.Map{"type": functions.EmailVerification, "email": "a@b.co"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperror.ValidationFailed("f", "bad"), fiber.StatusBadRequest},
		{apperror.Unauthorized("no"), fiber.StatusUnauthorized},
		{apperror.Forbidden("no"), fiber.StatusForbidden},
		{apperror.NotFound("x", "1"), fiber.StatusNotFound},
		{apperror.Conflict("dup"), fiber.StatusConflict},
		{apperror.InsufficientPoints(1, 2), fiber.StatusPaymentRequired},
		{apperror.LimitExceeded("slow down"), fiber.StatusTooManyRequests},
		{apperror.Remote("down"), fiber.StatusBadGateway},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}
