package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"mpa-platform/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// setupGateway starts one shared Postgres container for the package, then
// returns a migrated gateway with every table emptied.
func setupGateway(t *testing.T) *Gateway {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in -short mode")
	}

	once.Do(func() {
		sharedDSN, initErr = startContainer()
	})
	if initErr != nil {
		t.Skipf("postgres container unavailable: %v", initErr)
	}

	gw, err := Open(sharedDSN, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })

	ctx := context.Background()
	require.NoError(t, gw.Migrate(ctx))
	require.NoError(t, gw.DB.Exec(
		"TRUNCATE notifications, referrals, payment_transactions, payment_methods, error_reports, service_orders, digital_services, projects, profiles",
	).Error)
	require.NoError(t, gw.DB.Model(&models.SiteSettings{}).Where("id = ?", models.SiteSettingsID).
		Updates(map[string]any{"construction_mode": false, "construction_progress": 0}).Error)
	require.NoError(t, gw.DB.Exec(
		"UPDATE construction_phases SET status = ?, started_at = NULL, completed_at = NULL", models.PhasePending,
	).Error)
	return gw
}

func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}
	return fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port()), nil
}

func seedProfile(t *testing.T, gw *Gateway, username string, points int64, code string) *models.Profile {
	t.Helper()
	p := &models.Profile{
		ID:       uuid.NewString(),
		Email:    username + "@example.com",
		Username: username,
		Role:     models.RoleUser,
		Points:   points,
		Theme:    models.ThemeSystem,
	}
	if code != "" {
		p.ReferralCode = &code
	}
	require.NoError(t, gw.InsertProfile(context.Background(), p))
	return p
}
