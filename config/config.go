// config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root application configuration, read from the environment.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Auth         AuthConfig
	Storage      StorageConfig
	Functions    FunctionsConfig
	Construction ConstructionConfig
	Limits       LimitsConfig
	Scheduler    SchedulerConfig
	Log          LogConfig
}

type ServerConfig struct {
	Port            int           `env:"PORT"             env-default:"5200"`
	AllowedOrigins  string        `env:"ALLOWED_ORIGINS"  env-default:"http://localhost:3000"`
	BodyLimitMB     int           `env:"BODY_LIMIT_MB"    env-default:"20"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	// APIKey is the public platform key every client sends in the apikey header.
	APIKey string `env:"PLATFORM_API_KEY" env-required:"true"`
}

type DatabaseConfig struct {
	URL         string `env:"DATABASE_URL" env-required:"true"`
	AutoMigrate bool   `env:"DATABASE_AUTO_MIGRATE" env-default:"true"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET" env-required:"true"`
	JWTIssuer string `env:"JWT_ISSUER" env-default:""`
}

// StorageConfig points at an S3-compatible bucket (Cloudflare R2 by default).
// When AccountID and Endpoint are both empty uploads go to the local LocalDir.
type StorageConfig struct {
	AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	Endpoint        string `env:"STORAGE_ENDPOINT"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	Bucket          string `env:"R2_BUCKET_NAME" env-default:"mpa-uploads"`
	CDNBaseURL      string `env:"CDN_BASE_URL"`
	LocalDir        string `env:"UPLOAD_DIR" env-default:"uploads"`
	MaxRetries      uint64 `env:"UPLOAD_MAX_RETRIES" env-default:"3"`
}

// Remote returns true when an object store is configured.
func (s StorageConfig) Remote() bool {
	return s.AccountID != "" || s.Endpoint != ""
}

type FunctionsConfig struct {
	BaseURL string        `env:"FUNCTIONS_BASE_URL"`
	Key     string        `env:"FUNCTIONS_KEY"`
	Timeout time.Duration `env:"FUNCTIONS_TIMEOUT" env-default:"15s"`
}

type ConstructionConfig struct {
	AutoAdvance     bool          `env:"CONSTRUCTION_AUTO_ADVANCE" env-default:"false"`
	RefreshInterval time.Duration `env:"CONSTRUCTION_REFRESH_INTERVAL" env-default:"30s"`
}

type LimitsConfig struct {
	DailyErrorReports   int   `env:"DAILY_ERROR_REPORT_LIMIT" env-default:"5"`
	DefaultPoints       int64 `env:"DEFAULT_POINTS" env-default:"100"`
	ReferralBonus       int64 `env:"REFERRAL_BONUS" env-default:"50"`
	CodeGenerateRetries int   `env:"CODE_GENERATE_RETRIES" env-default:"5"`
}

type SchedulerConfig struct {
	NotificationRetention time.Duration `env:"NOTIFICATION_RETENTION" env-default:"720h"`
	PendingPaymentAge     time.Duration `env:"PENDING_PAYMENT_AGE" env-default:"48h"`
	SessionIdle           time.Duration `env:"SESSION_IDLE_TIMEOUT" env-default:"30m"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, reading environment variables directly")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks values the struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be within 1..65535, got %d", c.Server.Port))
	}
	if c.Server.BodyLimitMB < 1 {
		errs = append(errs, errors.New("BODY_LIMIT_MB must be positive"))
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if strings.TrimSpace(c.Server.APIKey) == "" {
		errs = append(errs, errors.New("PLATFORM_API_KEY is required"))
	}
	if c.Construction.RefreshInterval <= 0 {
		errs = append(errs, errors.New("CONSTRUCTION_REFRESH_INTERVAL must be positive"))
	}
	if c.Limits.DailyErrorReports < 1 {
		errs = append(errs, errors.New("DAILY_ERROR_REPORT_LIMIT must be at least 1"))
	}
	if c.Limits.CodeGenerateRetries < 1 {
		errs = append(errs, errors.New("CODE_GENERATE_RETRIES must be at least 1"))
	}
	if c.Limits.DefaultPoints < 0 || c.Limits.ReferralBonus < 0 {
		errs = append(errs, errors.New("point amounts must not be negative"))
	}
	if c.Storage.Remote() && (c.Storage.AccessKeyID == "" || c.Storage.AccessKeySecret == "") {
		errs = append(errs, errors.New("R2_ACCESS_KEY_ID and R2_ACCESS_KEY_SECRET are required with remote storage"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Origins splits ALLOWED_ORIGINS into trimmed entries.
func (s ServerConfig) Origins() []string {
	var out []string
	for _, origin := range strings.Split(s.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
