package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config keys are flat (DB_HOST, VERIFY_TIMEOUT, ...) in both the environment
// and the optional YAML file, where they are written in lower case.
type Config struct {
	App      AppConfig      `koanf:",squash"`
	Database DatabaseConfig `koanf:",squash"`
	JWT      JWTConfig      `koanf:",squash"`
	Storage  StorageConfig  `koanf:",squash"`
	Verify   VerifyConfig   `koanf:",squash"`
	Holiday  HolidayConfig  `koanf:",squash"`
	Report   ReportConfig   `koanf:",squash"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Port            int           `koanf:"app_port"`
	Env             string        `koanf:"app_env"`
	LogLevel        string        `koanf:"log_level"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	LockTimeout     time.Duration `koanf:"lock_timeout"`
	SweepInterval   time.Duration `koanf:"sweep_interval"`
}

type DatabaseConfig struct {
	Host     string `koanf:"db_host"`
	Port     int    `koanf:"db_port"`
	User     string `koanf:"db_user"`
	Password string `koanf:"db_password"`
	Name     string `koanf:"db_name"`
	SSLMode  string `koanf:"db_ssl_mode"`
	MaxConns int32  `koanf:"db_max_conns"`
	MinConns int32  `koanf:"db_min_conns"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string `koanf:"jwt_secret_key"`
	AccessExpiration string `koanf:"jwt_access_expiration_time"`
}

type StorageConfig struct {
	BasePath string `koanf:"storage_base_path"`
	BaseURL  string `koanf:"storage_base_url"`
}

// VerifyConfig selects and configures the biometric backends. An empty
// provider disables that sample type.
type VerifyConfig struct {
	Timeout time.Duration `koanf:"verify_timeout"`

	FaceProvider string `koanf:"verify_provider_face"` // "cloud", "local" or ""

	CloudBaseURL      string   `koanf:"verify_cloud_base_url"`
	CloudTokenURL     string   `koanf:"verify_cloud_token_url"`
	CloudClientID     string   `koanf:"verify_cloud_client_id"`
	CloudClientSecret string   `koanf:"verify_cloud_client_secret"`
	CloudScopes       []string `koanf:"verify_cloud_scopes"`
	CloudThreshold    float64  `koanf:"verify_cloud_threshold"`

	LocalBaseURL     string  `koanf:"verify_local_base_url"`
	LocalMaxDistance float64 `koanf:"verify_local_max_distance"`

	FingerprintBaseURL string `koanf:"verify_fingerprint_base_url"`
	FingerprintAPIKey  string `koanf:"verify_fingerprint_api_key"`
}

type HolidayConfig struct {
	// CalendarFile is an optional JSON calendar consulted alongside the
	// holidays table.
	CalendarFile string `koanf:"holiday_calendar_file"`
}

type ReportConfig struct {
	MaxRangeDays int `koanf:"report_max_range_days"`
	Workers      int `koanf:"report_workers"`
}

// Default returns the configuration used before any source is applied.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Port:            8080,
			Env:             "development",
			LogLevel:        "info",
			ShutdownTimeout: 10 * time.Second,
			LockTimeout:     5 * time.Second,
			SweepInterval:   time.Hour,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Name:     "cmlabs-hris",
			SSLMode:  "disable",
			MaxConns: 25,
			MinConns: 5,
		},
		JWT: JWTConfig{
			AccessExpiration: "1h",
		},
		Storage: StorageConfig{
			BasePath: "./uploads",
			BaseURL:  "http://localhost:8080/uploads",
		},
		Verify: VerifyConfig{
			Timeout:          5 * time.Second,
			CloudThreshold:   80,
			LocalMaxDistance: 0.45,
		},
		Report: ReportConfig{
			MaxRangeDays: 93,
			Workers:      8,
		},
	}
}

// Load layers defaults, an optional YAML file named by ATTENDANCE_CONFIG and
// the environment (after .env, if present). Later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	k := koanf.New(".")

	if path := os.Getenv("ATTENDANCE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	config := Default()
	if err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if c.Verify.Timeout <= 0 {
		return fmt.Errorf("VERIFY_TIMEOUT must be positive")
	}

	switch c.Verify.FaceProvider {
	case "":
	case "cloud":
		if c.Verify.CloudBaseURL == "" || c.Verify.CloudTokenURL == "" || c.Verify.CloudClientID == "" {
			return fmt.Errorf("VERIFY_CLOUD_BASE_URL, VERIFY_CLOUD_TOKEN_URL and VERIFY_CLOUD_CLIENT_ID are required for the cloud face provider")
		}
	case "local":
		if c.Verify.LocalBaseURL == "" {
			return fmt.Errorf("VERIFY_LOCAL_BASE_URL is required for the local face provider")
		}
	default:
		return fmt.Errorf("VERIFY_PROVIDER_FACE must be one of: cloud, local")
	}

	if c.Report.MaxRangeDays < 1 {
		return fmt.Errorf("REPORT_MAX_RANGE_DAYS must be at least 1")
	}
	if c.Report.Workers < 1 {
		return fmt.Errorf("REPORT_WORKERS must be at least 1")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
