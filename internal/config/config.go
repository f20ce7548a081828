package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Togather-Foundation/meetups/internal/validation"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Store         string              `yaml:"store"`
	Auth          AuthConfig          `yaml:"auth"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Jobs          JobsConfig          `yaml:"jobs"`
	Logging       LoggingConfig       `yaml:"logging"`
	Tracing       TracingConfig       `yaml:"tracing"`
	Stats         StatsConfig         `yaml:"stats"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Lifecycle     LifecycleConfig     `yaml:"lifecycle"`
	Environment   string              `yaml:"environment"`
}

type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConnections int    `yaml:"max_connections"`
	MigrationsPath string `yaml:"migrations_path"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	JWTIssuer string        `yaml:"jwt_issuer"`
	JWTExpiry time.Duration `yaml:"jwt_expiry"`
	// RequireUserToken makes /users/{userId} routes demand a bearer token for that user.
	RequireUserToken bool `yaml:"require_user_token"`
}

type RateLimitConfig struct {
	PublicPerMinute int `yaml:"public_per_minute"`
	UserPerMinute   int `yaml:"user_per_minute"`
	AdminPerMinute  int `yaml:"admin_per_minute"`
	// TrustedProxyCIDRs lists proxies whose X-Forwarded-For header is believed.
	TrustedProxyCIDRs []string `yaml:"trusted_proxy_cidrs"`
}

type JobsConfig struct {
	Enabled         bool          `yaml:"enabled"`
	MaxWorkers      int           `yaml:"max_workers"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	HitMaxAttempts  int           `yaml:"hit_max_attempts"`
	NotifyAttempts  int           `yaml:"notify_attempts"`
	StatsBufferSize int           `yaml:"stats_buffer_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"` // otlp | stdout
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type StatsConfig struct {
	URL           string        `yaml:"url"`
	App           string        `yaml:"app"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
}

type NotificationsConfig struct {
	AMQPURL      string      `yaml:"amqp_url"`
	AMQPExchange string      `yaml:"amqp_exchange"`
	Email        EmailConfig `yaml:"email"`
}

type EmailConfig struct {
	Enabled      bool   `yaml:"enabled"`
	From         string `yaml:"from"`
	ResendAPIKey string `yaml:"resend_api_key"`
}

type LifecycleConfig struct {
	InitiatorLeadTime time.Duration `yaml:"initiator_lead_time"`
	AdminLeadTime     time.Duration `yaml:"admin_lead_time"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; variables already set win.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}
	cfg := fromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads the environment like Load and overlays the YAML file at
// path. Keys missing from the file keep their environment value.
func LoadFile(path string) (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}
	cfg := fromEnv()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.Store = strings.ToLower(cfg.Store)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func fromEnv() Config {
	return Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "internal/storage/postgres/migrations"),
		},
		Store: strings.ToLower(getEnv("STORE", StorePostgres)),
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", ""),
			JWTIssuer:        getEnv("JWT_ISSUER", "meetups"),
			JWTExpiry:        time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
			RequireUserToken: getEnvBool("AUTH_REQUIRE_USER_TOKEN", false),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:   getEnvInt("RATE_LIMIT_PUBLIC", 120),
			UserPerMinute:     getEnvInt("RATE_LIMIT_USER", 300),
			AdminPerMinute:    getEnvInt("RATE_LIMIT_ADMIN", 0),
			TrustedProxyCIDRs: getEnvList("TRUSTED_PROXY_CIDRS"),
		},
		Jobs: JobsConfig{
			Enabled:         getEnvBool("JOBS_ENABLED", true),
			MaxWorkers:      getEnvInt("JOBS_MAX_WORKERS", 10),
			SweepInterval:   getEnvDuration("JOBS_SWEEP_INTERVAL", time.Hour),
			HitMaxAttempts:  getEnvInt("JOB_RETRY_RECORD_HIT", 3),
			NotifyAttempts:  getEnvInt("JOB_RETRY_PARTICIPATION_STATUS", 5),
			StatsBufferSize: getEnvInt("STATS_BUFFER_SIZE", 256),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvBool("TRACING_ENABLED", false),
			Exporter:    getEnv("TRACING_EXPORTER", "otlp"),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio: getEnvFloat("TRACING_SAMPLE_RATIO", 1.0),
		},
		Stats: StatsConfig{
			URL:           getEnv("STATS_SERVER_URL", ""),
			App:           getEnv("STATS_APP", "meetups-main-service"),
			Timeout:       getEnvDuration("STATS_TIMEOUT", 5*time.Second),
			RatePerSecond: getEnvFloat("STATS_RATE_PER_SECOND", 50),
		},
		Notifications: NotificationsConfig{
			AMQPURL:      getEnv("AMQP_URL", ""),
			AMQPExchange: getEnv("AMQP_EXCHANGE", "meetups"),
			Email: EmailConfig{
				Enabled:      getEnvBool("EMAIL_ENABLED", false),
				From:         getEnv("EMAIL_FROM", "Meetups <noreply@example.com>"),
				ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			},
		},
		Lifecycle: LifecycleConfig{
			InitiatorLeadTime: getEnvDuration("EVENT_INITIATOR_LEAD_TIME", 2*time.Hour),
			AdminLeadTime:     getEnvDuration("EVENT_ADMIN_LEAD_TIME", time.Hour),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("STORE must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	if err := validation.OriginURL("SERVER_BASE_URL", c.Server.BaseURL); err != nil {
		return err
	}
	if err := validation.ServiceURL("STATS_SERVER_URL", c.Stats.URL); err != nil {
		return err
	}
	if c.Notifications.Email.Enabled && c.Notifications.Email.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY is required when EMAIL_ENABLED=true")
	}
	if c.Lifecycle.InitiatorLeadTime < 0 || c.Lifecycle.AdminLeadTime < 0 {
		return fmt.Errorf("event lead times must not be negative")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
