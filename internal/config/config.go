package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Session   SessionConfig
	Redis     RedisConfig
	S3        S3Config
	Sentry    SentryConfig
	Notify    NotifyConfig
	Bootstrap BootstrapConfig
}

type ServerConfig struct {
	Port           string
	Mode           string // gin mode
	AllowedOrigins []string
	DefaultLocale  string
	SecureCookies  bool
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type JWTConfig struct {
	Secret   string
	AdminTTL time.Duration
	OwnerTTL time.Duration
}

type SessionConfig struct {
	IdleTimeout   time.Duration
	SweepSchedule string // cron spec
	LoginRate     float64
	LoginBurst    int
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Username string
	Password string
	DB       int
}

type S3Config struct {
	Enabled    bool
	BucketName string
	Endpoint   string
	Region     string
	AccessKey  string
	SecretKey  string
	PresignTTL time.Duration
}

type SentryConfig struct {
	DSN         string
	Environment string
}

// NotifyConfig selects how post-commit events reach websocket clients.
// "direct" broadcasts in-process, "queue" goes through asynq.
type NotifyConfig struct {
	Driver      string
	Concurrency int
}

type BootstrapConfig struct {
	SuperAdminEmail    string
	SuperAdminPassword string
	SuperAdminName     string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Mode:           getEnv("GIN_MODE", "debug"),
			AllowedOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
			DefaultLocale:  getEnv("DEFAULT_LOCALE", "en"),
			SecureCookies:  getEnvAsBool("SECURE_COOKIES", false),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "estatehub"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", ""),
			AdminTTL: getEnvAsDuration("JWT_ADMIN_TTL", 12*time.Hour),
			OwnerTTL: getEnvAsDuration("JWT_OWNER_TTL", 7*24*time.Hour),
		},
		Session: SessionConfig{
			IdleTimeout:   getEnvAsDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
			SweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "@every 5m"),
			LoginRate:     getEnvAsFloat("LOGIN_RATE_PER_SEC", 0.2),
			LoginBurst:    getEnvAsInt("LOGIN_BURST", 5),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     fmt.Sprintf("%s:%d", getEnv("REDIS_HOST", "localhost"), getEnvAsInt("REDIS_PORT", 6379)),
			Username: getEnv("REDIS_USERNAME", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		S3: S3Config{
			Enabled:    getEnvAsBool("S3_ENABLED", false),
			BucketName: getEnv("S3_BUCKET_NAME", ""),
			Endpoint:   getEnv("S3_ENDPOINT", ""),
			Region:     getEnv("S3_REGION", "us-east-1"),
			AccessKey:  getEnv("S3_ACCESS_KEY", ""),
			SecretKey:  getEnv("S3_SECRET_KEY", ""),
			PresignTTL: getEnvAsDuration("S3_PRESIGN_TTL", 15*time.Minute),
		},
		Sentry: SentryConfig{
			DSN:         getEnv("SENTRY_DSN", ""),
			Environment: getEnv("SENTRY_ENVIRONMENT", "development"),
		},
		Notify: NotifyConfig{
			Driver:      getEnv("NOTIFY_DRIVER", "direct"),
			Concurrency: getEnvAsInt("NOTIFY_CONCURRENCY", 5),
		},
		Bootstrap: BootstrapConfig{
			SuperAdminEmail:    getEnv("SUPER_ADMIN_EMAIL", ""),
			SuperAdminPassword: getEnv("SUPER_ADMIN_PASSWORD", ""),
			SuperAdminName:     getEnv("SUPER_ADMIN_NAME", "Super Admin"),
		},
	}

	if cfg.JWT.Secret == "" {
		if cfg.Server.Mode == "release" {
			return nil, fmt.Errorf("JWT_SECRET is required in release mode")
		}
		cfg.JWT.Secret = "default_super_secret_key" // development fallback only
	}
	if cfg.Notify.Driver != "direct" && cfg.Notify.Driver != "queue" {
		return nil, fmt.Errorf("NOTIFY_DRIVER must be direct or queue, got %q", cfg.Notify.Driver)
	}
	if cfg.Notify.Driver == "queue" && !cfg.Redis.Enabled {
		return nil, fmt.Errorf("NOTIFY_DRIVER=queue requires REDIS_ENABLED=true")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
