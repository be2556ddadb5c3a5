package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	LogLevel    string
	Port        uint16
	BaseURL     string
	OwnerName   string
	Email       EmailConfig
	RateLimit   RateLimitConfig
	Redis       RedisConfig
	CORSOrigins []string
	Sentry      SentryConfig
}

// EmailConfig holds the outbound mail settings.
type EmailConfig struct {
	Host     string
	Port     uint16
	Username string
	Password string
	From     string
	FromName string

	// ForwardTo receives a notification for every submission
	ForwardTo string

	// SendTimeout bounds a single SMTP send
	SendTimeout time.Duration
}

// RateLimitConfig configures the contact submission limiter.
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int

	// TrustProxy keys the limiter on X-Forwarded-For instead of the socket
	// address. Only enable behind a proxy that overwrites the header.
	TrustProxy bool
}

// RedisConfig enables the shared limiter store when URL is set.
type RedisConfig struct {
	URL      string
	Password string
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN              string
	Enabled          bool
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		// Walk up directories to find .env (max 2 parent directories)
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	return configFromEnv()
}

func configFromEnv() (*Config, error) {
	cfg := &Config{
		Env:       getEnv("ENV", "dev"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Port:      getEnvInt("PORT", 3000),
		BaseURL:   getEnv("BASE_URL", "http://localhost:3000"),
		OwnerName: getEnv("OWNER_NAME", "Portfolio"),
		Email: EmailConfig{
			Host:        getEnv("EMAIL_HOST", "localhost"),
			Port:        getEnvInt("EMAIL_PORT", 1025),
			Username:    getEnv("EMAIL_USER", ""),
			Password:    getEnv("EMAIL_PASS", ""),
			From:        getEnv("MAIL_FROM", "noreply@portfolio.local"),
			FromName:    getEnv("MAIL_FROM_NAME", ""),
			ForwardTo:   getEnv("FORWARD_EMAIL_ADDRESS", ""),
			SendTimeout: getEnvDuration("MAIL_SEND_TIMEOUT", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			// milliseconds
			Window:      time.Duration(getEnvInt64("CONTACT_RATELIMIT_WINDOW", 60_000)) * time.Millisecond,
			MaxRequests: int(getEnvInt64("CONTACT_RATELIMIT_MAXREQUESTS", 5)),
			TrustProxy:  getEnvBool("TRUST_PROXY", false),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		Sentry: SentryConfig{
			DSN:              getEnv("SENTRY_DSN", ""),
			Enabled:          getEnvBool("SENTRY_ENABLED", false), // Disabled by default for development
			Environment:      getEnv("SENTRY_ENVIRONMENT", "development"),
			Release:          getEnv("SENTRY_RELEASE", ""),
			SampleRate:       getEnvFloat("SENTRY_SAMPLE_RATE", 1.0),
			TracesSampleRate: getEnvFloat("SENTRY_TRACES_SAMPLE_RATE", 0.0), // Disabled by default
			Debug:            getEnvBool("SENTRY_DEBUG", false),
		},
	}

	if cfg.Email.FromName == "" {
		cfg.Email.FromName = cfg.OwnerName
	}

	// Validate env
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.RateLimit.Window <= 0 {
		return nil, fmt.Errorf("CONTACT_RATELIMIT_WINDOW must be a positive number of milliseconds")
	}
	if cfg.RateLimit.MaxRequests <= 0 {
		return nil, fmt.Errorf("CONTACT_RATELIMIT_MAXREQUESTS must be positive")
	}

	// Submissions have nowhere to go without an owner mailbox
	if cfg.Env == "prod" && cfg.Email.ForwardTo == "" {
		return nil, fmt.Errorf("FORWARD_EMAIL_ADDRESS must be set in production environment")
	}
	if cfg.Email.ForwardTo == "" {
		cfg.Email.ForwardTo = cfg.Email.From
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		var intValue uint16
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		var intValue int64
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var floatValue float64
		if _, err := fmt.Sscanf(value, "%f", &floatValue); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
