package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// MinJWTSecretLength is the minimum secret length accepted in production
const MinJWTSecretLength = 32

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server
	APIPort    int
	AppBaseURL string

	// Logging
	LogLevel string

	// Security
	JWTSecret      string
	AllowedOrigins string
	AppEnv         string

	// Rate Limiting
	RateLimitRequests float64
	RateLimitBurst    int

	// Unread count cache (disabled when RedisURL is empty)
	RedisURL       string
	UnreadCacheTTL time.Duration

	// First-contact email notifications (disabled when SMTPAddr is empty)
	SMTPAddr string
	SMTPFrom string

	// Reply by email (disabled when ReplyDomain or InboundSMTPAddr is empty)
	ReplyDomain     string
	InboundSMTPAddr string
	// STARTTLS for the inbound server (optional, both or neither)
	InboundTLSCert string
	InboundTLSKey  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	// Required: DATABASE_URL
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	// API_PORT (default: 8080)
	apiPort := os.Getenv("API_PORT")
	if apiPort == "" {
		cfg.APIPort = 8080
	} else {
		port, err := strconv.Atoi(apiPort)
		if err != nil {
			return nil, fmt.Errorf("API_PORT must be a valid integer: %w", err)
		}
		cfg.APIPort = port
	}

	// APP_BASE_URL (default: http://localhost:3000), used in notification links
	cfg.AppBaseURL = os.Getenv("APP_BASE_URL")
	if cfg.AppBaseURL == "" {
		cfg.AppBaseURL = "http://localhost:3000"
	}

	// LOG_LEVEL (default: info)
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	// Security configuration
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.AppEnv = os.Getenv("APP_ENV")
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	// Rate limiting configuration
	if rps := os.Getenv("RATE_LIMIT_REQUESTS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			cfg.RateLimitRequests = v
		}
	} else {
		cfg.RateLimitRequests = 10.0
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil {
			cfg.RateLimitBurst = v
		}
	} else {
		cfg.RateLimitBurst = 20
	}

	// Unread cache
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.UnreadCacheTTL = 30 * time.Second
	if ttl := os.Getenv("UNREAD_CACHE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("UNREAD_CACHE_TTL must be a valid duration: %w", err)
		}
		cfg.UnreadCacheTTL = d
	}

	// Notifications
	cfg.SMTPAddr = os.Getenv("SMTP_ADDR")
	cfg.SMTPFrom = os.Getenv("SMTP_FROM")
	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = "no-reply@seaandtea.lk"
	}

	cfg.ReplyDomain = os.Getenv("REPLY_DOMAIN")
	cfg.InboundSMTPAddr = os.Getenv("INBOUND_SMTP_ADDR")
	cfg.InboundTLSCert = os.Getenv("INBOUND_TLS_CERT")
	cfg.InboundTLSKey = os.Getenv("INBOUND_TLS_KEY")

	return cfg, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Production-specific validation
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.UnreadCacheTTL <= 0 {
		return fmt.Errorf("UnreadCacheTTL must be positive")
	}
	if (c.InboundTLSCert == "") != (c.InboundTLSKey == "") {
		return fmt.Errorf("INBOUND_TLS_CERT and INBOUND_TLS_KEY must be set together")
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if len(c.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in production", MinJWTSecretLength)
	}

	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	// Check for wildcard in production
	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	// Check for sslmode=disable in database URL
	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	return nil
}

// Origins returns the allowed origins as a trimmed list
func (c *Config) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("jwt_secret_set", c.JWTSecret != ""),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
		slog.Bool("unread_cache_enabled", c.RedisURL != ""),
		slog.Duration("unread_cache_ttl", c.UnreadCacheTTL),
		slog.Bool("notifications_enabled", c.SMTPAddr != ""),
		slog.Bool("email_replies_enabled", c.RepliesEnabled()),
		slog.Bool("inbound_starttls", c.InboundTLSCert != ""),
	)
}

// RepliesEnabled reports whether inbound reply-by-email is configured
func (c *Config) RepliesEnabled() bool {
	return c.ReplyDomain != "" && c.InboundSMTPAddr != ""
}
