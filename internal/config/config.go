// Package config loads the gateway's environment-variable configuration
// and its hot-reloadable JSON config files (spec §6).
//
// Env loading is grounded on the teacher's config/config.go New/getEnv*
// family, narrowed to this gateway's server/observability/rate-limit
// settings (Cognito, Database, and TLS-for-Postgres concerns dropped since
// this gateway has no database and no OAuth).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the gateway's environment-derived configuration.
type Config struct {
	Environment         string
	Server              ServerConfig
	Observability       ObservabilityConfig
	RateLimit           RateLimitConfig
	HealthCheckInterval time.Duration

	// ProvidersPath, TenantsDir, and PoliciesPath point at the hot-reloaded
	// JSON config files (spec §6).
	ProvidersPath string
	TenantsDir    string
	PoliciesPath  string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ObservabilityConfig holds logging configuration.
type ObservabilityConfig struct {
	LogLevel string
}

// RateLimitConfig holds the fixed-window size used for every tenant's rate
// window; the per-tenant request limit is resolved separately.
type RateLimitConfig struct {
	WindowMs int
}

// WindowDuration returns the configured window size as a time.Duration.
func (c RateLimitConfig) WindowDuration() time.Duration {
	return time.Duration(c.WindowMs) * time.Millisecond
}

// Load reads environment variables (after loading .env, if present) into a
// Config, applying the defaults from spec §6.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		RateLimit: RateLimitConfig{
			WindowMs: getEnvAsInt("RATE_LIMIT_WINDOW_MS", 60000),
		},
		HealthCheckInterval: getEnvAsDuration("HEALTH_CHECK_INTERVAL", 0),
		ProvidersPath:       getEnv("PROVIDERS_CONFIG_PATH", "config/providers.json"),
		TenantsDir:          getEnv("TENANTS_CONFIG_DIR", "config/tenants"),
		PoliciesPath:        getEnv("POLICIES_CONFIG_PATH", "config/policies/routing.json"),
	}

	if cfg.HealthCheckInterval == 0 {
		// HEALTH_CHECK_INTERVAL is documented in ms (spec §6); getEnvAsDuration
		// parses Go duration strings, so fall back to a raw-ms read here.
		cfg.HealthCheckInterval = time.Duration(getEnvAsInt("HEALTH_CHECK_INTERVAL", 300000)) * time.Millisecond
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server port must be positive")
	}
	return nil
}

// IsProduction reports whether the gateway is running in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// Address returns the HTTP server's listen address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getPort() int {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			return p
		}
	}
	return 3000
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
