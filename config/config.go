package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the full service configuration, loaded from environment
// variables (with an optional .env file for local development).
type Config struct {
	Service   ServiceConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Profiling ProfilingConfig
	Session   SessionConfig
	Store     StoreConfig
	Commerce  CommerceConfig
	Payment   PaymentConfig
	OAuth     OAuthConfig
	Tracking  TrackingConfig
}

type ServiceConfig struct {
	Name    string `env:"SERVICE_NAME" envDefault:"pashupatinath-storefront"`
	Version string `env:"SERVICE_VERSION" envDefault:"dev"`
	Env     string `env:"SERVICE_ENV" envDefault:"development"`
	Port    string `env:"PORT" envDefault:"8080"`

	// Graceful shutdown tuning, in seconds.
	ShutdownTimeout     int `env:"SHUTDOWN_TIMEOUT_SECONDS" envDefault:"15"`
	ReadinessDrainDelay int `env:"READINESS_DRAIN_DELAY_SECONDS" envDefault:"5"`
}

type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

type TracingConfig struct {
	Enabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	Endpoint   string  `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
	SampleRate float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

type ProfilingConfig struct {
	Enabled  bool   `env:"PROFILING_ENABLED" envDefault:"false"`
	Endpoint string `env:"PROFILING_ENDPOINT" envDefault:"http://localhost:4040"`
}

// SessionConfig controls guest session minting.
// The token secret is a format placeholder, not a signing key; see
// internal/core/token for the (deliberate) security caveat.
type SessionConfig struct {
	TokenSecret string `env:"GUEST_TOKEN_SECRET" envDefault:"pashupatinath-guest-secret-2024"`
	TTLDays     int    `env:"GUEST_SESSION_TTL_DAYS" envDefault:"30"`
}

// StoreConfig selects the guest session repository backend.
type StoreConfig struct {
	Driver      string `env:"SESSION_STORE_DRIVER" envDefault:"postgres"` // postgres | redis | memory
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
}

type CommerceConfig struct {
	BaseURL        string `env:"COMMERCE_API_URL"`
	TimeoutSeconds int    `env:"COMMERCE_TIMEOUT_SECONDS" envDefault:"15"`
	CacheTTLMs     int    `env:"CATALOG_CACHE_TTL_MS" envDefault:"300000"`
}

type PaymentConfig struct {
	RazorpayKeyID     string `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `env:"RAZORPAY_KEY_SECRET"`
}

type OAuthConfig struct {
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	AppOrigin          string `env:"APP_ORIGIN" envDefault:"http://localhost:3000"`
}

type TrackingConfig struct {
	Site string `env:"TRACKING_SITE" envDefault:"pashupatinath"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present (local development);
// missing .env is not an error.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic("config: parse environment: " + err.Error())
	}
	return cfg
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	if c.Commerce.BaseURL == "" {
		return errors.New("COMMERCE_API_URL is required")
	}
	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when SESSION_STORE_DRIVER=postgres")
		}
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown SESSION_STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Session.TTLDays <= 0 {
		return errors.New("GUEST_SESSION_TTL_DAYS must be positive")
	}
	if c.IsProduction() && (c.Payment.RazorpayKeyID == "" || c.Payment.RazorpayKeySecret == "") {
		return errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required in production")
	}
	return nil
}

// IsProduction reports whether the service runs in the production env.
// Error responses include upstream detail only when this is false.
func (c *Config) IsProduction() bool {
	return c.Service.Env == "production"
}

// SessionTTL returns the guest session validity window.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLDays) * 24 * time.Hour
}

// GetShutdownTimeoutDuration returns the HTTP shutdown deadline.
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.Service.ShutdownTimeout) * time.Second
}

// GetReadinessDrainDelayDuration returns how long to keep serving after
// readiness starts failing, so load balancers stop routing first.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return time.Duration(c.Service.ReadinessDrainDelay) * time.Second
}
