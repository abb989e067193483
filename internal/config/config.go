package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// TokenTTL is the fixed lifetime of a session token. Expiry is always
// issued-at + TokenTTL.
const TokenTTL = 8 * time.Hour

// Config is the complete process configuration. It is constructed once at
// startup, validated, and passed by reference into every component that needs
// it. Nothing mutates it afterwards.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Store     StoreConfig     `yaml:"store"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// AuthConfig holds the three process-wide secrets. All are required; the
// process refuses to start without them.
type AuthConfig struct {
	// AccessPassword is the single shared password accepted by the login
	// endpoint. There are no per-user accounts.
	AccessPassword string `yaml:"access_password"`
	// JWTSecret signs and verifies session tokens.
	JWTSecret string `yaml:"jwt_secret"`
	// APIKey is the static shared secret required in X-API-Key on every
	// protected route, independently of the bearer token.
	APIKey string `yaml:"api_key"`
}

// RateLimitConfig configures the two independent per-IP limiters. The login
// ceiling is fixed at 5 per window; only its window length is configurable.
type RateLimitConfig struct {
	LoginWindow time.Duration `yaml:"login_window"`
	APIMax      int           `yaml:"api_max"`
	APIWindow   time.Duration `yaml:"api_window"`
}

// LoginMax is the fixed ceiling for login attempts per window.
const LoginMax = 5

// WebhookConfig points at the external workflow engine that generates and
// sends the actual email.
type WebhookConfig struct {
	URL string `yaml:"url"`
	// Secret is sent as X-N8N-SECRET when non-empty.
	Secret string `yaml:"secret"`
	// Timeout bounds the outbound call. The upstream design left this to
	// transport defaults; here it is explicit.
	Timeout time.Duration `yaml:"timeout"`
}

// StoreConfig selects the batch-log database. Driver is "sqlite" (default,
// embedded) or "postgres". For sqlite, DSN is a data directory (empty means
// in-memory); for postgres it is a connection string.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Load builds a Config from viper (env vars with the TINSEL_ prefix plus an
// optional tinsel.yaml), applying defaults for everything except the secrets.
func Load() (*Config, error) {
	v := viper.GetViper()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("rate_limit.login_window", "60s")
	v.SetDefault("rate_limit.api_max", 30)
	v.SetDefault("rate_limit.api_window", "60s")
	v.SetDefault("webhook.timeout", "10s")
	v.SetDefault("store.driver", "sqlite")

	cfg := &Config{
		Server: ServerConfig{
			Host:        v.GetString("server.host"),
			Port:        v.GetInt("server.port"),
			CORSOrigins: v.GetStringSlice("server.cors_origins"),
		},
		Auth: AuthConfig{
			AccessPassword: v.GetString("auth.access_password"),
			JWTSecret:      v.GetString("auth.jwt_secret"),
			APIKey:         v.GetString("auth.api_key"),
		},
		RateLimit: RateLimitConfig{
			LoginWindow: v.GetDuration("rate_limit.login_window"),
			APIMax:      v.GetInt("rate_limit.api_max"),
			APIWindow:   v.GetDuration("rate_limit.api_window"),
		},
		Webhook: WebhookConfig{
			URL:     v.GetString("webhook.url"),
			Secret:  v.GetString("webhook.secret"),
			Timeout: v.GetDuration("webhook.timeout"),
		},
		Store: StoreConfig{
			Driver: v.GetString("store.driver"),
			DSN:    v.GetString("store.dsn"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every required value is present. A missing secret is
// fatal at startup, never a per-request condition.
func (c *Config) Validate() error {
	var missing []string
	if c.Auth.AccessPassword == "" {
		missing = append(missing, "auth.access_password (TINSEL_AUTH_ACCESS_PASSWORD)")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "auth.jwt_secret (TINSEL_AUTH_JWT_SECRET)")
	}
	if c.Auth.APIKey == "" {
		missing = append(missing, "auth.api_key (TINSEL_AUTH_API_KEY)")
	}
	if c.Webhook.URL == "" {
		missing = append(missing, "webhook.url (TINSEL_WEBHOOK_URL)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported store driver %q (want sqlite or postgres)", c.Store.Driver)
	}

	if c.RateLimit.APIMax <= 0 {
		return errors.New("rate_limit.api_max must be positive")
	}
	if c.RateLimit.LoginWindow <= 0 || c.RateLimit.APIWindow <= 0 {
		return errors.New("rate limit windows must be positive")
	}
	return nil
}
