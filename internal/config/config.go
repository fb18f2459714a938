// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name, e.g. MESSENGER_ADDR.
const Prefix = "MESSENGER"

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
)

// Config holds the configuration for the messenger server.
type Config struct {
	Addr        string      `envconfig:"ADDR" default:":1337"`
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// Storage
	StoreDriver   string `envconfig:"STORE_DRIVER" default:"file"`
	StorePath     string `envconfig:"STORE_PATH" default:".tmp/store.json"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:".tmp/messenger.db"`
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisKey      string `envconfig:"REDIS_KEY" default:"messenger:state"`

	// SeedFile replaces the embedded seed fixture when set.
	SeedFile string `envconfig:"SEED_FILE"`

	// Sessions. A zero TTL means sessions never expire.
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"0s"`
	CookieSecure bool          `envconfig:"COOKIE_SECURE" default:"false"`
	CORSOrigins  []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:1337,http://localhost:3000,http://0.0.0.0:1337,http://0.0.0.0:3000"`
	BcryptCost   int           `envconfig:"BCRYPT_COST" default:"10"`

	// ForwardAuth trusts the Remote-User header from a reverse proxy such as
	// Authelia.
	ForwardAuth bool `envconfig:"FORWARD_AUTH" default:"false"`

	OutboxBuffer int `envconfig:"OUTBOX_BUFFER" default:"256"`

	// Optional OIDC login. Disabled unless OIDCIssuer is set.
	OIDCIssuer       string `envconfig:"OIDC_ISSUER"`
	OIDCClientID     string `envconfig:"OIDC_CLIENT_ID"`
	OIDCClientSecret string `envconfig:"OIDC_CLIENT_SECRET"`
	OIDCRedirectURL  string `envconfig:"OIDC_REDIRECT_URL"`
}

// New creates a new Config by parsing environment variables prefixed with
// MESSENGER_ and validates it.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewForTesting returns an in-memory configuration.
func NewForTesting() *Config {
	return &Config{
		Addr:         ":0",
		Environment:  EnvTesting,
		LogLevel:     "debug",
		StoreDriver:  DriverMemory,
		BcryptCost:   4,
		OutboxBuffer: 16,
		CORSOrigins:  []string{"http://localhost:3000"},
	}
}

// Validate checks driver-specific requirements.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverFile:
		if c.StorePath == "" {
			return fmt.Errorf("STORE_PATH is required for the %s driver", c.StoreDriver)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the %s driver", c.StoreDriver)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the %s driver", c.StoreDriver)
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the %s driver", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.StoreDriver)
	}

	switch c.Environment {
	case EnvDevelopment, EnvTesting, EnvProduction:
	default:
		return fmt.Errorf("unsupported ENVIRONMENT: %s", c.Environment)
	}

	if c.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL must not be negative")
	}
	if c.OutboxBuffer <= 0 {
		return fmt.Errorf("OUTBOX_BUFFER must be positive")
	}
	if c.OIDCIssuer != "" && (c.OIDCClientID == "" || c.OIDCRedirectURL == "") {
		return fmt.Errorf("OIDC_CLIENT_ID and OIDC_REDIRECT_URL are required with OIDC_ISSUER")
	}
	return nil
}

// SSOEnabled reports whether OIDC login is configured.
func (c *Config) SSOEnabled() bool {
	return c.OIDCIssuer != ""
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}
