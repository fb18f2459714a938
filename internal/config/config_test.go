package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, ":1337", cfg.Addr)
	assert.Equal(t, DriverFile, cfg.StoreDriver)
	assert.Equal(t, ".tmp/store.json", cfg.StorePath)
	assert.Equal(t, time.Duration(0), cfg.SessionTTL)
	assert.Equal(t, 256, cfg.OutboxBuffer)
	assert.Contains(t, cfg.CORSOrigins, "http://localhost:3000")
	assert.Len(t, cfg.CORSOrigins, 4)
	assert.False(t, cfg.SSOEnabled())
	assert.False(t, cfg.ForwardAuth)
}

func TestNew_EnvOverride(t *testing.T) {
	t.Setenv("MESSENGER_STORE_DRIVER", "sqlite")
	t.Setenv("MESSENGER_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("MESSENGER_SESSION_TTL", "12h")
	t.Setenv("MESSENGER_CORS_ORIGINS", "https://chat.example.com")
	t.Setenv("MESSENGER_FORWARD_AUTH", "true")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/x.db", cfg.SQLitePath)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"https://chat.example.com"}, cfg.CORSOrigins)
	assert.True(t, cfg.ForwardAuth)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"testing config", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mongo" }, "unsupported STORE_DRIVER"},
		{"postgres without dsn", func(c *Config) { c.StoreDriver = DriverPostgres }, "POSTGRES_DSN"},
		{"file without path", func(c *Config) { c.StoreDriver = DriverFile }, "STORE_PATH"},
		{"redis without addr", func(c *Config) { c.StoreDriver = DriverRedis }, "REDIS_ADDR"},
		{"negative ttl", func(c *Config) { c.SessionTTL = -time.Second }, "SESSION_TTL"},
		{"bad environment", func(c *Config) { c.Environment = "staging" }, "ENVIRONMENT"},
		{"zero outbox", func(c *Config) { c.OutboxBuffer = 0 }, "OUTBOX_BUFFER"},
		{"partial oidc", func(c *Config) { c.OIDCIssuer = "https://id.example.com" }, "OIDC_CLIENT_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewForTesting()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
