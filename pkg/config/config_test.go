package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("AUTH_MODE", "")
	t.Setenv("PORT", "")
	t.Setenv("FRONTEND_URL", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("REQUEST_TIMEOUT", "")

	cfg := LoadConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, AuthModeUnverified, cfg.AuthMode)
	assert.Equal(t, BackendMemory, cfg.ResolveStoreBackend())
	assert.Equal(t, 25*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("POSTGRES_DSN", "  postgres://u:p@db:5432/linker  ")
	t.Setenv("FRONTEND_URL", "https://linker-frontend-sepia.vercel.app/")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://linker-frontend-sepia.vercel.app")
	t.Setenv("AUTH_MODE", "HS256")
	t.Setenv("CLERK_SECRET_KEY", "sk_test")
	t.Setenv("DEBUG", "true")
	t.Setenv("REQUEST_TIMEOUT", "10s")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://u:p@db:5432/linker", cfg.PostgresDSN)
	assert.Equal(t, BackendPostgres, cfg.ResolveStoreBackend())
	assert.Equal(t, AuthModeHS256, cfg.AuthMode)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.Debug, "debug is forced off in production")
	assert.Equal(t, []string{
		"https://linker-frontend-sepia.vercel.app",
		"http://localhost:3000",
	}, cfg.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:           "8000",
			AuthMode:       AuthModeUnverified,
			RequestTimeout: time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Port = "" }, wantErr: "PORT"},
		{name: "unknown backend", mutate: func(c *Config) { c.StoreBackend = "mongo" }, wantErr: "STORE_BACKEND"},
		{name: "sqlite without path", mutate: func(c *Config) { c.StoreBackend = BackendSQLite }, wantErr: "SQLITE_PATH"},
		{name: "redis without url", mutate: func(c *Config) { c.StoreBackend = BackendRedis }, wantErr: "REDIS_URL"},
		{name: "supabase without key", mutate: func(c *Config) {
			c.StoreBackend = BackendSupabase
			c.SupabaseURL = "https://x.supabase.co"
		}, wantErr: "SUPABASE"},
		{name: "hs256 without secret", mutate: func(c *Config) { c.AuthMode = AuthModeHS256 }, wantErr: "CLERK_SECRET_KEY"},
		{name: "rs256 without key", mutate: func(c *Config) { c.AuthMode = AuthModeRS256 }, wantErr: "AUTH_PUBLIC_KEY"},
		{name: "unknown auth mode", mutate: func(c *Config) { c.AuthMode = "none" }, wantErr: "AUTH_MODE"},
		{name: "negative rate limit", mutate: func(c *Config) { c.RateLimitRPM = -1 }, wantErr: "RATE_LIMIT_RPM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolveStoreBackendPrecedence(t *testing.T) {
	c := &Config{SQLitePath: "linker.db", RedisURL: "redis://localhost:6379"}
	assert.Equal(t, BackendSQLite, c.ResolveStoreBackend())

	c.SupabaseURL, c.SupabaseKey = "https://x.supabase.co", "key"
	assert.Equal(t, BackendSupabase, c.ResolveStoreBackend())

	c.PostgresDSN = "postgres://localhost/linker"
	assert.Equal(t, BackendPostgres, c.ResolveStoreBackend())

	c.StoreBackend = BackendRedis
	assert.Equal(t, BackendRedis, c.ResolveStoreBackend())
}

func TestWarnings(t *testing.T) {
	c := &Config{Environment: "production", AuthMode: AuthModeUnverified}
	warnings := c.Warnings()
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "NOT verified")

	c = &Config{Environment: "development", AuthMode: AuthModeHS256}
	assert.Empty(t, c.Warnings())
}
