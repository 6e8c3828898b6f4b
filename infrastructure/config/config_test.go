package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"TOURNEY_API_URL", "REQUEST_TIMEOUT", "REFRESH_TIMEOUT", "USER_AGENT",
		"DEV_MODE", "ADMIN_USER_ID", "TOKEN_STORE", "TOKEN_FILE",
		"TOKEN_FILE_PASSPHRASE", "REDIS_URL", "DATABASE_URL", "TOKEN_NAMESPACE",
		"LOG_LEVEL", "LOG_FORMAT", "METRICS_ENABLED",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.RefreshTimeout)
	assert.Equal(t, StoreMemory, cfg.TokenStore)
	assert.False(t, cfg.DevMode)
	assert.Empty(t, cfg.AdminOverride())
	assert.Equal(t, 15*time.Minute, cfg.DevBackend.AccessTokenTTL)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOURNEY_API_URL", "https://api.example.com/")
	t.Setenv("REQUEST_TIMEOUT", "5")
	t.Setenv("REFRESH_TIMEOUT", "1m")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("ADMIN_USER_ID", "42")
	t.Setenv("TOKEN_STORE", "FILE")
	t.Setenv("TOKEN_FILE", "/tmp/tokens.json")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Minute, cfg.RefreshTimeout)
	assert.Equal(t, StoreFile, cfg.TokenStore)
	assert.Equal(t, "42", cfg.AdminOverride())
}

func TestFromEnv_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want error
	}{
		{"bad url", map[string]string{"TOURNEY_API_URL": "ftp://x"}, ErrInvalidAPIURL},
		{"bad timeout", map[string]string{"REQUEST_TIMEOUT": "soon"}, ErrInvalidTimeout},
		{"bad store", map[string]string{"TOKEN_STORE": "etcd"}, ErrInvalidTokenStore},
		{"redis without url", map[string]string{"TOKEN_STORE": "redis"}, ErrMissingRedisURL},
		{"postgres without url", map[string]string{"TOKEN_STORE": "postgres"}, ErrMissingDatabaseURL},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, ErrInvalidLogFormat},
		{"dev mode without admin", map[string]string{"DEV_MODE": "true"}, ErrAdminOverrideNoUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
