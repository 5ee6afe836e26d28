package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"PLANGATE_HOME": "/tmp/pg"})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, StoreFile, cfg.Store)
	assert.True(t, cfg.GuestCheckout)
	assert.Zero(t, cfg.HTTPTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, filepath.Join("/tmp/pg", "plangate.log"), cfg.LogFile)
	assert.Empty(t, cfg.Token)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"PLANGATE_API_URL":        "https://api.example.com",
		"PLANGATE_TOKEN":          "T1",
		"PLANGATE_STORE":          "redis",
		"PLANGATE_HOME":           "/tmp/pg",
		"PLANGATE_REDIS_URL":      "redis://cache:6379/2",
		"PLANGATE_GUEST_CHECKOUT": "false",
		"PLANGATE_HTTP_TIMEOUT":   "15s",
		"PLANGATE_LOG_FILE":       "-",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, "T1", cfg.Token)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, "redis://cache:6379/2", cfg.RedisURL)
	assert.False(t, cfg.GuestCheckout)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "-", cfg.LogFile)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want error
	}{
		{"unknown store", map[string]string{"PLANGATE_STORE": "cookie"}, ErrInvalidStore},
		{"bad bool", map[string]string{"PLANGATE_GUEST_CHECKOUT": "maybe"}, ErrParsingConfig},
		{"bad duration", map[string]string{"PLANGATE_HTTP_TIMEOUT": "soon"}, ErrParsingConfig},
		{"negative duration", map[string]string{"PLANGATE_HTTP_TIMEOUT": "-1s"}, ErrParsingConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.vars["PLANGATE_HOME"] = "/tmp/pg"
			_, err := LoadFrom(tt.vars)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
