package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL", "GEMINI_TIMEOUT",
		"GEMINI_SAFETY_SETTINGS", "DEFAULT_PERSONA", "PERSONA_FILE", "RELAY_ERROR_POLICY",
		"MAX_BODY_BYTES", "METRICS_ENABLED", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", cfg.AI.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.AI.Timeout)
	assert.True(t, cfg.AI.SafetySettings)
	assert.False(t, cfg.AI.HasCredential())
	assert.Equal(t, "caffeine-barista", cfg.Relay.DefaultPersona)
	assert.Equal(t, PolicyStructured, cfg.Relay.ErrorPolicy)
	assert.Equal(t, int64(65536), cfg.Relay.MaxBodyBytes)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:3000")
	t.Setenv("GEMINI_API_KEY", " secret ")
	t.Setenv("GEMINI_BASE_URL", "http://localhost:9999/v1beta/")
	t.Setenv("GEMINI_TIMEOUT", "5")
	t.Setenv("GEMINI_SAFETY_SETTINGS", "false")
	t.Setenv("RELAY_ERROR_POLICY", "Fallback")
	t.Setenv("MAX_BODY_BYTES", "1024")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:3000", cfg.Server.Addr)
	assert.Equal(t, "secret", cfg.AI.APIKey)
	assert.Equal(t, "http://localhost:9999/v1beta", cfg.AI.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
	assert.False(t, cfg.AI.SafetySettings)
	assert.Equal(t, PolicyFallback, cfg.Relay.ErrorPolicy)
	assert.Equal(t, int64(1024), cfg.Relay.MaxBodyBytes)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port with space", "PORT", "80 80"},
		{"unknown policy", "RELAY_ERROR_POLICY", "silent"},
		{"negative body cap", "MAX_BODY_BYTES", "-1"},
		{"non-numeric body cap", "MAX_BODY_BYTES", "lots"},
		{"bad timeout", "GEMINI_TIMEOUT", "soon"},
		{"zero timeout", "GEMINI_TIMEOUT", "0s"},
		{"bad bool", "METRICS_ENABLED", "maybe"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseDurationEnvAcceptsGoDurations(t *testing.T) {
	t.Setenv("TEST_DURATION", "1500ms")

	got, err := parseDurationEnv("TEST_DURATION", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, got)
}
