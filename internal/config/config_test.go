package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "5175", cfg.Port)
	assert.False(t, cfg.Production())
	assert.Equal(t, 3*time.Second, cfg.Timing().Dwell)
	assert.Equal(t, time.Second, cfg.Timing().Compare)
	assert.Equal(t, time.Second, cfg.Timing().Tick)
	assert.Equal(t, 14*24*time.Hour, cfg.TokenTTL())
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("PREVIEW_DWELL", "1500ms")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.Production())
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 1500*time.Millisecond, cfg.PreviewDwell)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
}

func TestParseRejectsBadValues(t *testing.T) {
	t.Setenv("TICK_INTERVAL", "soon")
	_, err := Parse()
	assert.Error(t, err)

	t.Setenv("TICK_INTERVAL", "0s")
	_, err = Parse()
	assert.ErrorContains(t, err, "TICK_INTERVAL")
}
