package spgo

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.False(t, cfg.EnablePreload)
	assert.False(t, cfg.DrainOnClose)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvLibPath, "/opt/libspotify/lib")
	t.Setenv(EnvPollInterval, "250ms")
	t.Setenv(EnvEnablePreload, "true")
	t.Setenv(EnvDrainOnClose, "1")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/opt/libspotify/lib", cfg.LibraryPath)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.True(t, cfg.EnablePreload)
	assert.True(t, cfg.DrainOnClose)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
}

func TestConfigFromEnvErrors(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad interval", EnvPollInterval, "soon"},
		{"zero interval", EnvPollInterval, "0s"},
		{"bad bool", EnvEnablePreload, "maybe"},
		{"bad level", EnvLogLevel, "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := ConfigFromEnv()
			assert.Error(t, err)
		})
	}
}
