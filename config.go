package spgo

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvLibPath       = "SPGO_LIB_PATH"
	EnvPollInterval  = "SPGO_POLL_INTERVAL"
	EnvEnablePreload = "SPGO_ENABLE_PRELOAD"
	EnvDrainOnClose  = "SPGO_DRAIN_ON_CLOSE"
	EnvLogLevel      = "SPGO_LOG_LEVEL"
)

// DefaultPollInterval is how often Run scans the pending-load queue.
const DefaultPollInterval = 100 * time.Millisecond

// Config holds the bridge settings.
type Config struct {
	// LibraryPath is an extra directory searched for libspotify.
	LibraryPath string
	// PollInterval is the pending-load scan period used by Run.
	PollInterval time.Duration
	// EnablePreload turns on prefetching of the listener's next track when
	// playback starts. Off by default.
	EnablePreload bool
	// DrainOnClose releases entries still pending at Close instead of
	// abandoning them. Released entries are not delivered.
	DrainOnClose bool
	// LogLevel applies to the default logger.
	LogLevel zerolog.Level
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		PollInterval: DefaultPollInterval,
		LogLevel:     zerolog.InfoLevel,
	}
}

// ConfigFromEnv returns DefaultConfig overridden by SPGO_* variables.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	cfg.LibraryPath = os.Getenv(EnvLibPath)

	if v := os.Getenv(EnvPollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvPollInterval, err)
		}
		cfg.PollInterval = d
	}
	for name, dst := range map[string]*bool{
		EnvEnablePreload: &cfg.EnablePreload,
		EnvDrainOnClose:  &cfg.DrainOnClose,
	} {
		if v := os.Getenv(name); v != "" {
			on, err := strconv.ParseBool(v)
			if err != nil {
				return cfg, fmt.Errorf("%s: %w", name, err)
			}
			*dst = on
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		lvl, err := zerolog.ParseLevel(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = lvl
	}
	return cfg, cfg.Validate()
}

// Validate reports settings the bridge cannot run with.
func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return errors.New("spgo: poll interval must be positive")
	}
	return nil
}
