package updatemanager

import (
	"time"

	"github.com/gitify-app/updater/version"
)

const (
	DefaultCheckInterval  = 24 * time.Hour
	DefaultWarmupDelay    = 5 * time.Second
	DefaultNoUpdateDwell  = 60 * time.Second
	DefaultRequestTimeout = 30 * time.Second
)

// Config holds the tunables of the update manager
type Config struct {
	// CurrentVersion is the version of the running application
	CurrentVersion string
	// CheckInterval is the period of automatic checks
	CheckInterval time.Duration
	// WarmupDelay is the delay of the first automatic check after Start
	WarmupDelay time.Duration
	// NoUpdateDwell is how long a manual "no update" result stays visible in the menu
	NoUpdateDwell time.Duration
	// RequestTimeout bounds every request to the release source
	RequestTimeout time.Duration
	// Development disables automatic checks
	Development bool
}

// DefaultConfig returns the configuration used by release builds
func DefaultConfig() Config {
	return Config{
		CurrentVersion: version.Version(),
		CheckInterval:  DefaultCheckInterval,
		WarmupDelay:    DefaultWarmupDelay,
		NoUpdateDwell:  DefaultNoUpdateDwell,
		RequestTimeout: DefaultRequestTimeout,
		Development:    version.IsDevelopment(),
	}
}

func (c Config) withDefaults() Config {
	if c.CurrentVersion == "" {
		c.CurrentVersion = version.Version()
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = DefaultCheckInterval
	}
	if c.WarmupDelay < 0 {
		c.WarmupDelay = DefaultWarmupDelay
	}
	if c.NoUpdateDwell < 0 {
		c.NoUpdateDwell = DefaultNoUpdateDwell
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	return c
}
