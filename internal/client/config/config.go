// Package config assembles the runtime settings of the DriveOps client from
// defaults, an optional JSON file, and command-line flags, in that order of
// precedence.
package config

import "time"

// Config holds the runtime settings of the embedded client.
//
// EndpointURL is the single remote endpoint every action-tagged request is
// POSTed to. RequestTimeout bounds each remote call so a hung request cannot
// stall the drain. MaxAttempts/BaseBackoff/MaxBackoff shape the retry policy
// of the sync engine; SyncInterval is the periodic drain; OnlineCheckInterval
// is the connectivity probe cadence. DatabasePath locates the on-device
// SQLite file.
type Config struct {
	EndpointURL         string
	DatabasePath        string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration
	MaxAttempts         int
	BaseBackoff         time.Duration
	MaxBackoff          time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.EndpointURL = "http://127.0.0.1:8080/exec"
	c.DatabasePath = "driveops.db"
	c.RequestTimeout = 30 * time.Second
	c.OnlineCheckInterval = 15 * time.Second
	c.SyncInterval = 5 * time.Minute
	c.MaxAttempts = 5
	c.BaseBackoff = time.Second
	c.MaxBackoff = 2 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
