package docscan

import (
	"os"
	"path/filepath"
	"time"
)

// Config for a scan session. Loaded from a TOML profile and/or CLI flags;
// zero values fall back to the defaults below.
type Config struct {
	Device       string `toml:"device"`
	OutputDir    string `toml:"output_dir"`
	JournalPath  string `toml:"journal_path"`
	SentinelPath string `toml:"sentinel_path"`
	TimeoutSec   int    `toml:"timeout_sec"`
	GraceMS      int    `toml:"grace_ms"`

	Resolution int    `toml:"resolution"`
	Source     string `toml:"source"`
	Color      string `toml:"color"`
	Format     string `toml:"format"`
	Duplex     bool   `toml:"duplex"`
}

const (
	// DefaultDeadline is the safety-net cap on one scan operation,
	// independent of user-triggered cancellation
	DefaultDeadline = 15 * time.Minute
	// DefaultGrace is how long to wait after stopping before releasing
	// the device, giving the hardware time to settle
	DefaultGrace = 500 * time.Millisecond
)

// Deadline for the scan operation
func (c *Config) Deadline() time.Duration {
	if c.TimeoutSec > 0 {
		return time.Duration(c.TimeoutSec) * time.Second
	}
	return DefaultDeadline
}

// Grace delay before device release
func (c *Config) Grace() time.Duration {
	if c.GraceMS > 0 {
		return time.Duration(c.GraceMS) * time.Millisecond
	}
	return DefaultGrace
}

// Sentinel is the marker file whose appearance cancels the session
func (c *Config) Sentinel() string {
	if c.SentinelPath != "" {
		return c.SentinelPath
	}
	return filepath.Join(os.TempDir(), "docscanner.stop")
}

// Journal is where session records are kept
func (c *Config) Journal() string {
	if c.JournalPath != "" {
		return c.JournalPath
	}
	return filepath.Join(os.TempDir(), "docscanner-journal")
}
