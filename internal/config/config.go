// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for prooflab. It supports a
// four-layer override chain (defaults -> config file -> environment ->
// CLI flags).
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Transfers TransfersConfig `toml:"transfers"`
	Logging   LoggingConfig   `toml:"logging"`
	Paths     PathsConfig     `toml:"paths"`
}

// ServerConfig names the backend and the public frontend origin that share
// links are displayed against.
type ServerConfig struct {
	BaseURL        string `toml:"base_url"`
	FrontendOrigin string `toml:"frontend_origin"`
}

// TransfersConfig controls upload parallelism and watch-mode timing.
type TransfersConfig struct {
	ParallelUploads  int    `toml:"parallel_uploads"`
	WatchSettleDelay string `toml:"watch_settle_delay"`
}

// LoggingConfig controls log output behavior. log_format "auto" picks
// text on a terminal and JSON otherwise.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// PathsConfig overrides the default locations for local state. Empty
// fields fall back to the platform data directory.
type PathsConfig struct {
	TokenFile   string `toml:"token_file"`
	JournalFile string `toml:"journal_file"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8080",
		},
		Transfers: TransfersConfig{
			ParallelUploads:  4,
			WatchSettleDelay: "2s",
		},
		Logging: LoggingConfig{
			LogLevel:  "info",
			LogFormat: "auto",
		},
	}
}

// validLogLevels are the accepted values for logging.log_level.
var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// validLogFormats are the accepted values for logging.log_format.
var validLogFormats = map[string]bool{
	"auto": true, "text": true, "json": true,
}

// Validate checks a Config for structurally invalid values. It runs after
// the override chain has been applied, so it sees the final values.
func Validate(cfg *Config) error {
	if cfg.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url must be set")
	}

	u, err := url.Parse(cfg.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url %q is not an absolute URL", cfg.Server.BaseURL)
	}

	if cfg.Transfers.ParallelUploads < 1 {
		return fmt.Errorf("transfers.parallel_uploads must be at least 1, got %d", cfg.Transfers.ParallelUploads)
	}

	if cfg.Transfers.WatchSettleDelay != "" {
		if _, err := time.ParseDuration(cfg.Transfers.WatchSettleDelay); err != nil {
			return fmt.Errorf("transfers.watch_settle_delay %q: %w", cfg.Transfers.WatchSettleDelay, err)
		}
	}

	if lvl := strings.ToLower(cfg.Logging.LogLevel); lvl != "" && !validLogLevels[lvl] {
		return fmt.Errorf("logging.log_level %q is not one of debug, info, warn, error", cfg.Logging.LogLevel)
	}

	if f := strings.ToLower(cfg.Logging.LogFormat); f != "" && !validLogFormats[f] {
		return fmt.Errorf("logging.log_format %q is not one of auto, text, json", cfg.Logging.LogFormat)
	}

	return nil
}

// SettleDelay returns the parsed watch settle delay.
func (c *Config) SettleDelay() time.Duration {
	d, err := time.ParseDuration(c.Transfers.WatchSettleDelay)
	if err != nil {
		return 2 * time.Second
	}

	return d
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Pointer fields distinguish "not specified" (nil)
// from "explicitly set to zero value".
type CLIOverrides struct {
	ConfigPath string // --config flag (empty = use default)
	ServerURL  string // --server flag
	LogLevel   string // --log-level flag
	Parallel   *int   // --parallel flag
}
