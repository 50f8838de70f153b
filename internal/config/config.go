// Package config loads the stagehand service configuration from the
// environment. Command-line flags in cmd/ may override individual
// fields after Load.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Ingestion modes.
const (
	IngestDial   = "dial"   // We dial the bridge's websocket endpoint
	IngestListen = "listen" // Bridges connect to our /ws/mocap feed
)

// Config holds the service configuration.
type Config struct {
	// Listen is the dashboard HTTP listen address.
	Listen string `env:"STAGEHAND_LISTEN" envDefault:":8080"`

	// BridgeURL is the mocap bridge websocket URL (dial mode).
	BridgeURL string `env:"STAGEHAND_BRIDGE_URL" envDefault:"ws://127.0.0.1:9871/ws/mocap"`

	// Ingest selects how frames arrive: "dial" or "listen".
	Ingest string `env:"STAGEHAND_INGEST" envDefault:"dial"`

	// SetupPath is the installation setup YAML file.
	SetupPath string `env:"STAGEHAND_SETUP" envDefault:"setup.yaml"`

	// JournalPath is the SQLite journal database; empty keeps the
	// journal in memory only.
	JournalPath string `env:"STAGEHAND_JOURNAL"`

	// TickHz is the stage tick rate.
	TickHz float64 `env:"STAGEHAND_TICK_HZ" envDefault:"60"`

	// StaleAfter is how old a body sample may be before behaviors
	// treat the body as missing.
	StaleAfter time.Duration `env:"STAGEHAND_STALE_AFTER" envDefault:"500ms"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"STAGEHAND_LOG_LEVEL" envDefault:"info"`

	// LogFormat is text or json.
	LogFormat string `env:"STAGEHAND_LOG_FORMAT" envDefault:"text"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values that env parsing cannot.
func (c Config) Validate() error {
	switch c.Ingest {
	case IngestDial, IngestListen:
	default:
		return fmt.Errorf("config: invalid ingest mode %q (want %q or %q)", c.Ingest, IngestDial, IngestListen)
	}
	if c.TickHz <= 0 {
		return fmt.Errorf("config: tick rate must be positive, got %v", c.TickHz)
	}
	return nil
}
