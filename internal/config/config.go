// Package config holds client configuration for the solvr app:
// the solver endpoints, the per-solve credit price, and timeouts.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultSolveCost is the number of credits debited per solve attempt.
const DefaultSolveCost = 5

// Config holds all client configuration.
type Config struct {
	// APIBaseURL is the base URL for the REST API (auth, billing, history).
	APIBaseURL string `toml:"api_base_url"`

	// SolveURL is the WebSocket endpoint that streams solutions.
	// Derived from APIBaseURL when empty.
	SolveURL string `toml:"solve_url"`

	// SolveCost is the credit price of one solve attempt.
	SolveCost int `toml:"solve_cost"`

	// HandshakeTimeout bounds the WebSocket dial + handshake.
	HandshakeTimeout time.Duration `toml:"-"`

	// SolveTimeout bounds a whole solve attempt. Zero means no limit.
	SolveTimeout time.Duration `toml:"-"`

	// Debug enables verbose logging to stderr.
	Debug bool `toml:"debug"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:       "http://localhost:8000/api/v1",
		SolveCost:        DefaultSolveCost,
		HandshakeTimeout: 10 * time.Second,
		SolveTimeout:     5 * time.Minute,
	}
}

// Load builds the effective Config: defaults, then the TOML config file
// (if present), then environment variables. Later sources win.
func Load() (Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		path = ""
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit config file path. A missing file is
// not an error; a malformed one is.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			if _, decErr := toml.DecodeFile(path, &cfg); decErr != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, decErr)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values. The config file is not consulted.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	if u := os.Getenv("SOLVR_API_URL"); u != "" {
		c.APIBaseURL = u
	}
	if u := os.Getenv("SOLVR_SOLVE_URL"); u != "" {
		c.SolveURL = u
	}
	if v := os.Getenv("SOLVR_SOLVE_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SolveCost = n
		}
	}
	if v := os.Getenv("SOLVR_DEBUG"); v != "" && v != "0" && v != "false" {
		c.Debug = true
	}
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url must not be empty")
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("api_base_url must start with http:// or https://, got %q", c.APIBaseURL)
	}
	if u := c.EffectiveSolveURL(); !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://") {
		return fmt.Errorf("solve_url must start with ws:// or wss://, got %q", u)
	}
	if c.SolveCost <= 0 {
		return fmt.Errorf("solve_cost must be positive, got %d", c.SolveCost)
	}
	return nil
}

// EffectiveSolveURL returns the WebSocket solve endpoint, deriving it from
// APIBaseURL when SolveURL is unset (http → ws, https → wss).
func (c Config) EffectiveSolveURL() string {
	if c.SolveURL != "" {
		return c.SolveURL
	}
	base := c.APIBaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return strings.TrimRight(base, "/") + "/solver/ws"
}

// DefaultConfigPath returns the path of the TOML config file,
// honoring XDG_CONFIG_HOME.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "solvr", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "solvr", "config.toml"), nil
}
