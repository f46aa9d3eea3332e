// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for docchat.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides. File location: ~/.docchat/config.toml.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/docchat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete docchat configuration.
type Config struct {
	// Backend configuration
	Backend BackendConfig `toml:"backend"`

	// Retrieval configuration
	Retrieval RetrievalConfig `toml:"retrieval"`

	// Auth configuration
	Auth AuthConfig `toml:"auth"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// Speech configuration
	Speech SpeechConfig `toml:"speech"`
}

// BackendConfig contains backend endpoint configuration.
type BackendConfig struct {
	// URL is the base URL of the query/ingest backend
	URL string `toml:"url"`
	// QueryTimeoutSecs is the hard ceiling for query requests
	QueryTimeoutSecs int `toml:"query_timeout_secs"`
	// IngestTimeoutSecs is the hard ceiling for ingest requests
	IngestTimeoutSecs int `toml:"ingest_timeout_secs"`
}

// RetrievalConfig contains retrieval and streaming configuration.
type RetrievalConfig struct {
	// TopK is the retrieval width. Valid range is 1-10; values outside
	// are clamped.
	TopK int `toml:"top_k"`
	// StreamSliceSize is the number of characters revealed per
	// streaming emission
	StreamSliceSize int `toml:"stream_slice_size"`
	// StreamDelayMs is the pause between streaming emissions
	StreamDelayMs int `toml:"stream_delay_ms"`
}

// AuthConfig contains admin credential configuration.
type AuthConfig struct {
	// KeystorePath is the env-style file holding ADMIN_API_KEY
	// (empty = default ~/.docchat/.env)
	KeystorePath string `toml:"keystore_path"`
	// WatchKeystore reloads the keystore when the file changes
	WatchKeystore bool `toml:"watch_keystore"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// ShowEvidence displays the evidence panel alongside the transcript
	ShowEvidence bool `toml:"show_evidence"`
	// CompactMode uses a more compact layout
	CompactMode bool `toml:"compact_mode"`
}

// SpeechConfig contains voice input/output configuration. Both default
// off; the client works fully without a speech capability.
type SpeechConfig struct {
	// InputEnabled enables voice input when a provider is available
	InputEnabled bool `toml:"input_enabled"`
	// OutputEnabled enables spoken answers when a provider is available
	OutputEnabled bool `toml:"output_enabled"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:               "http://127.0.0.1:8000",
			QueryTimeoutSecs:  60,
			IngestTimeoutSecs: 120,
		},

		Retrieval: RetrievalConfig{
			TopK:            3,
			StreamSliceSize: 50,
			StreamDelayMs:   30,
		},

		Auth: AuthConfig{
			KeystorePath:  "",
			WatchKeystore: true,
		},

		UI: UIConfig{
			Theme:        "auto",
			ShowEvidence: true,
			CompactMode:  false,
		},

		Speech: SpeechConfig{
			InputEnabled:  false,
			OutputEnabled: false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the docchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".docchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file, falling back
// to defaults when no file exists. Environment overrides are applied
// last, then validation clamps out-of-range values.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", path, err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the default config file.
func (c *Config) Save() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// Atomic write so a crash mid-save cannot corrupt the config.
	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Backend.URL == "" {
		c.Backend.URL = defaults.Backend.URL
	}
	if c.Backend.QueryTimeoutSecs == 0 {
		c.Backend.QueryTimeoutSecs = defaults.Backend.QueryTimeoutSecs
	}
	if c.Backend.IngestTimeoutSecs == 0 {
		c.Backend.IngestTimeoutSecs = defaults.Backend.IngestTimeoutSecs
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = defaults.Retrieval.TopK
	}
	if c.Retrieval.StreamSliceSize == 0 {
		c.Retrieval.StreamSliceSize = defaults.Retrieval.StreamSliceSize
	}
	if c.Retrieval.StreamDelayMs == 0 {
		c.Retrieval.StreamDelayMs = defaults.Retrieval.StreamDelayMs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies DOCCHAT_* environment variables on top of
// the loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	// DOCCHAT_BACKEND_URL
	if backendURL := os.Getenv("DOCCHAT_BACKEND_URL"); backendURL != "" {
		c.Backend.URL = backendURL
	}

	// DOCCHAT_TOP_K
	if topK := os.Getenv("DOCCHAT_TOP_K"); topK != "" {
		if k, err := strconv.Atoi(topK); err == nil {
			c.Retrieval.TopK = k
		}
	}

	// DOCCHAT_KEYSTORE
	if keystore := os.Getenv("DOCCHAT_KEYSTORE"); keystore != "" {
		c.Auth.KeystorePath = keystore
	}

	// DOCCHAT_THEME
	if theme := os.Getenv("DOCCHAT_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration and clamps out-of-range values.
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.Backend.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("backend.url %q is not a valid URL", c.Backend.URL)
	}
	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")

	if c.Backend.QueryTimeoutSecs < 1 {
		return fmt.Errorf("backend.query_timeout_secs must be positive, got %d", c.Backend.QueryTimeoutSecs)
	}
	if c.Backend.IngestTimeoutSecs < 1 {
		return fmt.Errorf("backend.ingest_timeout_secs must be positive, got %d", c.Backend.IngestTimeoutSecs)
	}

	// Retrieval width is slider-bounded in the UI; clamp rather than
	// reject so a hand-edited config still loads.
	if c.Retrieval.TopK < MinTopK {
		c.Retrieval.TopK = MinTopK
	}
	if c.Retrieval.TopK > MaxTopK {
		c.Retrieval.TopK = MaxTopK
	}

	if c.Retrieval.StreamSliceSize < 1 {
		return fmt.Errorf("retrieval.stream_slice_size must be positive, got %d", c.Retrieval.StreamSliceSize)
	}
	if c.Retrieval.StreamDelayMs < 0 {
		return fmt.Errorf("retrieval.stream_delay_ms must not be negative, got %d", c.Retrieval.StreamDelayMs)
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return fmt.Errorf("ui.theme must be dark, light, or auto, got %q", c.UI.Theme)
	}

	return nil
}

// TopK bounds for the retrieval width control.
const (
	MinTopK = 1
	MaxTopK = 10
)

// =============================================================================
// DERIVED VALUES
// =============================================================================

// QueryTimeout returns the query timeout as a duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Backend.QueryTimeoutSecs) * time.Second
}

// IngestTimeout returns the ingest timeout as a duration.
func (c *Config) IngestTimeout() time.Duration {
	return time.Duration(c.Backend.IngestTimeoutSecs) * time.Second
}

// StreamDelay returns the streaming delay as a duration.
func (c *Config) StreamDelay() time.Duration {
	return time.Duration(c.Retrieval.StreamDelayMs) * time.Millisecond
}
