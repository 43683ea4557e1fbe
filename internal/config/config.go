package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// API contains connection settings for the reelfeed backend.
type API struct {
	BaseURL               string `toml:"base_url"`
	RequestTimeout        int    `toml:"request_timeout"`
	PlaybackRetryAttempts int    `toml:"playback_retry_attempts"`
	PlaybackRetryDelayMS  int    `toml:"playback_retry_delay_ms"`
}

// Paths contains local directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Player contains settings for the external playback command and the
// playback policies layered on top of it.
type Player struct {
	Command            string   `toml:"command"`
	Args               []string `toml:"args"`
	StartMuted         bool     `toml:"start_muted"`
	AutoAdvanceDelayMS int      `toml:"auto_advance_delay_ms"`
}

// Feed contains scroll and gesture tuning for the episode feed.
type Feed struct {
	ViewportHeight   int `toml:"viewport_height"`
	SwipeThresholdPX int `toml:"swipe_threshold_px"`
	ScrollSettleMS   int `toml:"scroll_settle_ms"`
}

// Payments contains coin top-up settings.
type Payments struct {
	DefaultPack            string `toml:"default_pack"`
	SolanaConfirmPollMS    int    `toml:"solana_confirm_poll_ms"`
	SolanaConfirmTimeoutMS int    `toml:"solana_confirm_timeout_ms"`
}

// Telemetry contains settings for the local event outbox.
type Telemetry struct {
	Enabled       bool `toml:"enabled"`
	BatchSize     int  `toml:"batch_size"`
	FlushInterval int  `toml:"flush_interval"`
	MaxQueued     int  `toml:"max_queued"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelfeed.
//
// Configuration sections by subsystem:
//   - API: backend base URL, timeouts, playback URL retry policy
//   - Paths: local state and log directories
//   - Player: external player command and auto-advance policy
//   - Feed: viewport, swipe threshold, scroll settle debounce
//   - Payments: coin pack defaults and Solana confirmation polling
//   - Telemetry: local outbox sizing and flush cadence
//   - Logging: log format and level
type Config struct {
	API       API       `toml:"api"`
	Paths     Paths     `toml:"paths"`
	Player    Player    `toml:"player"`
	Feed      Feed      `toml:"feed"`
	Payments  Payments  `toml:"payments"`
	Telemetry Telemetry `toml:"telemetry"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelfeed/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and environment overrides applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("REELFEED_API_URL")); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("REELFEED_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("REELFEED_STATE_DIR")); v != "" {
		c.Paths.StateDir = v
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelfeed.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the local state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
