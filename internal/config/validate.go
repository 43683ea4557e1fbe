package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validatePayments(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelfeed/config.toml"
		}
		return fmt.Errorf("api.base_url is required. Set REELFEED_API_URL env var or edit %s (create with 'reelfeed config init')", defaultPath)
	}
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	return nil
}

func (c *Config) validateFeed() error {
	if c.Feed.SwipeThresholdPX >= c.Feed.ViewportHeight {
		return errors.New("feed.swipe_threshold_px must be smaller than feed.viewport_height")
	}
	return nil
}

func (c *Config) validatePayments() error {
	if strings.TrimSpace(c.Payments.DefaultPack) == "" {
		return errors.New("payments.default_pack must be set")
	}
	if c.Payments.SolanaConfirmPollMS > c.Payments.SolanaConfirmTimeoutMS {
		return errors.New("payments.solana_confirm_poll_ms must not exceed payments.solana_confirm_timeout_ms")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
