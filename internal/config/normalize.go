package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizePlayer()
	c.normalizeFeed()
	c.normalizePayments()
	c.normalizeTelemetry()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.RequestTimeout <= 0 {
		c.API.RequestTimeout = defaultRequestTimeout
	}
	if c.API.PlaybackRetryAttempts <= 0 {
		c.API.PlaybackRetryAttempts = defaultPlaybackRetryAttempts
	}
	if c.API.PlaybackRetryDelayMS <= 0 {
		c.API.PlaybackRetryDelayMS = defaultPlaybackRetryDelayMS
	}
}

func (c *Config) normalizePlayer() {
	c.Player.Command = strings.TrimSpace(c.Player.Command)
	if c.Player.Command == "" {
		c.Player.Command = defaultPlayerCommand
	}
	if c.Player.AutoAdvanceDelayMS <= 0 {
		c.Player.AutoAdvanceDelayMS = defaultAutoAdvanceDelayMS
	}
}

func (c *Config) normalizeFeed() {
	if c.Feed.ViewportHeight <= 0 {
		c.Feed.ViewportHeight = defaultViewportHeight
	}
	if c.Feed.SwipeThresholdPX <= 0 {
		c.Feed.SwipeThresholdPX = defaultSwipeThresholdPX
	}
	if c.Feed.ScrollSettleMS <= 0 {
		c.Feed.ScrollSettleMS = defaultScrollSettleMS
	}
}

func (c *Config) normalizePayments() {
	c.Payments.DefaultPack = strings.ToLower(strings.TrimSpace(c.Payments.DefaultPack))
	if c.Payments.DefaultPack == "" {
		c.Payments.DefaultPack = defaultCoinPack
	}
	if c.Payments.SolanaConfirmPollMS <= 0 {
		c.Payments.SolanaConfirmPollMS = defaultSolanaConfirmPollMS
	}
	if c.Payments.SolanaConfirmTimeoutMS <= 0 {
		c.Payments.SolanaConfirmTimeoutMS = defaultSolanaConfirmTimeoutMS
	}
}

func (c *Config) normalizeTelemetry() {
	if c.Telemetry.BatchSize <= 0 {
		c.Telemetry.BatchSize = defaultTelemetryBatchSize
	}
	if c.Telemetry.FlushInterval <= 0 {
		c.Telemetry.FlushInterval = defaultTelemetryFlushInterval
	}
	if c.Telemetry.MaxQueued <= 0 {
		c.Telemetry.MaxQueued = defaultTelemetryMaxQueued
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
