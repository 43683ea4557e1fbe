package main

import (
	"context"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reelfeed/internal/app"
	"reelfeed/internal/config"
	"reelfeed/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withEngine builds a fully wired engine for one command invocation and
// tears it down afterwards. The engine holds the state directory lock for
// the duration.
func (c *commandContext) withEngine(cmd *cobra.Command, fn func(context.Context, *app.Engine) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		logger = logging.NewNop()
	}
	engine, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()
	return fn(cmd.Context(), engine)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
