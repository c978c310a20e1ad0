package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"oakwood/internal/activity"
	"oakwood/internal/catalog"
	"oakwood/internal/config"
	"oakwood/internal/logging"
	"oakwood/internal/services/openlibrary"
	"oakwood/internal/verify"
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

func (c *commandContext) openStore() (*catalog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return catalog.Open(cfg)
}

func (c *commandContext) activityLog() (*activity.Log, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return activity.New(cfg.ActivityLogPath()), nil
}

func (c *commandContext) logger() *slog.Logger {
	cfg, err := c.ensureConfig()
	if err != nil {
		return logging.NewNop()
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func (c *commandContext) newVerifier(store *catalog.Store) (*verify.Verifier, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := openlibrary.New(cfg.OpenLibrary.BaseURL, openlibrary.WithTimeout(cfg.FetchTimeout()))
	if err != nil {
		return nil, err
	}
	audit, err := c.activityLog()
	if err != nil {
		return nil, err
	}
	return verify.NewVerifier(store, client, audit, c.logger()), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
