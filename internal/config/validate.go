package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. The Telegram token is checked
// separately at daemon startup so CLI commands work without a credential.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateCredential verifies the bot credential is present. Absence is a
// fatal startup error for the daemon.
func (c *Config) ValidateCredential() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required: set %s or telegram.token in the config file", EnvToken)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Workers <= 0 {
		return errors.New("pipeline.workers must be positive")
	}
	if c.Pipeline.QueueDepth <= 0 {
		return errors.New("pipeline.queue_depth must be positive")
	}
	if c.Pipeline.MinQueryLength <= 0 {
		return errors.New("pipeline.min_query_length must be positive")
	}
	if c.Pipeline.MaxDurationSeconds < 5 {
		return errors.New("pipeline.max_duration_seconds must be at least 5")
	}
	if c.Pipeline.CallTimeoutSeconds <= 0 {
		return errors.New("pipeline.call_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.QuotaBytes <= 0 {
		return errors.New("cache.quota_bytes must be positive")
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if c.Telegram.PollTimeout <= 0 {
		return errors.New("telegram.poll_timeout must be positive")
	}
	if c.Telegram.RequestTimeout <= 0 {
		return errors.New("telegram.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console, or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
