package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variable names recognized as overrides. The credential is
// normally supplied through the environment rather than the config file.
const (
	EnvToken      = "VAPORD_TOKEN"
	EnvWorkers    = "VAPORD_WORKERS"
	EnvCacheQuota = "VAPORD_CACHE_QUOTA"
)

func (c *Config) applyEnvOverrides() {
	if token := strings.TrimSpace(os.Getenv(EnvToken)); token != "" {
		c.Telegram.Token = token
	}
	if raw := strings.TrimSpace(os.Getenv(EnvWorkers)); raw != "" {
		if workers, err := strconv.Atoi(raw); err == nil && workers > 0 {
			c.Pipeline.Workers = workers
		}
	}
	if raw := strings.TrimSpace(os.Getenv(EnvCacheQuota)); raw != "" {
		if quota, err := strconv.ParseInt(raw, 10, 64); err == nil && quota > 0 {
			c.Cache.QuotaBytes = quota
		}
	}
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	c.Telegram.Token = strings.TrimSpace(c.Telegram.Token)
	c.Telegram.BaseURL = strings.TrimRight(strings.TrimSpace(c.Telegram.BaseURL), "/")
	if c.Telegram.BaseURL == "" {
		c.Telegram.BaseURL = defaultTelegramBaseURL
	}

	c.Tools.YtDlp = normalizeBinary(c.Tools.YtDlp, defaultYtDlpBinary)
	c.Tools.FFmpeg = normalizeBinary(c.Tools.FFmpeg, defaultFFmpegBinary)
	c.Tools.Sox = normalizeBinary(c.Tools.Sox, defaultSoxBinary)
	c.Tools.ChorusFinder = normalizeBinary(c.Tools.ChorusFinder, defaultChorusBinary)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

func normalizeBinary(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
