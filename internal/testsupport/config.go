package testsupport

import (
	"path/filepath"
	"testing"

	"vapord/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields, creates the directories, and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Telegram.Token = "test-token"
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithWorkers sets the dispatcher worker count on the test config.
func WithWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.Workers = workers
	}
}

// WithQueueDepth sets the dispatcher queue depth on the test config.
func WithQueueDepth(depth int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.QueueDepth = depth
	}
}

// WithCacheQuota sets the artifact cache quota on the test config.
func WithCacheQuota(bytes int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Cache.QuotaBytes = bytes
	}
}

// WithAdmins sets the admin allow-list on the test config.
func WithAdmins(ids ...int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Telegram.AdminIDs = ids
	}
}
