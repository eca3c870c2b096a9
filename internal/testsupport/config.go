package testsupport

import (
	"path/filepath"
	"testing"

	"imageset/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.InputDir = filepath.Join(base, "in")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Catalog.Path = filepath.Join(base, "logs", "catalog.db")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithTargetSize sets the resize target on the test config.
func WithTargetSize(size int) ConfigOption {
	return func(c *config.Config) {
		c.Ingest.TargetSize = size
	}
}

// WithWorkers pins the worker pool size on the test config.
func WithWorkers(n int) ConfigOption {
	return func(c *config.Config) {
		c.Ingest.Workers = n
	}
}

// WithCatalogDisabled turns off run journaling on the test config.
func WithCatalogDisabled() ConfigOption {
	return func(c *config.Config) {
		c.Catalog.Enabled = false
	}
}
