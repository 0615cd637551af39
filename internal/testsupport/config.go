// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"rbtv/internal/config"
	"rbtv/internal/records"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.BasePath = filepath.Join(base, "tree")
	cfg.Paths.DBPath = filepath.Join(base, "mediathek.db")
	cfg.Paths.RecordPath = filepath.Join(base, "records.db")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithBackend overrides the catalog backend on the test config.
func WithBackend(backend string) ConfigOption {
	return func(c *config.Config) {
		c.Catalog.Backend = backend
	}
}

// WithRecordFormat overrides the ledger implementation on the test config.
func WithRecordFormat(format string) ConfigOption {
	return func(c *config.Config) {
		c.Records.Format = format
	}
}

// MustOpenStore opens the SQLite ledger for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *records.Store {
	t.Helper()

	store, err := records.Open(cfg.Paths.RecordPath)
	if err != nil {
		t.Fatalf("records.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
