package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"rbtv/internal/catalog"
	"rbtv/internal/catalog/live"
	"rbtv/internal/catalog/local"
	"rbtv/internal/config"
	"rbtv/internal/logging"
	"rbtv/internal/rbtvapi"
	"rbtv/internal/records"
)

// commandContext lazily resolves config and logger once per invocation and
// hands out the catalog backend and ledger the active command needs.
type commandContext struct {
	configFlag  *string
	backendFlag *string
	dbPathFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, backendFlag, dbPathFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		backendFlag: backendFlag,
		dbPathFlag:  dbPathFlag,
	}
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
		if err := c.applyOverrides(cfg); err != nil {
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

// applyOverrides folds the persistent root flags into the loaded config.
func (c *commandContext) applyOverrides(cfg *config.Config) error {
	if c.backendFlag != nil && strings.TrimSpace(*c.backendFlag) != "" {
		cfg.Catalog.Backend = strings.ToLower(strings.TrimSpace(*c.backendFlag))
	}
	if c.dbPathFlag != nil && strings.TrimSpace(*c.dbPathFlag) != "" {
		expanded, err := config.ExpandPath(*c.dbPathFlag)
		if err != nil {
			return err
		}
		cfg.Paths.DBPath = expanded
	}
	return cfg.Validate()
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			LogDir: cfg.Paths.LogDir,
		})
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) apiClient() (*rbtvapi.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return rbtvapi.New(rbtvapi.WithBaseURL(cfg.Catalog.APIURL)), nil
}

// openBackend opens the configured catalog backend. The caller closes it.
func (c *commandContext) openBackend() (catalog.Backend, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	switch cfg.Catalog.Backend {
	case config.BackendLive:
		client, err := c.apiClient()
		if err != nil {
			return nil, err
		}
		return live.New(client, logger), nil
	case config.BackendLocal:
		backend, err := local.Open(cfg.Paths.DBPath)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, fmt.Errorf("no mediathek snapshot at %s; create one with `rbtv dump`", cfg.Paths.DBPath)
			}
			return nil, err
		}
		return backend, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Catalog.Backend)
}

// openLedger opens the configured completion ledger. The caller closes it.
func (c *commandContext) openLedger() (records.Ledger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	switch cfg.Records.Format {
	case config.RecordFormatMemory:
		return records.NewMemory(), nil
	case config.RecordFormatPlaintext:
		return records.OpenPlaintext(cfg.Paths.RecordPath)
	case config.RecordFormatSQLite:
		return records.Open(cfg.Paths.RecordPath)
	}
	return nil, fmt.Errorf("unknown record format %q", cfg.Records.Format)
}

// openStore opens the SQLite ledger specifically. Reorganize needs its
// iteration and removal surface, which the other formats do not offer.
func (c *commandContext) openStore() (*records.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Records.Format != config.RecordFormatSQLite {
		return nil, fmt.Errorf("reorganize requires records.format = %q, configured is %q",
			config.RecordFormatSQLite, cfg.Records.Format)
	}
	return records.Open(cfg.Paths.RecordPath)
}
