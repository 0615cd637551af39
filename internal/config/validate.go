package config

import (
	"errors"
	"fmt"
	"regexp"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateRecords(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateReorganize(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Backend {
	case BackendLive, BackendLocal:
		return nil
	}
	return fmt.Errorf("catalog.backend must be %q or %q, got %q", BackendLive, BackendLocal, c.Catalog.Backend)
}

func (c *Config) validateRecords() error {
	switch c.Records.Format {
	case RecordFormatMemory, RecordFormatPlaintext, RecordFormatSQLite:
		return nil
	}
	return fmt.Errorf("records.format must be %q, %q or %q, got %q",
		RecordFormatMemory, RecordFormatPlaintext, RecordFormatSQLite, c.Records.Format)
}

func (c *Config) validateDownload() error {
	return ensurePositiveMap(map[string]int{
		"download.retries":                  c.Download.Retries,
		"download.rate_limit_delay_seconds": c.Download.RateLimitDelaySeconds,
	})
}

func (c *Config) validateReorganize() error {
	pattern, err := regexp.Compile(c.Reorganize.TokenRegex)
	if err != nil {
		return fmt.Errorf("reorganize.token_regex: %w", err)
	}
	if pattern.NumSubexp() < 1 {
		return errors.New("reorganize.token_regex must capture the token in a group")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
