package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeRecords()
	if err := c.normalizeDownload(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.BasePath, err = expandPath(c.Paths.BasePath); err != nil {
		return fmt.Errorf("paths.base_path: %w", err)
	}
	if c.Paths.DBPath, err = expandPath(c.Paths.DBPath); err != nil {
		return fmt.Errorf("paths.db_path: %w", err)
	}
	if c.Paths.RecordPath, err = expandPath(c.Paths.RecordPath); err != nil {
		return fmt.Errorf("paths.record_path: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	c.Catalog.Backend = strings.ToLower(strings.TrimSpace(c.Catalog.Backend))
	if c.Catalog.Backend == "" {
		c.Catalog.Backend = defaultBackend
	}
	c.Catalog.APIURL = strings.TrimSpace(c.Catalog.APIURL)
}

func (c *Config) normalizeRecords() {
	c.Records.Format = strings.ToLower(strings.TrimSpace(c.Records.Format))
	if c.Records.Format == "" {
		c.Records.Format = defaultRecordFormat
	}
}

func (c *Config) normalizeDownload() error {
	if strings.TrimSpace(c.Download.OutDirTemplate) == "" {
		c.Download.OutDirTemplate = defaultOutDirTemplate
	}
	if strings.TrimSpace(c.Download.OutFileTemplate) == "" {
		c.Download.OutFileTemplate = defaultOutFileTemplate
	}
	if c.Download.MissingValue == "" {
		c.Download.MissingValue = defaultMissingValue
	}
	if c.Download.CookieFile != "" {
		var err error
		if c.Download.CookieFile, err = expandPath(c.Download.CookieFile); err != nil {
			return fmt.Errorf("download.cookie_file: %w", err)
		}
	}
	return nil
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
