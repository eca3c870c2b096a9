package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	c.normalizeIngest()
	c.normalizeImaging()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if env := strings.TrimSpace(os.Getenv("IMAGESET_OUTPUT_DIR")); env != "" && c.Paths.OutputDir == defaultOutputDir {
		c.Paths.OutputDir = env
	}

	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.InputDir) != "" {
		if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
			return fmt.Errorf("paths.input_dir: %w", err)
		}
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() error {
	if strings.TrimSpace(c.Catalog.Path) == "" {
		c.Catalog.Path = filepath.Join(c.Paths.LogDir, "catalog.db")
		return nil
	}
	expanded, err := expandPath(c.Catalog.Path)
	if err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}
	c.Catalog.Path = expanded
	return nil
}

func (c *Config) normalizeIngest() {
	if strings.TrimSpace(c.Ingest.FilePattern) == "" {
		c.Ingest.FilePattern = defaultFilePattern
	}
	if c.Ingest.Workers < 0 {
		c.Ingest.Workers = 0
	}
}

func (c *Config) normalizeImaging() {
	c.Imaging.Resizer = strings.ToLower(strings.TrimSpace(c.Imaging.Resizer))
	if c.Imaging.Resizer == "" {
		c.Imaging.Resizer = defaultResizer
	}
	if strings.TrimSpace(c.Imaging.MagickBinary) == "" {
		c.Imaging.MagickBinary = defaultMagickBinary
	}
	if c.Imaging.JPEGQuality == 0 {
		c.Imaging.JPEGQuality = defaultJPEGQuality
	}
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
