package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateImaging(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.TargetSize < 0 {
		return errors.New("ingest.target_size must be zero or positive")
	}
	if c.Ingest.ValidationPct < 0 || c.Ingest.ValidationPct > 1 {
		return errors.New("ingest.validation_pct must be between 0 and 1")
	}
	if c.Ingest.ClassSamplesMax < 0 {
		return errors.New("ingest.class_samples_max must be zero or positive")
	}
	return nil
}

func (c *Config) validateImaging() error {
	switch c.Imaging.Resizer {
	case "native", "magick":
	default:
		return fmt.Errorf("imaging.resizer must be \"native\" or \"magick\", got %q", c.Imaging.Resizer)
	}
	if c.Imaging.JPEGQuality < 1 || c.Imaging.JPEGQuality > 100 {
		return errors.New("imaging.jpeg_quality must be between 1 and 100")
	}
	if c.Imaging.MinFreeSpaceGiB < 0 {
		return errors.New("imaging.min_free_space_gib must be zero or positive")
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
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
