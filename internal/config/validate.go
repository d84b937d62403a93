package config

import (
	"fmt"

	"tooltally/internal/pipeline"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateResolver(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateResolver() error {
	if c.Resolver.FuzzyThreshold <= 0 || c.Resolver.FuzzyThreshold > 1 {
		return pipeline.Wrap(pipeline.ErrConfiguration, "config", "resolver.fuzzy_threshold",
			fmt.Sprintf("%v is outside (0, 1]", c.Resolver.FuzzyThreshold), nil)
	}
	if c.Resolver.FuzzyMargin < 0 || c.Resolver.FuzzyMargin >= 1 {
		return pipeline.Wrap(pipeline.ErrConfiguration, "config", "resolver.fuzzy_margin",
			fmt.Sprintf("%v is outside [0, 1)", c.Resolver.FuzzyMargin), nil)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return pipeline.Wrap(pipeline.ErrConfiguration, "config", "logging.format",
			fmt.Sprintf("unsupported value %q", c.Logging.Format), nil)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return pipeline.Wrap(pipeline.ErrConfiguration, "config", "logging.level",
			fmt.Sprintf("unsupported value %q", c.Logging.Level), nil)
	}
	return nil
}
