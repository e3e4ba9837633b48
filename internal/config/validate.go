package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valpere/mojify/internal/splitter"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSplit(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateAlignment(); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateSplit() error {
	for key, name := range map[string]string{"split.method_from": c.Split.MethodFrom, "split.method_to": c.Split.MethodTo} {
		if _, err := splitter.New(name, splitter.Options{}); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.Workers < 1 {
		return errors.New("translation.workers must be at least 1")
	}
	if c.Translation.TimeoutSeconds < 0 {
		return errors.New("translation.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateAlignment() error {
	if c.Alignment.BatchSize < 1 {
		return errors.New("alignment.batch_size must be positive")
	}
	if c.Alignment.ExtraBatches < 0 {
		return errors.New("alignment.extra_batches must not be negative")
	}
	if strings.TrimSpace(c.Alignment.Engine) == "" {
		return errors.New("alignment.engine must be set")
	}
	return nil
}
