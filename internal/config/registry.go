package config

import (
	"fmt"
	"net/url"
	"time"
)

const (
	defaultRegistryTimeout       = 15 * time.Second
	defaultRegistryMaxRetryTimes = 3
	defaultRegistryRetryInterval = 1 * time.Second
)

// RegistryConfig defines how to reach the external asset registry that
// applies and clears transfer locks.
type RegistryConfig struct {
	URL           string        `mapstructure:"url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetryTimes uint          `mapstructure:"max-retry-times"`
	RetryInterval time.Duration `mapstructure:"retry-interval"`
}

func DefaultRegistryConfig() *RegistryConfig {
	return &RegistryConfig{
		Timeout:       defaultRegistryTimeout,
		MaxRetryTimes: defaultRegistryMaxRetryTimes,
		RetryInterval: defaultRegistryRetryInterval,
	}
}

func (cfg *RegistryConfig) Validate() error {
	if cfg.URL == "" {
		return fmt.Errorf("registry URL must be set")
	}

	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return fmt.Errorf("invalid registry URL: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRegistryTimeout
	}

	if cfg.MaxRetryTimes == 0 {
		cfg.MaxRetryTimes = defaultRegistryMaxRetryTimes
	}

	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRegistryRetryInterval
	}

	return nil
}
