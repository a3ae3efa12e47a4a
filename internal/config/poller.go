package config

import (
	"errors"
	"time"
)

type PollerConfig struct {
	ReleasableCheckerPollingInterval time.Duration `mapstructure:"releasable-checker-polling-interval"`
}

func (cfg *PollerConfig) Validate() error {
	if cfg.ReleasableCheckerPollingInterval <= 0 {
		return errors.New("releasable-checker-polling-interval must be positive")
	}

	return nil
}
