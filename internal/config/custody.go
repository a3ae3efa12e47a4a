package config

import (
	"errors"
)

const DefaultConfigID = "config"

// CustodyConfig holds the values written by init-config. Once the global
// config document exists these values are no longer read.
type CustodyConfig struct {
	ConfigID       string `mapstructure:"config-id"`
	MaxStake       uint32 `mapstructure:"max-stake"`
	FreezePeriod   uint32 `mapstructure:"freeze-period"`
	PointsPerStake uint32 `mapstructure:"points-per-stake"`
}

func (cfg *CustodyConfig) Validate() error {
	if cfg.ConfigID == "" {
		cfg.ConfigID = DefaultConfigID
	}

	if cfg.MaxStake == 0 {
		return errors.New("max-stake must be positive")
	}

	return nil
}
