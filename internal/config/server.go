package config

import (
	"fmt"
	"time"

	"github.com/babylonlabs-io/custody-engine/internal/auth"
)

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle-timeout"`
	// AuthMaxSkew bounds the age of a signed request.
	AuthMaxSkew time.Duration `mapstructure:"auth-max-skew"`
	// AdminKeys are the x-only public keys allowed to call POST /v1/config.
	// Empty leaves init-config as the only way to write the global config.
	AdminKeys []string `mapstructure:"admin-keys"`
}

func (cfg *ServerConfig) Validate() error {
	if cfg.Host == "" {
		return fmt.Errorf("server host must be set")
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("server port must be between 0 and 65535")
	}

	if cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}

	if cfg.AuthMaxSkew < 0 {
		return fmt.Errorf("server auth-max-skew must not be negative")
	}
	if cfg.AuthMaxSkew == 0 {
		cfg.AuthMaxSkew = auth.DefaultMaxSkew
	}

	for i, key := range cfg.AdminKeys {
		id, err := auth.ParseIdentity(key)
		if err != nil {
			return fmt.Errorf("invalid server admin key %q: %w", key, err)
		}
		cfg.AdminKeys[i] = id
	}

	return nil
}

func (cfg *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}
