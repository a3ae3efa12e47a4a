package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerConfig_Validate(t *testing.T) {
	t.Run("all required fields set", func(t *testing.T) {
		cfg := &PollerConfig{
			ReleasableCheckerPollingInterval: 1 * time.Minute,
		}
		err := cfg.Validate()
		require.NoError(t, err)
	})

	t.Run("releasable checker polling interval not set - should error", func(t *testing.T) {
		cfg := &PollerConfig{}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "releasable-checker-polling-interval must be positive")
	})

	t.Run("releasable checker polling interval negative - should error", func(t *testing.T) {
		cfg := &PollerConfig{
			ReleasableCheckerPollingInterval: -1 * time.Minute,
		}
		err := cfg.Validate()
		require.Error(t, err)
	})
}
