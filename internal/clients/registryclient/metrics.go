package registryclient

import (
	"context"
	"time"

	"github.com/babylonlabs-io/custody-engine/internal/observability/metrics"
)

type registryClientWithMetrics struct {
	registry RegistryInterface
}

func NewRegistryClientWithMetrics(registry RegistryInterface) *registryClientWithMetrics {
	return &registryClientWithMetrics{registry: registry}
}

func (r *registryClientWithMetrics) DelegateLockAuthority(ctx context.Context, assetID, owner, delegate string) error {
	return r.run("DelegateLockAuthority", func() error {
		return r.registry.DelegateLockAuthority(ctx, assetID, owner, delegate)
	})
}

func (r *registryClientWithMetrics) SetTransferLock(ctx context.Context, assetID string, locked bool, authority string) error {
	return r.run("SetTransferLock", func() error {
		return r.registry.SetTransferLock(ctx, assetID, locked, authority)
	})
}

func (r *registryClientWithMetrics) RevokeLockAuthority(ctx context.Context, assetID, authority string) error {
	return r.run("RevokeLockAuthority", func() error {
		return r.registry.RevokeLockAuthority(ctx, assetID, authority)
	})
}

func (r *registryClientWithMetrics) GetAsset(ctx context.Context, assetID string) (result *AssetState, err error) {
	//nolint:errcheck
	r.run("GetAsset", func() error {
		result, err = r.registry.GetAsset(ctx, assetID)
		return err
	})
	return
}

func (r *registryClientWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	metrics.RecordRegistryClientLatency(time.Since(startTime), method, err != nil)
	return err
}
