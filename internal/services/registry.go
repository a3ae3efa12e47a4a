package services

import (
	"context"
	"fmt"

	"github.com/babylonlabs-io/custody-engine/internal/observability/metrics"
	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/rs/zerolog/log"
)

// lockAsset hands the asset's lock capability to delegate and freezes it.
// A failed freeze undoes the delegation.
func (s *Service) lockAsset(ctx context.Context, assetID, owner, delegate string) error {
	if err := s.registry.DelegateLockAuthority(ctx, assetID, owner, delegate); err != nil {
		return fmt.Errorf("%w: delegate lock authority: %w", types.ErrRegistry, err)
	}

	if err := s.registry.SetTransferLock(ctx, assetID, true, delegate); err != nil {
		s.compensate(ctx, "stake", assetID, func(ctx context.Context) error {
			return s.registry.RevokeLockAuthority(ctx, assetID, delegate)
		})
		return fmt.Errorf("%w: set transfer lock: %w", types.ErrRegistry, err)
	}

	return nil
}

// unlockAsset thaws the asset and takes the lock capability back from
// delegate. A failed revoke re-freezes the asset.
func (s *Service) unlockAsset(ctx context.Context, assetID, delegate string) error {
	if err := s.registry.SetTransferLock(ctx, assetID, false, delegate); err != nil {
		return fmt.Errorf("%w: clear transfer lock: %w", types.ErrRegistry, err)
	}

	if err := s.registry.RevokeLockAuthority(ctx, assetID, delegate); err != nil {
		s.compensate(ctx, "unstake", assetID, func(ctx context.Context) error {
			return s.registry.SetTransferLock(ctx, assetID, true, delegate)
		})
		return fmt.Errorf("%w: revoke lock authority: %w", types.ErrRegistry, err)
	}

	return nil
}

// compensate runs the rollback steps in order and stops at the first
// failure. It detaches from ctx cancellation: a request that timed out still
// needs its registry effects undone.
func (s *Service) compensate(ctx context.Context, operation, assetID string, steps ...func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)

	for _, step := range steps {
		if err := step(ctx); err != nil {
			metrics.IncCompensationFailures(operation)
			log.Ctx(ctx).Error().Err(err).
				Str("operation", operation).
				Str("asset_id", assetID).
				Msg("failed to roll back registry changes, asset needs manual reconciliation")
			return
		}
	}

	log.Ctx(ctx).Warn().
		Str("operation", operation).
		Str("asset_id", assetID).
		Msg("registry changes rolled back")
}
