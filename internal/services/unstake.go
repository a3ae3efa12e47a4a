package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/babylonlabs-io/custody-engine/internal/db"
	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/babylonlabs-io/custody-engine/internal/observability/metrics"
	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/rs/zerolog/log"
)

type UnstakeResult struct {
	Record          *model.CustodyRecordDocument
	Ledger          *model.UserLedgerDocument
	TimeElapsedDays uint64
	PointsEarned    uint64
}

// Unstake releases assetID from custody and credits the caller with points
// for every whole day it was held. Only the recorded owner can unstake, and
// only once more than freeze_period days have passed.
func (s *Service) Unstake(ctx context.Context, caller, assetID string) (*UnstakeResult, *types.Error) {
	start := time.Now()
	result, err := s.unstake(ctx, caller, assetID)
	metrics.RecordCustodyOperation(time.Since(start), "unstake", errorCode(err))

	if err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("caller", caller).
			Str("asset_id", assetID).
			Msg("unstake rejected")
	}
	return result, err
}

func (s *Service) unstake(ctx context.Context, caller, assetID string) (*UnstakeResult, *types.Error) {
	if caller == "" || assetID == "" {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.ValidationError, "owner and asset_id are required")
	}

	globalCfg, err := s.GlobalConfig(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.LockAll(userLockKey(caller), assetLockKey(assetID))
	defer unlock()

	record, dbErr := s.db.GetCustodyRecord(ctx, assetID)
	if dbErr != nil {
		return nil, recordLookupError(dbErr, assetID)
	}
	if record.Owner != caller {
		return nil, types.NewDomainError(types.ErrNotOwner, "asset %s", assetID)
	}

	ledger, dbErr := s.db.GetUserLedger(ctx, caller)
	if dbErr != nil {
		return nil, ledgerLookupError(dbErr, caller)
	}

	outcome, err := computeUnstake(globalCfg, record, ledger, s.now().Unix())
	if err != nil {
		return nil, err
	}

	delegate := DeriveCustodyDelegate(globalCfg.ID, record.Owner)
	if regErr := s.unlockAsset(ctx, assetID, delegate); regErr != nil {
		return nil, types.NewError(http.StatusBadGateway, types.BadGateway, regErr)
	}

	if dbErr := s.db.CommitUnstake(ctx, record, ledger, outcome.Ledger); dbErr != nil {
		s.compensate(ctx, "unstake", assetID,
			func(ctx context.Context) error {
				return s.registry.DelegateLockAuthority(ctx, assetID, record.Owner, delegate)
			},
			func(ctx context.Context) error {
				return s.registry.SetTransferLock(ctx, assetID, true, delegate)
			},
		)
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to commit unstake: %w", dbErr))
	}
	metrics.AddPointsCredited(outcome.PointsEarned)

	log.Ctx(ctx).Info().
		Str("owner", caller).
		Str("asset_id", assetID).
		Uint64("time_elapsed_days", outcome.TimeElapsedDays).
		Uint64("points_earned", outcome.PointsEarned).
		Uint64("points", outcome.Ledger.Points).
		Msg("asset unstaked")

	s.emitCustodyEvent(ctx, &types.CustodyEvent{
		EventType:       types.EventAssetUnstaked,
		Owner:           caller,
		AssetID:         assetID,
		StakedAt:        record.StakedAt,
		TimeElapsedDays: outcome.TimeElapsedDays,
		PointsEarned:    outcome.PointsEarned,
		Timestamp:       s.now().Unix(),
	})

	return &UnstakeResult{
		Record:          record,
		Ledger:          outcome.Ledger,
		TimeElapsedDays: outcome.TimeElapsedDays,
		PointsEarned:    outcome.PointsEarned,
	}, nil
}

func recordLookupError(err error, assetID string) *types.Error {
	if db.IsNotFoundError(err) {
		return types.NewDomainError(types.ErrCustodyRecordNotFound, "asset %s", assetID)
	}
	return types.NewInternalServiceError(fmt.Errorf("failed to get custody record: %w", err))
}
