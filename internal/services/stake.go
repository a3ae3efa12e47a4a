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

// Stake moves assetID into custody for owner: the registry transfer-locks it
// under the owner's custody delegate, then the record and ledger are
// committed together.
func (s *Service) Stake(ctx context.Context, owner, assetID string) (*model.CustodyRecordDocument, *types.Error) {
	start := time.Now()
	record, err := s.stake(ctx, owner, assetID)
	metrics.RecordCustodyOperation(time.Since(start), "stake", errorCode(err))

	if err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("owner", owner).
			Str("asset_id", assetID).
			Msg("stake rejected")
	}
	return record, err
}

func (s *Service) stake(ctx context.Context, owner, assetID string) (*model.CustodyRecordDocument, *types.Error) {
	if owner == "" || assetID == "" {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.ValidationError, "owner and asset_id are required")
	}

	globalCfg, err := s.GlobalConfig(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.LockAll(userLockKey(owner), assetLockKey(assetID))
	defer unlock()

	ledger, dbErr := s.db.GetUserLedger(ctx, owner)
	if dbErr != nil {
		return nil, ledgerLookupError(dbErr, owner)
	}

	next, err := checkStakeEligibility(globalCfg, ledger)
	if err != nil {
		return nil, err
	}

	delegate := DeriveCustodyDelegate(globalCfg.ID, owner)
	if regErr := s.lockAsset(ctx, assetID, owner, delegate); regErr != nil {
		return nil, types.NewError(http.StatusBadGateway, types.BadGateway, regErr)
	}

	record := model.NewCustodyRecordDocument(assetID, owner, s.now().Unix())
	if dbErr := s.db.CommitStake(ctx, record, ledger, next); dbErr != nil {
		if db.IsDuplicateKeyError(dbErr) {
			// the lock belongs to the live record, leave it alone
			return nil, types.NewDomainError(types.ErrAssetAlreadyStaked, "asset %s", assetID)
		}
		s.compensate(ctx, "stake", assetID,
			func(ctx context.Context) error {
				return s.registry.SetTransferLock(ctx, assetID, false, delegate)
			},
			func(ctx context.Context) error {
				return s.registry.RevokeLockAuthority(ctx, assetID, delegate)
			},
		)
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to commit stake: %w", dbErr))
	}

	log.Ctx(ctx).Info().
		Str("owner", owner).
		Str("asset_id", assetID).
		Int64("staked_at", record.StakedAt).
		Uint32("amount_staked", next.AmountStaked).
		Msg("asset staked")

	s.emitCustodyEvent(ctx, &types.CustodyEvent{
		EventType: types.EventAssetStaked,
		Owner:     owner,
		AssetID:   assetID,
		StakedAt:  record.StakedAt,
		Timestamp: record.StakedAt,
	})

	return record, nil
}
