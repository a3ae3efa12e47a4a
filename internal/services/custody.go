package services

import (
	"context"
	"fmt"

	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/babylonlabs-io/custody-engine/internal/types"
)

// Eligibility describes what an unstake of the asset would do right now.
type Eligibility struct {
	Record          *model.CustodyRecordDocument
	State           types.CustodyState
	TimeElapsedDays uint64
	Releasable      bool
	// ReleasableAt is the first unix second at which unstake succeeds.
	ReleasableAt int64
	// PendingPoints is what an unstake would credit now. Zero while frozen.
	PendingPoints uint64
}

func (s *Service) GetCustodyRecord(ctx context.Context, assetID string) (*model.CustodyRecordDocument, *types.Error) {
	record, err := s.db.GetCustodyRecord(ctx, assetID)
	if err != nil {
		return nil, recordLookupError(err, assetID)
	}
	return record, nil
}

func (s *Service) ListCustodyRecords(ctx context.Context, owner string) ([]*model.CustodyRecordDocument, *types.Error) {
	records, err := s.db.GetCustodyRecordsByOwner(ctx, owner)
	if err != nil {
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to list custody records: %w", err))
	}
	return records, nil
}

func (s *Service) Eligibility(ctx context.Context, assetID string) (*Eligibility, *types.Error) {
	globalCfg, err := s.GlobalConfig(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.GetCustodyRecord(ctx, assetID)
	if err != nil {
		return nil, err
	}

	elapsed := types.ElapsedDays(record.StakedAt, s.now().Unix())
	eligibility := &Eligibility{
		Record:          record,
		State:           types.StateCustody,
		TimeElapsedDays: elapsed,
		Releasable:      elapsed > uint64(globalCfg.FreezePeriod),
		ReleasableAt:    record.StakedAt + (int64(globalCfg.FreezePeriod)+1)*types.SecondsPerDay,
	}
	if eligibility.Releasable {
		eligibility.PendingPoints, err = pointsFor(elapsed, globalCfg.PointsPerStake)
		if err != nil {
			return nil, err
		}
	}

	return eligibility, nil
}
