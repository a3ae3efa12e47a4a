package services

import (
	"context"
	"fmt"

	"github.com/babylonlabs-io/custody-engine/internal/observability/metrics"
	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/babylonlabs-io/custody-engine/internal/utils/poller"
	"github.com/rs/zerolog/log"
)

func (s *Service) StartReleasableChecker(ctx context.Context) {
	releasablePoller := poller.NewPoller(
		"releasable_checker",
		s.cfg.Poller.ReleasableCheckerPollingInterval,
		s.checkReleasable,
	)
	go releasablePoller.Start(ctx)
}

func (s *Service) checkReleasable(ctx context.Context) error {
	count, err := s.countReleasable(ctx)
	if err != nil {
		return err
	}
	metrics.RecordReleasableRecordsCount(count)
	log.Ctx(ctx).Debug().Int64("count", count).Msg("releasable custody records")
	return nil
}

// countReleasable counts records whose elapsed days exceed the freeze period,
// i.e. staked at least (freeze_period+1) whole days ago.
func (s *Service) countReleasable(ctx context.Context) (int64, error) {
	globalCfg, err := s.GlobalConfig(ctx)
	if err != nil {
		if isKind(err, types.ErrConfigNotInitialized) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := s.now().Unix() - (int64(globalCfg.FreezePeriod)+1)*types.SecondsPerDay + 1
	count, dbErr := s.db.CountCustodyRecordsStakedBefore(ctx, cutoff)
	if dbErr != nil {
		return 0, fmt.Errorf("failed to count releasable custody records: %w", dbErr)
	}
	return count, nil
}
