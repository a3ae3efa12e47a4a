package services

import (
	"context"

	"github.com/babylonlabs-io/custody-engine/internal/observability/metrics"
	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/rs/zerolog/log"
)

// emitCustodyEvent runs after commit. The operation already happened, so a
// publish failure is only logged and counted.
func (s *Service) emitCustodyEvent(ctx context.Context, event *types.CustodyEvent) {
	if err := s.publisher.PublishCustodyEvent(ctx, event); err != nil {
		metrics.RecordQueueSendError()
		log.Ctx(ctx).Error().Err(err).
			Stringer("event_type", event.EventType).
			Str("asset_id", event.AssetID).
			Msg("failed to publish custody event")
	}
}
