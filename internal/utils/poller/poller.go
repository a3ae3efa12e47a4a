package poller

import (
	"context"
	"time"

	"github.com/babylonlabs-io/custody-engine/internal/observability/metrics"
	"github.com/rs/zerolog/log"
)

type Poller struct {
	name       string
	interval   time.Duration
	quit       chan struct{}
	pollMethod func(ctx context.Context) error
}

func NewPoller(name string, interval time.Duration, pollMethod func(ctx context.Context) error) *Poller {
	return &Poller{
		name:       name,
		interval:   interval,
		quit:       make(chan struct{}),
		pollMethod: pollMethod,
	}
}

func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log.Ctx(ctx).Info().Str("poller", p.name).Msgf("Starting poller with interval %s", p.interval)

	for {
		select {
		case <-ticker.C:
			p.poll(ctx)
		case <-ctx.Done():
			log.Ctx(ctx).Info().Str("poller", p.name).Msg("Poller stopped due to context cancellation")
			return
		case <-p.quit:
			log.Ctx(ctx).Info().Str("poller", p.name).Msg("Poller stopped")
			return
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	log.Ctx(ctx).Debug().Str("poller", p.name).Msg("Executing poll method")

	startTime := time.Now()
	err := p.pollMethod(ctx)
	metrics.RecordPollerDuration(time.Since(startTime), p.name, err != nil)

	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("poller", p.name).Msg("Error polling")
		return
	}
	log.Ctx(ctx).Debug().Str("poller", p.name).Msg("Poll method executed successfully")
}

func (p *Poller) Stop() {
	close(p.quit)
}
