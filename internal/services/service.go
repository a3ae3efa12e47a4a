package services

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/babylonlabs-io/custody-engine/internal/clients/registryclient"
	"github.com/babylonlabs-io/custody-engine/internal/config"
	"github.com/babylonlabs-io/custody-engine/internal/db"
	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/babylonlabs-io/custody-engine/internal/queue"
	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/babylonlabs-io/custody-engine/internal/utils/keylock"
	"github.com/rs/zerolog/log"
)

type Service struct {
	cfg       *config.Config
	db        db.DbInterface
	registry  registryclient.RegistryInterface
	publisher queue.EventPublisher
	locks     *keylock.KeyLock

	// globalCfg is loaded once and passed into every operation
	globalCfg atomic.Pointer[model.GlobalConfigDocument]
	now       func() time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock used for staked_at and elapsed days.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(
	cfg *config.Config,
	db db.DbInterface,
	registry registryclient.RegistryInterface,
	publisher queue.EventPublisher,
	opts ...Option,
) *Service {
	if publisher == nil {
		publisher = queue.NoopPublisher{}
	}

	s := &Service{
		cfg:       cfg,
		db:        db,
		registry:  registry,
		publisher: publisher,
		locks:     keylock.New(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartBackgroundJobs launches the pollers. It returns immediately.
func (s *Service) StartBackgroundJobs(ctx context.Context) {
	s.StartReleasableChecker(ctx)
}

func (s *Service) Ping(ctx context.Context) *types.Error {
	if err := s.db.Ping(ctx); err != nil {
		return types.NewError(http.StatusServiceUnavailable, types.InternalServiceError, err)
	}
	return nil
}

// LoadGlobalConfig reads the config singleton. A missing config is not an
// error at startup: it can still be created through InitConfig.
func (s *Service) LoadGlobalConfig(ctx context.Context) *types.Error {
	_, err := s.GlobalConfig(ctx)
	if err != nil && !isKind(err, types.ErrConfigNotInitialized) {
		return err
	}
	if err != nil {
		log.Ctx(ctx).Warn().
			Str("config_id", s.cfg.Custody.ConfigID).
			Msg("global config not initialized, staking is disabled until init-config runs")
	}
	return nil
}

func userLockKey(owner string) string {
	return "user:" + owner
}

func assetLockKey(assetID string) string {
	return "asset:" + assetID
}

func errorCode(err *types.Error) string {
	if err == nil {
		return ""
	}
	return string(err.ErrorCode)
}
