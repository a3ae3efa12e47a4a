package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/babylonlabs-io/custody-engine/internal/config"
	"github.com/babylonlabs-io/custody-engine/internal/db"
	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/rs/zerolog/log"
)

// InitConfig writes the config singleton. It can only run once per config id.
func (s *Service) InitConfig(ctx context.Context, custodyCfg config.CustodyConfig) (*model.GlobalConfigDocument, *types.Error) {
	if custodyCfg.ConfigID == "" {
		custodyCfg.ConfigID = s.cfg.Custody.ConfigID
	}
	if custodyCfg.ConfigID != s.cfg.Custody.ConfigID {
		return nil, types.NewErrorWithMsg(
			http.StatusBadRequest, types.ValidationError,
			fmt.Sprintf("config id must be %q", s.cfg.Custody.ConfigID),
		)
	}
	if err := custodyCfg.Validate(); err != nil {
		return nil, types.NewError(http.StatusBadRequest, types.ValidationError, err)
	}

	doc := &model.GlobalConfigDocument{
		ID:             custodyCfg.ConfigID,
		MaxStake:       custodyCfg.MaxStake,
		FreezePeriod:   custodyCfg.FreezePeriod,
		PointsPerStake: custodyCfg.PointsPerStake,
	}

	if err := s.db.SaveGlobalConfig(ctx, doc); err != nil {
		if db.IsDuplicateKeyError(err) {
			return nil, types.NewDomainError(types.ErrConfigAlreadyInitialized, "config id %s", doc.ID)
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to save global config: %w", err))
	}
	s.globalCfg.Store(doc)

	log.Ctx(ctx).Info().
		Str("config_id", doc.ID).
		Uint32("max_stake", doc.MaxStake).
		Uint32("freeze_period", doc.FreezePeriod).
		Uint32("points_per_stake", doc.PointsPerStake).
		Msg("global config initialized")

	return doc, nil
}

// GlobalConfig returns the cached config, reading it from the store on first use.
func (s *Service) GlobalConfig(ctx context.Context) (*model.GlobalConfigDocument, *types.Error) {
	if cfg := s.globalCfg.Load(); cfg != nil {
		return cfg, nil
	}

	cfg, err := s.db.GetGlobalConfig(ctx, s.cfg.Custody.ConfigID)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewDomainError(types.ErrConfigNotInitialized, "config id %s", s.cfg.Custody.ConfigID)
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to get global config: %w", err))
	}
	s.globalCfg.Store(cfg)

	return cfg, nil
}

func isKind(err *types.Error, kind error) bool {
	return err != nil && errors.Is(err, kind)
}
