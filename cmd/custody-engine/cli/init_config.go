package cli

import (
	"errors"
	"fmt"

	"github.com/babylonlabs-io/custody-engine/internal/clients/registryclient"
	"github.com/babylonlabs-io/custody-engine/internal/config"
	"github.com/babylonlabs-io/custody-engine/internal/db"
	dbmodel "github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/babylonlabs-io/custody-engine/internal/observability/tracing"
	"github.com/babylonlabs-io/custody-engine/internal/services"
	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func InitConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Writes the global custody config from the custody section of the config file",
		Long: "Writes the global custody config (max stake, freeze period, points per stake) " +
			"to the store. It runs once per deployment; later runs fail.",
		Args: cobra.ExactArgs(0),
		RunE: initConfig,
	}

	return cmd
}

func initConfig(cmd *cobra.Command, args []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())
	log := log.Ctx(ctx)

	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		return fmt.Errorf("error while loading config file %s: %w", cfgPath, err)
	}

	if err := dbmodel.Setup(ctx, &cfg.Db); err != nil {
		return fmt.Errorf("error while setting up custody db model: %w", err)
	}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return fmt.Errorf("error while creating db client: %w", err)
	}
	defer func() {
		if err := dbClient.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("failed to disconnect db client")
		}
	}()

	service := services.NewService(cfg, dbClient, registryclient.NewClient(&cfg.Registry), nil)
	doc, svcErr := service.InitConfig(ctx, cfg.Custody)
	if svcErr != nil {
		if errors.Is(svcErr, types.ErrConfigAlreadyInitialized) {
			log.Warn().Str("config_id", cfg.Custody.ConfigID).Msg("global config already initialized, nothing to do")
			return nil
		}
		return svcErr
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"initialized global config %s: max_stake=%d freeze_period=%d points_per_stake=%d\n",
		doc.ID, doc.MaxStake, doc.FreezePeriod, doc.PointsPerStake,
	)
	return nil
}
