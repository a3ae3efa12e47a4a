package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/babylonlabs-io/custody-engine/internal/api"
	"github.com/babylonlabs-io/custody-engine/internal/clients/registryclient"
	"github.com/babylonlabs-io/custody-engine/internal/config"
	"github.com/babylonlabs-io/custody-engine/internal/db"
	"github.com/babylonlabs-io/custody-engine/internal/db/memdb"
	dbmodel "github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/babylonlabs-io/custody-engine/internal/observability/metrics"
	"github.com/babylonlabs-io/custody-engine/internal/observability/tracing"
	"github.com/babylonlabs-io/custody-engine/internal/queue"
	"github.com/babylonlabs-io/custody-engine/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var inMemory bool

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the custody engine API server",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}
	cmd.Flags().BoolVar(&inMemory, "in-memory", false,
		"keep all state in process and use an in-memory asset registry (development only)")

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	dbClient, registry, cleanup, err := newBackends(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating backends")
	}
	defer cleanup()

	var publisher queue.EventPublisher = queue.NoopPublisher{}
	if cfg.Queue != nil {
		qm, err := queue.NewQueueManager(cfg.Queue)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize event publisher")
		}
		defer qm.Shutdown()
		publisher = qm
	}

	service := services.NewService(cfg, dbClient, registry, publisher)
	if inMemory {
		// nothing survives a restart, so seed the config from the file
		if _, err := service.InitConfig(ctx, cfg.Custody); err != nil {
			log.Fatal().Err(err).Msg("error while initializing in-memory global config")
		}
	}
	if err := service.LoadGlobalConfig(ctx); err != nil {
		log.Fatal().Err(err).Msg("error while loading global config")
	}

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	service.StartBackgroundJobs(ctx)

	server := api.New(&cfg.Server, service)

	var wg conc.WaitGroup
	wg.Go(func() {
		if err := server.Start(ctx); err != nil {
			log.Error().Err(err).Msg("api server stopped")
			stop()
		}
	})
	wg.Go(func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shut down api server")
		}
	})
	wg.Wait()

	log.Info().Msg("custody engine stopped")
	return nil
}

func newBackends(
	ctx context.Context, cfg *config.Config,
) (db.DbInterface, registryclient.RegistryInterface, func(), error) {
	if inMemory {
		log.Ctx(ctx).Warn().Msg("running with in-memory store and registry, state is lost on exit")
		return db.NewDbWithMetrics(memdb.New()),
			registryclient.NewRegistryClientWithMetrics(registryclient.NewInMemoryRegistry(true)),
			func() {},
			nil
	}

	if err := dbmodel.Setup(ctx, &cfg.Db); err != nil {
		return nil, nil, nil, fmt.Errorf("error while setting up custody db model: %w", err)
	}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error while creating db client: %w", err)
	}
	cleanup := func() {
		if err := dbClient.Disconnect(context.Background()); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to disconnect db client")
		}
	}

	registry := registryclient.NewClient(&cfg.Registry)

	return db.NewDbWithMetrics(dbClient), registryclient.NewRegistryClientWithMetrics(registry), cleanup, nil
}
