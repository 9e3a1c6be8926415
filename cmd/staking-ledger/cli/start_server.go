package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/babylonlabs-io/staking-ledger/internal/api"
	"github.com/babylonlabs-io/staking-ledger/internal/clients/custodyclient"
	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/tracing"
	"github.com/babylonlabs-io/staking-ledger/internal/queue"
	"github.com/babylonlabs-io/staking-ledger/internal/services"
)

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the staking ledger api server, reconciler and transfer dispatcher",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		return fmt.Errorf("error while loading config file %s: %w", cfgPath, err)
	}

	dbClient, err := openDb(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(context.WithoutCancel(ctx)); err != nil {
			log.Error().Err(err).Msg("error while closing db client")
		}
	}()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("error while creating zap logger: %w", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	qm, err := queue.NewQueueManager(&cfg.Queue, zapLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize transfer publisher: %w", err)
	}
	defer qm.Shutdown()

	var custodyClient custodyclient.CustodyInterface
	custodyClient, err = custodyclient.NewCustodyClient(&cfg.Custody)
	if err != nil {
		return fmt.Errorf("error while creating custody client: %w", err)
	}
	custodyClient = custodyclient.NewCustodyClientWithMetrics(custodyClient)

	service := services.NewService(cfg, dbClient, custodyClient, qm)
	if err := service.Bootstrap(ctx); err != nil {
		return fmt.Errorf("error while bootstrapping ledger: %w", err)
	}

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	server := api.New(&cfg.Server, service)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(server.Start)
	p.Go(func(ctx context.Context) error {
		service.StartPollers(ctx)
		return nil
	})
	if err := p.Wait(); err != nil {
		return err
	}

	log.Info().Msg("staking ledger stopped")
	return nil
}
