package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/babylonlabs-io/staking-ledger/internal/clients/custodyclient"
	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/tracing"
	"github.com/babylonlabs-io/staking-ledger/internal/queue"
	"github.com/babylonlabs-io/staking-ledger/internal/services"
)

// ReconcileCmd runs one dispatch and reconciliation round and exits.
// Usage: ./staking-ledger reconcile --config config.yml [--skip-dispatch]
func ReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Publishes pending transfers and syncs pool tokens with custody once",
		Args:  cobra.ExactArgs(0),
		RunE:  reconcile,
	}

	cmd.Flags().Bool("skip-dispatch", false, "Only sync pool tokens, leave pending transfers untouched")

	return cmd
}

func reconcile(cmd *cobra.Command, _ []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())

	skipDispatch, err := cmd.Flags().GetBool("skip-dispatch")
	if err != nil {
		return fmt.Errorf("failed to parse skip-dispatch flag: %w", err)
	}

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbClient, err := openDb(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbClient.Close(context.WithoutCancel(ctx))

	custodyClient, err := custodyclient.NewCustodyClient(&cfg.Custody)
	if err != nil {
		return fmt.Errorf("error while creating custody client: %w", err)
	}

	var publisher queue.TransferPublisher
	if !skipDispatch {
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
		publisher = qm
	}

	service := services.NewService(cfg, dbClient, custodyClient, publisher)
	if err := service.Bootstrap(ctx); err != nil {
		return fmt.Errorf("error while bootstrapping ledger: %w", err)
	}

	if !skipDispatch {
		if err := service.DispatchTransfers(ctx); err != nil {
			return err
		}
	}
	if err := service.ReconcilePoolTokens(ctx); err != nil {
		return err
	}

	pool := service.Engine().Pool()
	log.Ctx(ctx).Info().
		Str("total_shares", pool.TotalShares.String()).
		Str("total_tokens", pool.TotalTokens.String()).
		Msg("reconciliation finished")
	return nil
}
