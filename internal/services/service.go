package services

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/babylonlabs-io/staking-ledger/internal/clients/custodyclient"
	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/internal/db"
	"github.com/babylonlabs-io/staking-ledger/internal/ledger"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-ledger/internal/queue"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
	"github.com/babylonlabs-io/staking-ledger/internal/utils/poller"
)

type Service struct {
	cfg     *config.Config
	db      db.DbInterface
	custody custodyclient.CustodyInterface
	queue   queue.TransferPublisher

	// engine is set by Bootstrap
	engine *ledger.Engine

	// contractMu serializes ownership changes
	contractMu sync.Mutex
	contract   *types.ContractConfig
}

func NewService(
	cfg *config.Config,
	db db.DbInterface,
	custody custodyclient.CustodyInterface,
	qm queue.TransferPublisher,
) *Service {
	return &Service{
		cfg:     cfg,
		db:      db,
		custody: custody,
		queue:   qm,
	}
}

// StartPollers runs the custody reconciler and the transfer dispatcher until
// ctx is done. Bootstrap must have succeeded before.
func (s *Service) StartPollers(ctx context.Context) {
	reconciler := poller.NewPoller(
		"reconciler",
		s.cfg.Poller.ReconcileInterval,
		metrics.RecordPollerDuration("reconcile_pool_tokens", s.ReconcilePoolTokens),
	)
	dispatcher := poller.NewPoller(
		"dispatcher",
		s.cfg.Poller.DispatchInterval,
		metrics.RecordPollerDuration("dispatch_transfers", s.DispatchTransfers),
	)

	var wg conc.WaitGroup
	for _, p := range []*poller.Poller{reconciler, dispatcher} {
		wg.Go(func() {
			p.Start(ctx)
		})
	}
	wg.Wait()
}

// Engine exposes the bootstrapped engine for read-only commands.
func (s *Service) Engine() *ledger.Engine {
	return s.engine
}
