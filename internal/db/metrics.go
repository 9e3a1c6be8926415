package db

import (
	"context"
	"time"

	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
	"github.com/babylonlabs-io/staking-ledger/internal/ledger"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) Close(ctx context.Context) error {
	return d.db.Close(ctx)
}

func (d *DbWithMetrics) Initialize(ctx context.Context, cfg *types.ContractConfig, fee ledger.FeeConfig) error {
	return d.run("Initialize", func() error {
		return d.db.Initialize(ctx, cfg, fee)
	})
}

func (d *DbWithMetrics) LoadLedger(ctx context.Context) (result *LedgerSnapshot, err error) {
	//nolint:errcheck
	d.run("LoadLedger", func() error {
		result, err = d.db.LoadLedger(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) Commit(ctx context.Context, t *ledger.Transition) error {
	return d.run("Commit", func() error {
		return d.db.Commit(ctx, t)
	})
}

func (d *DbWithMetrics) GetContractConfig(ctx context.Context) (result *types.ContractConfig, err error) {
	//nolint:errcheck
	d.run("GetContractConfig", func() error {
		result, err = d.db.GetContractConfig(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveContractConfig(ctx context.Context, cfg *types.ContractConfig) error {
	return d.run("SaveContractConfig", func() error {
		return d.db.SaveContractConfig(ctx, cfg)
	})
}

func (d *DbWithMetrics) FindPendingTransfers(ctx context.Context, limit int64) (result []model.TransferDocument, err error) {
	//nolint:errcheck
	d.run("FindPendingTransfers", func() error {
		result, err = d.db.FindPendingTransfers(ctx, limit)
		return err
	})
	return
}

func (d *DbWithMetrics) MarkTransferDispatched(ctx context.Context, id string) error {
	return d.run("MarkTransferDispatched", func() error {
		return d.db.MarkTransferDispatched(ctx, id)
	})
}

func (d *DbWithMetrics) CountPendingTransfers(ctx context.Context) (result int64, err error) {
	//nolint:errcheck
	d.run("CountPendingTransfers", func() error {
		result, err = d.db.CountPendingTransfers(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) MarkTransferExecuted(ctx context.Context, id string) error {
	return d.run("MarkTransferExecuted", func() error {
		return d.db.MarkTransferExecuted(ctx, id)
	})
}

func (d *DbWithMetrics) CountUnsettledTransfers(ctx context.Context) (result int64, err error) {
	//nolint:errcheck
	d.run("CountUnsettledTransfers", func() error {
		result, err = d.db.CountUnsettledTransfers(ctx)
		return err
	})
	return
}

// run is private method that executes passed lambda function and send metrics data with spent time, method name
// and failure status (based on whether error was returned from the lambda)
func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	failure := err != nil
	// not found is an expected outcome for lookups
	if IsNotFoundError(err) {
		failure = false
	}
	metrics.RecordDbLatency(duration, method, failure)
	return err
}
