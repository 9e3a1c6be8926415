package db

import (
	"context"

	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
	"github.com/babylonlabs-io/staking-ledger/internal/ledger"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

// LedgerSnapshot is the committed ledger state read back at startup.
type LedgerSnapshot struct {
	Pool            ledger.PoolState
	Accounts        []ledger.StakerAccount
	Fee             ledger.FeeConfig
	LastTransferSeq uint64
}

type DbInterface interface {
	Ping(ctx context.Context) error
	// Initialize stores the contract config and an empty ledger with the given
	// fee config. Returns DuplicateKeyError if the ledger already exists.
	Initialize(ctx context.Context, cfg *types.ContractConfig, fee ledger.FeeConfig) error
	// LoadLedger returns NotFoundError if the ledger was never initialized.
	LoadLedger(ctx context.Context) (*LedgerSnapshot, error)
	// Commit writes the pool, the touched accounts, the fee config if it
	// changed and the emitted transfers, all or nothing.
	Commit(ctx context.Context, t *ledger.Transition) error
	GetContractConfig(ctx context.Context) (*types.ContractConfig, error)
	SaveContractConfig(ctx context.Context, cfg *types.ContractConfig) error
	// FindPendingTransfers returns undispatched transfers in seq order.
	FindPendingTransfers(ctx context.Context, limit int64) ([]model.TransferDocument, error)
	// MarkTransferDispatched returns NotFoundError if no pending transfer has the id.
	MarkTransferDispatched(ctx context.Context, id string) error
	CountPendingTransfers(ctx context.Context) (int64, error)
	// MarkTransferExecuted returns NotFoundError unless the transfer was
	// dispatched and not yet marked executed.
	MarkTransferExecuted(ctx context.Context, id string) error
	// CountUnsettledTransfers counts transfers not yet marked executed,
	// dispatched or not.
	CountUnsettledTransfers(ctx context.Context) (int64, error)
	Close(ctx context.Context) error
}

var (
	_ DbInterface    = (*Database)(nil)
	_ DbInterface    = (*BoltDatabase)(nil)
	_ DbInterface    = (*DbWithMetrics)(nil)
	_ ledger.Journal = (DbInterface)(nil)
)
