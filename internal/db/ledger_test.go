//go:build integration

package db_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/staking-ledger/internal/db"
	"github.com/babylonlabs-io/staking-ledger/internal/ledger"
)

func TestMongoLedger(t *testing.T) {
	ctx := t.Context()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	t.Run("not initialized", func(t *testing.T) {
		_, err := testDB.LoadLedger(ctx)
		require.True(t, db.IsNotFoundError(err))
		_, err = testDB.GetContractConfig(ctx)
		require.True(t, db.IsNotFoundError(err))
	})

	require.NoError(t, testDB.Initialize(ctx, testContractConfig(), testFeeConfig()))

	t.Run("initialize twice", func(t *testing.T) {
		err := testDB.Initialize(ctx, testContractConfig(), testFeeConfig())
		require.True(t, db.IsDuplicateKeyError(err))
	})

	engine, err := ledger.NewEngine(ledger.Config{
		Fee:     testFeeConfig(),
		Self:    "staking",
		Custody: "gov",
	}, testDB)
	require.NoError(t, err)

	_, err = engine.Deposit(ctx, "alice", sdkmath.NewUint(33333))
	require.NoError(t, err)
	_, err = engine.Withdraw(ctx, "alice", sdkmath.NewUint(222))
	require.NoError(t, err)

	t.Run("load committed state", func(t *testing.T) {
		snapshot, err := testDB.LoadLedger(ctx)
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewUint(33111), snapshot.Pool.TotalShares)
		assert.Equal(t, sdkmath.NewUint(33111), snapshot.Pool.TotalTokens)
		assert.Equal(t, uint64(3), snapshot.LastTransferSeq)
		require.Len(t, snapshot.Accounts, 2)
		assert.Equal(t, "alice", snapshot.Accounts[0].Address)
		assert.Equal(t, sdkmath.NewUint(32445), snapshot.Accounts[0].Shares)
		assert.Equal(t, "dev", snapshot.Accounts[1].Address)
	})

	t.Run("dispatch transfers", func(t *testing.T) {
		transfers, err := testDB.FindPendingTransfers(ctx, 10)
		require.NoError(t, err)
		require.Len(t, transfers, 3)
		assert.Equal(t, uint64(1), transfers[0].Seq)

		require.NoError(t, testDB.MarkTransferDispatched(ctx, transfers[0].ID))
		err = testDB.MarkTransferDispatched(ctx, transfers[0].ID)
		require.True(t, db.IsNotFoundError(err))

		count, err := testDB.CountPendingTransfers(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})

	t.Run("settle transfers", func(t *testing.T) {
		pending, err := testDB.FindPendingTransfers(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		err = testDB.MarkTransferExecuted(ctx, pending[0].ID)
		require.True(t, db.IsNotFoundError(err))

		transfers, err := testDB.FindPendingTransfers(ctx, 0)
		require.NoError(t, err)
		for _, transfer := range transfers {
			require.NoError(t, testDB.MarkTransferDispatched(ctx, transfer.ID))
		}

		unsettled, err := testDB.CountUnsettledTransfers(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, unsettled)

		require.NoError(t, testDB.MarkTransferExecuted(ctx, pending[0].ID))
		err = testDB.MarkTransferExecuted(ctx, pending[0].ID)
		require.True(t, db.IsNotFoundError(err))

		unsettled, err = testDB.CountUnsettledTransfers(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, unsettled)
	})

	t.Run("ownership", func(t *testing.T) {
		cfg, err := testDB.GetContractConfig(ctx)
		require.NoError(t, err)
		cfg.PendingOwner = "next"
		require.NoError(t, testDB.SaveContractConfig(ctx, cfg))

		stored, err := testDB.GetContractConfig(ctx)
		require.NoError(t, err)
		assert.Equal(t, "next", stored.PendingOwner)
	})
}
