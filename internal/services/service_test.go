package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/staking-ledger/internal/clients/custodyclient"
	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/internal/db"
	"github.com/babylonlabs-io/staking-ledger/internal/queue"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
	"github.com/babylonlabs-io/staking-ledger/tests/mocks"
	"github.com/babylonlabs-io/staking-ledger/testutil"
)

func testAddress(t *testing.T, name string) string {
	return testutil.Address(t, "bbn", name)
}

type testEnv struct {
	service   *Service
	db        *db.BoltDatabase
	custody   *mocks.CustodyInterface
	publisher *mocks.TransferPublisher
	cfg       *config.Config
	dbPath    string

	owner, dev, token, gov, self, alice, bob string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		owner:  testAddress(t, "owner"),
		dev:    testAddress(t, "dev"),
		token:  testAddress(t, "token"),
		gov:    testAddress(t, "gov"),
		self:   testAddress(t, "staking"),
		alice:  testAddress(t, "alice"),
		bob:    testAddress(t, "bob"),
		dbPath: filepath.Join(t.TempDir(), "ledger.db"),
	}
	env.cfg = &config.Config{
		Ledger: config.LedgerConfig{
			FeeRate:       "0.02",
			Owner:         env.owner,
			Dev:           env.dev,
			Token:         env.token,
			Custody:       env.gov,
			Self:          env.self,
			AddressPrefix: "bbn",
		},
		Poller: config.PollerConfig{
			ReconcileInterval:  time.Minute,
			DispatchInterval:   time.Minute,
			TransferBatchLimit: 100,
		},
	}
	env.custody = mocks.NewCustodyInterface(t)
	env.publisher = mocks.NewTransferPublisher(t)
	env.open(t)
	return env
}

func (env *testEnv) open(t *testing.T) {
	t.Helper()

	boltDb, err := db.NewBoltDatabase(env.dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = boltDb.Close(t.Context())
	})

	env.db = boltDb
	env.service = NewService(env.cfg, boltDb, env.custody, env.publisher)
	require.NoError(t, env.service.Bootstrap(t.Context()))
}

func (env *testEnv) execute(t *testing.T, sender string, msg types.ExecuteMsg) (*types.ExecuteResponse, *types.Error) {
	t.Helper()
	return env.service.Execute(t.Context(), &types.ExecuteRequest{Sender: sender, Msg: msg})
}

func stakingHook(t *testing.T) []byte {
	t.Helper()

	hook, err := json.Marshal(types.Cw20HookMsg{StakingTokens: &struct{}{}})
	require.NoError(t, err)
	return hook
}

func (env *testEnv) deposit(t *testing.T, staker string, amount uint64) (*types.ExecuteResponse, *types.Error) {
	t.Helper()
	return env.execute(t, env.token, types.ExecuteMsg{Receive: &types.Cw20ReceiveMsg{
		Sender: staker,
		Amount: sdkmath.NewUint(amount),
		Msg:    stakingHook(t),
	}})
}

func (env *testEnv) withdraw(t *testing.T, staker string, amount *uint64) (*types.ExecuteResponse, *types.Error) {
	t.Helper()

	msg := &types.WithdrawTokenMsg{}
	if amount != nil {
		u := sdkmath.NewUint(*amount)
		msg.Amount = &u
	}
	return env.execute(t, staker, types.ExecuteMsg{WithdrawToken: msg})
}

func ptr[T any](v T) *T {
	return &v
}

func requireErrorCode(t *testing.T, err *types.Error, status int, code types.ErrorCode) {
	t.Helper()

	require.NotNil(t, err)
	assert.Equal(t, status, err.Status)
	assert.Equal(t, code, err.ErrorCode)
}

func TestService_DepositAndWithdraw(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	t.Run("bootstrap deposit", func(t *testing.T) {
		resp, err := env.deposit(t, env.alice, 33333)
		require.Nil(t, err)
		assert.Equal(t, sdkmath.NewUint(32667), *resp.Shares)
		assert.Equal(t, sdkmath.NewUint(666), *resp.FeeShares)
		assert.Len(t, resp.TransferID, 1)

		alice, err := env.service.GetAccountState(ctx, env.alice)
		require.Nil(t, err)
		assert.Equal(t, sdkmath.NewUint(32667), alice.Shares)
		assert.Equal(t, sdkmath.NewUint(32667), alice.AvailableBalance)

		dev, err := env.service.GetAccountState(ctx, env.dev)
		require.Nil(t, err)
		assert.Equal(t, sdkmath.NewUint(666), dev.Shares)

		state, err := env.service.GetState(ctx)
		require.Nil(t, err)
		assert.Equal(t, sdkmath.NewUint(33333), state.TotalShares)
		assert.Equal(t, sdkmath.NewUint(33333), state.TotalTokens)
		assert.Equal(t, "0.020000000000000000", state.FeeRate.String())
	})

	t.Run("partial withdrawal", func(t *testing.T) {
		resp, err := env.withdraw(t, env.alice, ptr(uint64(222)))
		require.Nil(t, err)
		assert.Equal(t, sdkmath.NewUint(222), *resp.Shares)
		assert.Len(t, resp.TransferID, 2)

		alice, err := env.service.GetAccountState(ctx, env.alice)
		require.Nil(t, err)
		assert.Equal(t, sdkmath.NewUint(32445), alice.AvailableBalance)
	})

	t.Run("withdrawal above balance", func(t *testing.T) {
		_, err := env.withdraw(t, env.alice, ptr(uint64(40000)))
		requireErrorCode(t, err, http.StatusBadRequest, types.InsufficientFunds)
	})

	t.Run("withdrawal without stake", func(t *testing.T) {
		_, err := env.withdraw(t, env.bob, ptr(uint64(1)))
		requireErrorCode(t, err, http.StatusNotFound, types.NotFound)
	})

	t.Run("withdraw everything", func(t *testing.T) {
		resp, err := env.withdraw(t, env.alice, nil)
		require.Nil(t, err)
		assert.Equal(t, sdkmath.NewUint(32445), *resp.Amount)

		alice, err := env.service.GetAccountState(ctx, env.alice)
		require.Nil(t, err)
		assert.True(t, alice.Shares.IsZero())
	})

	t.Run("unknown staker reads zeros", func(t *testing.T) {
		bob, err := env.service.GetAccountState(ctx, env.bob)
		require.Nil(t, err)
		assert.True(t, bob.Shares.IsZero())
		assert.True(t, bob.AvailableBalance.IsZero())
		assert.True(t, bob.LockedBalance.IsZero())
	})
}

func TestService_ReceiveAuthorization(t *testing.T) {
	env := newTestEnv(t)

	t.Run("only the token contract may deliver deposits", func(t *testing.T) {
		_, err := env.execute(t, env.alice, types.ExecuteMsg{Receive: &types.Cw20ReceiveMsg{
			Sender: env.alice,
			Amount: sdkmath.NewUint(100),
			Msg:    stakingHook(t),
		}})
		requireErrorCode(t, err, http.StatusForbidden, types.Unauthorized)
	})

	t.Run("hook message is required", func(t *testing.T) {
		for _, hook := range [][]byte{nil, []byte(`{"other":{}}`), []byte(`garbage`)} {
			_, err := env.execute(t, env.token, types.ExecuteMsg{Receive: &types.Cw20ReceiveMsg{
				Sender: env.alice,
				Amount: sdkmath.NewUint(100),
				Msg:    hook,
			}})
			requireErrorCode(t, err, http.StatusBadRequest, types.DataShouldBeGiven)
		}
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := env.deposit(t, env.alice, 0)
		requireErrorCode(t, err, http.StatusBadRequest, types.BadRequest)
	})

	t.Run("invalid sender address", func(t *testing.T) {
		_, err := env.execute(t, "alice", types.ExecuteMsg{WithdrawToken: &types.WithdrawTokenMsg{}})
		requireErrorCode(t, err, http.StatusBadRequest, types.BadRequest)
	})

	t.Run("empty message", func(t *testing.T) {
		_, err := env.execute(t, env.alice, types.ExecuteMsg{})
		requireErrorCode(t, err, http.StatusBadRequest, types.BadRequest)
	})

	state, err := env.service.GetState(t.Context())
	require.Nil(t, err)
	assert.True(t, state.TotalShares.IsZero())
}

func TestService_Ownership(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	newOwner := testAddress(t, "new-owner")

	t.Run("non owner cannot transfer ownership", func(t *testing.T) {
		_, err := env.execute(t, env.alice, types.ExecuteMsg{TransferOwnerShip: &types.TransferOwnerShipMsg{NewOwner: env.alice}})
		requireErrorCode(t, err, http.StatusForbidden, types.Unauthorized)
	})

	t.Run("accept without pending owner", func(t *testing.T) {
		_, err := env.execute(t, env.alice, types.ExecuteMsg{AcceptOwner: &types.AcceptOwnerMsg{}})
		requireErrorCode(t, err, http.StatusForbidden, types.Unauthorized)
	})

	t.Run("invalid new owner", func(t *testing.T) {
		_, err := env.execute(t, env.owner, types.ExecuteMsg{TransferOwnerShip: &types.TransferOwnerShipMsg{NewOwner: "not-an-address"}})
		requireErrorCode(t, err, http.StatusBadRequest, types.BadRequest)
	})

	t.Run("empty new owner cancels the pending transfer", func(t *testing.T) {
		_, err := env.execute(t, env.owner, types.ExecuteMsg{TransferOwnerShip: &types.TransferOwnerShipMsg{NewOwner: env.bob}})
		require.Nil(t, err)
		cfg, err := env.service.GetConfig(ctx)
		require.Nil(t, err)
		assert.Equal(t, env.bob, cfg.PendingOwner)

		_, err = env.execute(t, env.owner, types.ExecuteMsg{TransferOwnerShip: &types.TransferOwnerShipMsg{NewOwner: ""}})
		require.Nil(t, err)
		cfg, err = env.service.GetConfig(ctx)
		require.Nil(t, err)
		assert.Equal(t, env.owner, cfg.Owner)
		assert.Empty(t, cfg.PendingOwner)

		stored, storeErr := env.db.GetContractConfig(ctx)
		require.NoError(t, storeErr)
		assert.Empty(t, stored.PendingOwner)

		_, err = env.execute(t, env.bob, types.ExecuteMsg{AcceptOwner: &types.AcceptOwnerMsg{}})
		requireErrorCode(t, err, http.StatusForbidden, types.Unauthorized)
	})

	t.Run("handshake", func(t *testing.T) {
		_, err := env.execute(t, env.owner, types.ExecuteMsg{TransferOwnerShip: &types.TransferOwnerShipMsg{NewOwner: newOwner}})
		require.Nil(t, err)

		cfg, err := env.service.GetConfig(ctx)
		require.Nil(t, err)
		assert.Equal(t, env.owner, cfg.Owner)
		assert.Equal(t, newOwner, cfg.PendingOwner)

		_, err = env.execute(t, env.alice, types.ExecuteMsg{AcceptOwner: &types.AcceptOwnerMsg{}})
		requireErrorCode(t, err, http.StatusForbidden, types.Unauthorized)

		_, err = env.execute(t, newOwner, types.ExecuteMsg{AcceptOwner: &types.AcceptOwnerMsg{}})
		require.Nil(t, err)

		cfg, err = env.service.GetConfig(ctx)
		require.Nil(t, err)
		assert.Equal(t, newOwner, cfg.Owner)
		assert.Empty(t, cfg.PendingOwner)

		stored, storeErr := env.db.GetContractConfig(ctx)
		require.NoError(t, storeErr)
		assert.Equal(t, newOwner, stored.Owner)
	})

	t.Run("previous owner lost its rights", func(t *testing.T) {
		_, err := env.execute(t, env.owner, types.ExecuteMsg{UpdateFeeRate: &types.UpdateFeeRateMsg{
			NewFeeRate: sdkmath.LegacyMustNewDecFromStr("0.1"),
		}})
		requireErrorCode(t, err, http.StatusForbidden, types.Unauthorized)
	})

	t.Run("fee rate and dev updates", func(t *testing.T) {
		_, err := env.execute(t, newOwner, types.ExecuteMsg{UpdateFeeRate: &types.UpdateFeeRateMsg{
			NewFeeRate: sdkmath.LegacyMustNewDecFromStr("1.1"),
		}})
		requireErrorCode(t, err, http.StatusBadRequest, types.BadRequest)

		_, err = env.execute(t, newOwner, types.ExecuteMsg{UpdateFeeRate: &types.UpdateFeeRateMsg{
			NewFeeRate: sdkmath.LegacyMustNewDecFromStr("0.1"),
		}})
		require.Nil(t, err)

		newDev := testAddress(t, "new-dev")
		_, err = env.execute(t, newOwner, types.ExecuteMsg{UpdateDev: &types.UpdateDevMsg{NewDev: newDev}})
		require.Nil(t, err)

		resp, err := env.deposit(t, env.alice, 1000)
		require.Nil(t, err)
		assert.Equal(t, sdkmath.NewUint(100), *resp.FeeShares)

		dev, err := env.service.GetAccountState(ctx, newDev)
		require.Nil(t, err)
		assert.Equal(t, sdkmath.NewUint(100), dev.Shares)

		cfg, err := env.service.GetConfig(ctx)
		require.Nil(t, err)
		assert.Equal(t, newDev, cfg.Dev)
	})
}

func TestService_LockAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	_, err := env.deposit(t, env.alice, 10000)
	require.Nil(t, err)

	_, err = env.execute(t, env.alice, types.ExecuteMsg{LockAccount: &types.AccountMsg{Staker: env.alice}})
	requireErrorCode(t, err, http.StatusForbidden, types.Unauthorized)

	_, err = env.execute(t, env.owner, types.ExecuteMsg{LockAccount: &types.AccountMsg{Staker: env.alice}})
	require.Nil(t, err)

	alice, err := env.service.GetAccountState(ctx, env.alice)
	require.Nil(t, err)
	assert.True(t, alice.AvailableBalance.IsZero())
	assert.Equal(t, sdkmath.NewUint(9800), alice.LockedBalance)

	_, err = env.withdraw(t, env.alice, ptr(uint64(1)))
	requireErrorCode(t, err, http.StatusBadRequest, types.InsufficientFunds)

	_, err = env.execute(t, env.owner, types.ExecuteMsg{LockAccount: &types.AccountMsg{Staker: env.alice}})
	requireErrorCode(t, err, http.StatusBadRequest, types.BadRequest)

	_, err = env.execute(t, env.owner, types.ExecuteMsg{UnlockAccount: &types.AccountMsg{Staker: env.alice}})
	require.Nil(t, err)

	_, err = env.withdraw(t, env.alice, ptr(uint64(1)))
	require.Nil(t, err)
}

func TestService_BootstrapRestoresState(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	_, err := env.deposit(t, env.alice, 33333)
	require.Nil(t, err)
	_, err = env.withdraw(t, env.alice, ptr(uint64(222)))
	require.Nil(t, err)
	before, err := env.service.GetState(ctx)
	require.Nil(t, err)

	require.NoError(t, env.db.Close(ctx))
	// config changes after the first start do not override stored state
	env.cfg.Ledger.FeeRate = "0.5"
	env.open(t)

	after, err := env.service.GetState(ctx)
	require.Nil(t, err)
	assert.Equal(t, before.TotalShares, after.TotalShares)
	assert.Equal(t, before.TotalTokens, after.TotalTokens)
	assert.Equal(t, "0.020000000000000000", after.FeeRate.String())

	// transfer sequence continues where it stopped
	resp, err := env.deposit(t, env.bob, 100)
	require.Nil(t, err)
	pending, findErr := env.db.FindPendingTransfers(ctx, 10)
	require.NoError(t, findErr)
	require.Len(t, pending, 4)
	assert.Equal(t, resp.TransferID[0], pending[3].ID)
	assert.Equal(t, uint64(4), pending[3].Seq)
}

func TestService_DispatchTransfers(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	_, err := env.deposit(t, env.alice, 33333)
	require.Nil(t, err)
	_, err = env.withdraw(t, env.alice, ptr(uint64(222)))
	require.Nil(t, err)

	t.Run("stops at the first failure", func(t *testing.T) {
		env.publisher.On("SendTransfer", mock.Anything, mock.MatchedBy(func(msg *queue.TransferMessage) bool {
			return msg.Seq == 1
		})).Return(nil).Once()
		env.publisher.On("SendTransfer", mock.Anything, mock.MatchedBy(func(msg *queue.TransferMessage) bool {
			return msg.Seq == 2
		})).Return(errors.New("broker down")).Once()

		require.Error(t, env.service.DispatchTransfers(ctx))

		pending, err := env.db.FindPendingTransfers(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, uint64(2), pending[0].Seq)
	})

	t.Run("publishes the rest in order", func(t *testing.T) {
		var published []uint64
		env.publisher.On("SendTransfer", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				published = append(published, args.Get(1).(*queue.TransferMessage).Seq)
			}).
			Return(nil).Twice()

		require.NoError(t, env.service.DispatchTransfers(ctx))
		assert.Equal(t, []uint64{2, 3}, published)

		count, err := env.db.CountPendingTransfers(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestService_ReconcilePoolTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	res, serviceErr := env.deposit(t, env.alice, 1000)
	require.Nil(t, serviceErr)

	t.Run("skips while transfers are pending", func(t *testing.T) {
		require.NoError(t, env.service.ReconcilePoolTokens(ctx))
		env.custody.AssertNotCalled(t, "GetStakerBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	env.publisher.On("SendTransfer", mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, env.service.DispatchTransfers(ctx))

	t.Run("skips until transfers are executed", func(t *testing.T) {
		require.NoError(t, env.service.ReconcilePoolTokens(ctx))
		env.custody.AssertNotCalled(t, "GetStakerBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("acknowledge executed transfers", func(t *testing.T) {
		require.Len(t, res.TransferID, 1)
		require.Nil(t, env.service.AcknowledgeTransfer(ctx, res.TransferID[0]))

		err := env.service.AcknowledgeTransfer(ctx, res.TransferID[0])
		requireErrorCode(t, err, http.StatusNotFound, types.NotFound)
		err = env.service.AcknowledgeTransfer(ctx, "unknown")
		requireErrorCode(t, err, http.StatusNotFound, types.NotFound)
		err = env.service.AcknowledgeTransfer(ctx, "")
		requireErrorCode(t, err, http.StatusBadRequest, types.BadRequest)
	})

	t.Run("custody error", func(t *testing.T) {
		env.custody.On("GetStakerBalance", mock.Anything, env.gov, env.self).
			Return(nil, errors.New("rpc unavailable")).Once()
		require.Error(t, env.service.ReconcilePoolTokens(ctx))
	})

	t.Run("rewards raise the exchange rate", func(t *testing.T) {
		env.custody.On("GetStakerBalance", mock.Anything, env.gov, env.self).
			Return(&custodyclient.StakerBalance{
				Balance:   sdkmath.NewUint(1500),
				Share:     sdkmath.NewUint(1000),
				Locked:    sdkmath.ZeroUint(),
				Available: sdkmath.NewUint(1500),
			}, nil).Once()
		require.NoError(t, env.service.ReconcilePoolTokens(ctx))

		state, err := env.service.GetState(ctx)
		require.Nil(t, err)
		assert.Equal(t, sdkmath.NewUint(1500), state.TotalTokens)

		alice, err := env.service.GetAccountState(ctx, env.alice)
		require.Nil(t, err)
		assert.Equal(t, sdkmath.NewUint(1470), alice.AvailableBalance)
	})
}

func TestService_ReconcileDuringDeposit(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	res, serviceErr := env.deposit(t, env.alice, 1000)
	require.Nil(t, serviceErr)
	env.publisher.On("SendTransfer", mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, env.service.DispatchTransfers(ctx))
	require.Nil(t, env.service.AcknowledgeTransfer(ctx, res.TransferID[0]))

	// bob's deposit commits while the custody balance is in flight
	env.custody.On("GetStakerBalance", mock.Anything, env.gov, env.self).
		Run(func(mock.Arguments) {
			_, err := env.deposit(t, env.bob, 1000)
			require.Nil(t, err)
		}).
		Return(&custodyclient.StakerBalance{
			Balance:   sdkmath.NewUint(1000),
			Share:     sdkmath.NewUint(1000),
			Locked:    sdkmath.ZeroUint(),
			Available: sdkmath.NewUint(1000),
		}, nil).Once()
	require.NoError(t, env.service.ReconcilePoolTokens(ctx))

	state, err := env.service.GetState(ctx)
	require.Nil(t, err)
	assert.Equal(t, sdkmath.NewUint(2000), state.TotalShares)
	assert.Equal(t, sdkmath.NewUint(2000), state.TotalTokens)

	bob, err := env.service.GetAccountState(ctx, env.bob)
	require.Nil(t, err)
	assert.Equal(t, sdkmath.NewUint(980), bob.AvailableBalance)

	t.Run("next round waits for bob's transfer", func(t *testing.T) {
		require.NoError(t, env.service.ReconcilePoolTokens(ctx))
		env.custody.AssertNumberOfCalls(t, "GetStakerBalance", 1)
	})
}

func TestService_Healthcheck(t *testing.T) {
	env := newTestEnv(t)

	t.Run("all dependencies reachable", func(t *testing.T) {
		env.publisher.On("Ping", mock.Anything).Return(nil).Once()
		env.custody.On("GetLatestBlockNumber", mock.Anything).Return(int64(120), nil).Once()
		require.NoError(t, env.service.Healthcheck(t.Context()))
	})

	t.Run("queue closed", func(t *testing.T) {
		env.publisher.On("Ping", mock.Anything).Return(errors.New("closed")).Once()
		require.Error(t, env.service.Healthcheck(t.Context()))
	})

	t.Run("custody node unreachable", func(t *testing.T) {
		env.publisher.On("Ping", mock.Anything).Return(nil).Once()
		env.custody.On("GetLatestBlockNumber", mock.Anything).Return(int64(0), errors.New("connection refused")).Once()
		err := env.service.Healthcheck(t.Context())
		require.ErrorContains(t, err, "custody node is not reachable")
	})
}
