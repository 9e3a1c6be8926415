package custodyclient

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	abci "github.com/cometbft/cometbft/abci/types"
	ctypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/cosmos/gogoproto/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/staking-ledger/internal/config"
)

type fakeABCIClient struct {
	calls    int
	failures int
	code     uint32
	data     []byte
	lastReq  wasmtypes.QuerySmartContractStateRequest
	height   int64
}

func (f *fakeABCIClient) ABCIQuery(_ context.Context, path string, data []byte) (*ctypes.ResultABCIQuery, error) {
	f.calls++
	if path != smartContractStatePath {
		return nil, errors.New("unexpected path " + path)
	}
	if f.calls <= f.failures {
		return nil, errors.New("connection refused")
	}
	if err := proto.Unmarshal(data, &f.lastReq); err != nil {
		return nil, err
	}

	value, err := proto.Marshal(&wasmtypes.QuerySmartContractStateResponse{Data: f.data})
	if err != nil {
		return nil, err
	}
	return &ctypes.ResultABCIQuery{
		Response: abci.ResponseQuery{Code: f.code, Value: value, Log: "contract error"},
	}, nil
}

func (f *fakeABCIClient) Status(_ context.Context) (*ctypes.ResultStatus, error) {
	f.calls++
	return &ctypes.ResultStatus{SyncInfo: ctypes.SyncInfo{LatestBlockHeight: f.height}}, nil
}

func newTestClient(rpc abciClient) *CustodyClient {
	return &CustodyClient{
		rpc: rpc,
		cfg: &config.CustodyConfig{
			RPCAddr:       "http://localhost:26657",
			Timeout:       time.Second,
			MaxRetryTimes: 3,
			RetryInterval: time.Millisecond,
		},
	}
}

func TestGetStakerBalance(t *testing.T) {
	const response = `{"balance":"33333","share":"33000","locked_balance":[[1,{"vote":"yes","balance":"1000"}],[4,{"vote":"no","balance":"333"}]]}`

	t.Run("decodes balance with locked votes", func(t *testing.T) {
		rpc := &fakeABCIClient{data: []byte(response), failures: 1}
		client := newTestClient(rpc)

		balance, err := client.GetStakerBalance(t.Context(), "gov", "staking")
		require.NoError(t, err)
		assert.Equal(t, 2, rpc.calls)
		assert.Equal(t, sdkmath.NewUint(33333), balance.Balance)
		assert.Equal(t, sdkmath.NewUint(33000), balance.Share)
		assert.Equal(t, sdkmath.NewUint(1333), balance.Locked)
		assert.Equal(t, sdkmath.NewUint(32000), balance.Available)

		assert.Equal(t, "gov", rpc.lastReq.Address)
		var query map[string]map[string]string
		require.NoError(t, json.Unmarshal(rpc.lastReq.QueryData, &query))
		assert.Equal(t, "staking", query["staker"]["address"])
	})

	t.Run("contract error is not retried", func(t *testing.T) {
		rpc := &fakeABCIClient{data: []byte(response), code: 5}
		client := newTestClient(rpc)

		_, err := client.GetStakerBalance(t.Context(), "gov", "staking")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "contract error")
		assert.Equal(t, 1, rpc.calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		rpc := &fakeABCIClient{data: []byte(response), failures: 10}
		client := newTestClient(rpc)

		_, err := client.GetStakerBalance(t.Context(), "gov", "staking")
		require.Error(t, err)
		assert.Equal(t, 3, rpc.calls)
	})
}

func TestGetLatestBlockNumber(t *testing.T) {
	client := newTestClient(&fakeABCIClient{height: 42})
	height, err := client.GetLatestBlockNumber(t.Context())
	require.NoError(t, err)
	assert.EqualValues(t, 42, height)
}

func TestParseStakerResponse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		locked  uint64
	}{
		{name: "no locked balance", data: `{"balance":"10","share":"10","locked_balance":[]}`, locked: 0},
		{name: "null locked balance", data: `{"balance":"10","share":"10","locked_balance":null}`, locked: 0},
		{name: "missing balance", data: `{"share":"10","locked_balance":[]}`, wantErr: true},
		{name: "malformed pair", data: `{"balance":"10","share":"10","locked_balance":[[1]]}`, wantErr: true},
		{name: "locked above balance", data: `{"balance":"10","share":"10","locked_balance":[[1,{"vote":"yes","balance":"11"}]]}`, wantErr: true},
		{name: "not json", data: `balance`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balance, err := parseStakerResponse([]byte(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.locked, balance.Locked.Uint64())
		})
	}
}
