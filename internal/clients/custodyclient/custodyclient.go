package custodyclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avast/retry-go/v4"
	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	ctypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/cosmos/gogoproto/proto"
	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-ledger/internal/config"
)

const smartContractStatePath = "/cosmwasm.wasm.v1.Query/SmartContractState"

// abciClient is the subset of the CometBFT rpc client used here.
type abciClient interface {
	ABCIQuery(ctx context.Context, path string, data []byte) (*ctypes.ResultABCIQuery, error)
	Status(ctx context.Context) (*ctypes.ResultStatus, error)
}

type rpcClientAdapter struct {
	rpc *rpchttp.HTTP
}

func (a *rpcClientAdapter) ABCIQuery(ctx context.Context, path string, data []byte) (*ctypes.ResultABCIQuery, error) {
	return a.rpc.ABCIQuery(ctx, path, data)
}

func (a *rpcClientAdapter) Status(ctx context.Context) (*ctypes.ResultStatus, error) {
	return a.rpc.Status(ctx)
}

type CustodyClient struct {
	rpc abciClient
	cfg *config.CustodyConfig
}

func NewCustodyClient(cfg *config.CustodyConfig) (*CustodyClient, error) {
	rpc, err := rpchttp.NewWithTimeout(cfg.RPCAddr, "/websocket", uint(cfg.Timeout.Seconds()))
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc client for %s: %w", cfg.RPCAddr, err)
	}
	return &CustodyClient{
		rpc: &rpcClientAdapter{rpc: rpc},
		cfg: cfg,
	}, nil
}

func (c *CustodyClient) GetStakerBalance(ctx context.Context, custody, staker string) (*StakerBalance, error) {
	queryData, err := json.Marshal(stakerQuery{Staker: stakerQueryArgs{Address: staker}})
	if err != nil {
		return nil, err
	}

	data, err := c.querySmart(ctx, custody, queryData)
	if err != nil {
		return nil, fmt.Errorf("failed to query staker %s on %s: %w", staker, custody, err)
	}
	return parseStakerResponse(data)
}

func (c *CustodyClient) GetLatestBlockNumber(ctx context.Context) (int64, error) {
	callForStatus := func() (*ctypes.ResultStatus, error) {
		return c.rpc.Status(ctx)
	}

	status, err := clientCallWithRetry(callForStatus, c.cfg)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block number by fetching status: %w", err)
	}
	return status.SyncInfo.LatestBlockHeight, nil
}

func (c *CustodyClient) querySmart(ctx context.Context, contract string, queryData []byte) ([]byte, error) {
	req := &wasmtypes.QuerySmartContractStateRequest{
		Address:   contract,
		QueryData: queryData,
	}
	reqBz, err := proto.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode smart query: %w", err)
	}

	callForQuery := func() (*ctypes.ResultABCIQuery, error) {
		res, err := c.rpc.ABCIQuery(ctx, smartContractStatePath, reqBz)
		if err != nil {
			return nil, err
		}
		if !res.Response.IsOK() {
			// contract errors are deterministic, retrying will not help
			return nil, retry.Unrecoverable(fmt.Errorf(
				"abci query failed with code %d: %s", res.Response.Code, res.Response.Log,
			))
		}
		return res, nil
	}

	res, err := clientCallWithRetry(callForQuery, c.cfg)
	if err != nil {
		return nil, err
	}

	var resp wasmtypes.QuerySmartContractStateResponse
	if err := proto.Unmarshal(res.Response.Value, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode smart query response: %w", err)
	}
	return resp.Data, nil
}

func clientCallWithRetry[T any](
	call retry.RetryableFuncWithData[*T], cfg *config.CustodyConfig,
) (*T, error) {
	result, err := retry.DoWithData(call, retry.Attempts(cfg.MaxRetryTimes), retry.Delay(cfg.RetryInterval), retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("failed to call the custody RPC client")
		}))

	if err != nil {
		return nil, err
	}
	return result, nil
}
