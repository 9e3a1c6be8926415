package custodyclient

import (
	"context"
)

type CustodyInterface interface {
	// GetStakerBalance queries the custody contract for the stake it holds
	// on behalf of staker.
	GetStakerBalance(ctx context.Context, custody, staker string) (*StakerBalance, error)
	GetLatestBlockNumber(ctx context.Context) (int64, error)
}
