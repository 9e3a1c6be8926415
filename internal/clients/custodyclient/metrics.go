package custodyclient

import (
	"context"
	"time"

	"github.com/babylonlabs-io/staking-ledger/internal/observability/metrics"
)

type custodyClientWithMetrics struct {
	custody CustodyInterface
}

func NewCustodyClientWithMetrics(custody CustodyInterface) *custodyClientWithMetrics {
	return &custodyClientWithMetrics{custody: custody}
}

func (c *custodyClientWithMetrics) GetStakerBalance(ctx context.Context, custody, staker string) (*StakerBalance, error) {
	return runCustodyClientMethodWithMetrics("GetStakerBalance", func() (*StakerBalance, error) {
		return c.custody.GetStakerBalance(ctx, custody, staker)
	})
}

func (c *custodyClientWithMetrics) GetLatestBlockNumber(ctx context.Context) (int64, error) {
	return runCustodyClientMethodWithMetrics("GetLatestBlockNumber", func() (int64, error) {
		return c.custody.GetLatestBlockNumber(ctx)
	})
}

func runCustodyClientMethodWithMetrics[T any](method string, f func() (T, error)) (T, error) {
	startTime := time.Now()
	result, err := f()
	duration := time.Since(startTime)

	metrics.RecordCustodyClientLatency(duration, method, err != nil)
	return result, err
}
