package config

import (
	"errors"
	"time"
)

const defaultTransferBatchLimit = 100

type PollerConfig struct {
	ReconcileInterval time.Duration `mapstructure:"reconcile-interval"`
	DispatchInterval  time.Duration `mapstructure:"dispatch-interval"`
	// TransferBatchLimit caps the number of transfers published per dispatch tick.
	TransferBatchLimit int64 `mapstructure:"transfer-batch-limit"`
}

func (cfg *PollerConfig) Validate() error {
	if cfg.ReconcileInterval <= 0 {
		return errors.New("reconcile-interval must be positive")
	}

	if cfg.DispatchInterval <= 0 {
		return errors.New("dispatch-interval must be positive")
	}

	if cfg.TransferBatchLimit <= 0 {
		cfg.TransferBatchLimit = defaultTransferBatchLimit
	}

	return nil
}
