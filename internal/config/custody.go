package config

import (
	"errors"
	"time"
)

type CustodyConfig struct {
	// RPCAddr is the CometBFT RPC endpoint of the chain running the custody contract.
	RPCAddr       string        `mapstructure:"rpc-addr"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetryTimes uint          `mapstructure:"maxretrytimes"`
	RetryInterval time.Duration `mapstructure:"retryinterval"`
}

func (cfg *CustodyConfig) Validate() error {
	if cfg.RPCAddr == "" {
		return errors.New("custody rpc-addr is required")
	}

	if cfg.Timeout <= 0 {
		return errors.New("custody timeout must be positive")
	}

	if cfg.MaxRetryTimes <= 0 {
		return errors.New("custody maxretrytimes must be positive")
	}

	if cfg.RetryInterval <= 0 {
		return errors.New("custody retryinterval must be positive")
	}

	return nil
}
