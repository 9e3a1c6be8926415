package config

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

type LedgerConfig struct {
	// FeeRate is a decimal string in [0, 1], e.g. "0.02".
	FeeRate string `mapstructure:"fee-rate"`
	Owner   string `mapstructure:"owner"`
	Dev     string `mapstructure:"dev"`
	// Token is the CW20 contract allowed to deliver deposits.
	Token string `mapstructure:"token"`
	// Custody is the governance contract holding pooled tokens.
	Custody string `mapstructure:"custody"`
	// Self is the ledger's own address.
	Self          string `mapstructure:"self"`
	AddressPrefix string `mapstructure:"address-prefix"`
}

func (cfg *LedgerConfig) Validate() error {
	rate, err := sdkmath.LegacyNewDecFromStr(cfg.FeeRate)
	if err != nil {
		return fmt.Errorf("invalid fee-rate %q: %w", cfg.FeeRate, err)
	}
	if rate.IsNegative() || rate.GT(sdkmath.LegacyOneDec()) {
		return fmt.Errorf("fee-rate must be between 0 and 1, got %s", cfg.FeeRate)
	}

	if cfg.Owner == "" {
		return errors.New("ledger owner is required")
	}
	if cfg.Dev == "" {
		return errors.New("ledger dev is required")
	}
	if cfg.Token == "" {
		return errors.New("ledger token contract is required")
	}
	if cfg.Custody == "" {
		return errors.New("ledger custody contract is required")
	}
	if cfg.Self == "" {
		return errors.New("ledger self address is required")
	}
	if cfg.AddressPrefix == "" {
		return errors.New("ledger address-prefix is required")
	}

	return nil
}
