package ledger

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// FeeConfig is the developer fee taken from every deposit.
type FeeConfig struct {
	Rate      sdkmath.LegacyDec
	Developer string
}

func (c FeeConfig) Validate() error {
	if err := ValidateFeeRate(c.Rate); err != nil {
		return err
	}
	if c.Developer == "" {
		return fmt.Errorf("%w: developer address is required", ErrInvalidConfig)
	}
	return nil
}

// ValidateFeeRate checks the rate lies in [0, 1].
func ValidateFeeRate(rate sdkmath.LegacyDec) error {
	if rate.IsNil() {
		return fmt.Errorf("%w: fee rate is required", ErrInvalidConfig)
	}
	if rate.IsNegative() || rate.GT(sdkmath.LegacyOneDec()) {
		return fmt.Errorf("%w: fee rate %s out of limits", ErrInvalidConfig, rate)
	}
	return nil
}

// ParseFeeRate parses a decimal string such as "0.02" and validates it.
func ParseFeeRate(s string) (sdkmath.LegacyDec, error) {
	rate, err := sdkmath.LegacyNewDecFromStr(s)
	if err != nil {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: fee rate %q: %v", ErrInvalidConfig, s, err)
	}
	if err := ValidateFeeRate(rate); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return rate, nil
}

// FeeSplitter splits a deposit into the developer fee and the staker's net amount.
type FeeSplitter struct {
	rate sdkmath.LegacyDec
}

func NewFeeSplitter(rate sdkmath.LegacyDec) (*FeeSplitter, error) {
	if err := ValidateFeeRate(rate); err != nil {
		return nil, err
	}
	return &FeeSplitter{rate: rate}, nil
}

// Split returns floor(amount * rate) as the fee and the rest as net.
func (f *FeeSplitter) Split(amount sdkmath.Uint) (fee, net sdkmath.Uint) {
	feeInt := f.rate.MulInt(sdkmath.NewIntFromBigInt(amount.BigInt())).TruncateInt()
	fee = sdkmath.NewUintFromBigInt(feeInt.BigInt())
	return fee, amount.Sub(fee)
}

func (f *FeeSplitter) Rate() sdkmath.LegacyDec {
	return f.rate
}
