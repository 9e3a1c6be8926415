package ledger

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// mulDivFloor returns floor(a * b / c). c must be non-zero.
func mulDivFloor(a, b, c sdkmath.Uint) sdkmath.Uint {
	num := new(big.Int).Mul(a.BigInt(), b.BigInt())
	return sdkmath.NewUintFromBigInt(num.Quo(num, c.BigInt()))
}

// mulDivCeil returns ceil(a * b / c). c must be non-zero.
func mulDivCeil(a, b, c sdkmath.Uint) sdkmath.Uint {
	num := new(big.Int).Mul(a.BigInt(), b.BigInt())
	quo, rem := new(big.Int).QuoRem(num, c.BigInt(), new(big.Int))
	if rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	return sdkmath.NewUintFromBigInt(quo)
}
