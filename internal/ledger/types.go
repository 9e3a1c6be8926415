package ledger

import (
	sdkmath "cosmossdk.io/math"
)

// StakerAccount is a staker's claim on the pool. Accounts are created on the
// first credit and kept forever, including with zero shares.
type StakerAccount struct {
	Address string
	Shares  sdkmath.Uint
	Locked  bool
}

func newStakerAccount(address string) StakerAccount {
	return StakerAccount{
		Address: address,
		Shares:  sdkmath.ZeroUint(),
	}
}

// PoolState holds the pool totals. TotalShares always equals the sum of all
// account shares and LockedShares the sum of shares held by locked accounts.
type PoolState struct {
	TotalShares  sdkmath.Uint
	TotalTokens  sdkmath.Uint
	LockedShares sdkmath.Uint
}

func NewPoolState() PoolState {
	return PoolState{
		TotalShares:  sdkmath.ZeroUint(),
		TotalTokens:  sdkmath.ZeroUint(),
		LockedShares: sdkmath.ZeroUint(),
	}
}

// IsEmpty reports whether the pool has no exchange rate yet, in which case
// shares are minted 1:1 with tokens.
func (p PoolState) IsEmpty() bool {
	return p.TotalShares.IsZero() || p.TotalTokens.IsZero()
}

// SharesForDeposit converts a token amount to shares at the current rate, rounding down.
func (p PoolState) SharesForDeposit(tokens sdkmath.Uint) sdkmath.Uint {
	if p.IsEmpty() {
		return tokens
	}
	return mulDivFloor(tokens, p.TotalShares, p.TotalTokens)
}

// SharesForWithdrawal returns how many shares must be burned to release the
// given tokens, rounding up so the pool never pays out more than it burns.
func (p PoolState) SharesForWithdrawal(tokens sdkmath.Uint) sdkmath.Uint {
	return mulDivCeil(tokens, p.TotalShares, p.TotalTokens)
}

// TokenValue converts shares to tokens at the current rate, rounding down.
func (p PoolState) TokenValue(shares sdkmath.Uint) sdkmath.Uint {
	if p.TotalShares.IsZero() {
		return sdkmath.ZeroUint()
	}
	return mulDivFloor(shares, p.TotalTokens, p.TotalShares)
}

// AccountState is the query view of a single staker.
type AccountState struct {
	Shares           sdkmath.Uint `json:"shares"`
	AvailableBalance sdkmath.Uint `json:"available_balance"`
	LockedBalance    sdkmath.Uint `json:"locked_balance"`
}

// PoolSummary is the query view of the whole pool.
type PoolSummary struct {
	FeeRate          sdkmath.LegacyDec `json:"feerate"`
	TotalShares      sdkmath.Uint      `json:"total_shares"`
	TotalTokens      sdkmath.Uint      `json:"total_tokens"`
	AvailableBalance sdkmath.Uint      `json:"available_balance"`
	LockedBalance    sdkmath.Uint      `json:"locked_balance"`
}
