package model

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/babylonlabs-io/staking-ledger/internal/ledger"
)

const (
	LedgerStateCollection    = "ledger_state"
	StakerAccountCollection  = "staker_accounts"
	TransferCollection       = "transfers"
	ContractConfigCollection = "contract_config"
)

// LedgerStateID is the _id of the single ledger state document.
const LedgerStateID = "ledger"

// Amounts are stored as base-10 strings since they may exceed 64 bits.
type LedgerStateDocument struct {
	ID              string `bson:"_id"`
	TotalShares     string `bson:"total_shares"`
	TotalTokens     string `bson:"total_tokens"`
	LockedShares    string `bson:"locked_shares"`
	FeeRate         string `bson:"fee_rate"`
	Developer       string `bson:"developer"`
	LastTransferSeq uint64 `bson:"last_transfer_seq"`
}

func NewLedgerStateDocument(pool ledger.PoolState, fee ledger.FeeConfig) *LedgerStateDocument {
	return &LedgerStateDocument{
		ID:           LedgerStateID,
		TotalShares:  pool.TotalShares.String(),
		TotalTokens:  pool.TotalTokens.String(),
		LockedShares: pool.LockedShares.String(),
		FeeRate:      fee.Rate.String(),
		Developer:    fee.Developer,
	}
}

// Apply updates the document with the effects of t.
func (d *LedgerStateDocument) Apply(t *ledger.Transition) {
	d.TotalShares = t.Pool.TotalShares.String()
	d.TotalTokens = t.Pool.TotalTokens.String()
	d.LockedShares = t.Pool.LockedShares.String()
	if t.Fee != nil {
		d.FeeRate = t.Fee.Rate.String()
		d.Developer = t.Fee.Developer
	}
	if n := len(t.Transfers); n > 0 {
		d.LastTransferSeq = t.Transfers[n-1].Seq
	}
}

func (d *LedgerStateDocument) ToPoolState() (ledger.PoolState, error) {
	totalShares, err := parseUint("total_shares", d.TotalShares)
	if err != nil {
		return ledger.PoolState{}, err
	}
	totalTokens, err := parseUint("total_tokens", d.TotalTokens)
	if err != nil {
		return ledger.PoolState{}, err
	}
	lockedShares, err := parseUint("locked_shares", d.LockedShares)
	if err != nil {
		return ledger.PoolState{}, err
	}

	return ledger.PoolState{
		TotalShares:  totalShares,
		TotalTokens:  totalTokens,
		LockedShares: lockedShares,
	}, nil
}

func (d *LedgerStateDocument) ToFeeConfig() (ledger.FeeConfig, error) {
	rate, err := ledger.ParseFeeRate(d.FeeRate)
	if err != nil {
		return ledger.FeeConfig{}, err
	}
	return ledger.FeeConfig{Rate: rate, Developer: d.Developer}, nil
}

type StakerAccountDocument struct {
	Address string `bson:"_id"`
	Shares  string `bson:"shares"`
	Locked  bool   `bson:"locked"`
}

func FromStakerAccount(acct ledger.StakerAccount) *StakerAccountDocument {
	return &StakerAccountDocument{
		Address: acct.Address,
		Shares:  acct.Shares.String(),
		Locked:  acct.Locked,
	}
}

func (d *StakerAccountDocument) ToStakerAccount() (ledger.StakerAccount, error) {
	shares, err := parseUint("shares", d.Shares)
	if err != nil {
		return ledger.StakerAccount{}, fmt.Errorf("account %s: %w", d.Address, err)
	}
	return ledger.StakerAccount{
		Address: d.Address,
		Shares:  shares,
		Locked:  d.Locked,
	}, nil
}

type ContractConfigDocument struct {
	ID           string `bson:"_id"`
	Owner        string `bson:"owner"`
	PendingOwner string `bson:"pending_owner,omitempty"`
	Token        string `bson:"token"`
	Custody      string `bson:"custody"`
	Self         string `bson:"self"`
}

func parseUint(field, value string) (sdkmath.Uint, error) {
	u, err := sdkmath.ParseUint(value)
	if err != nil {
		return sdkmath.Uint{}, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return u, nil
}
