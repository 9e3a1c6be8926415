package model

import (
	"github.com/babylonlabs-io/staking-ledger/internal/ledger"
)

type TransferDocument struct {
	ID         string `bson:"_id"`
	Seq        uint64 `bson:"seq"`
	Kind       string `bson:"kind"`
	From       string `bson:"from"`
	To         string `bson:"to"`
	Amount     string `bson:"amount"`
	Transition string `bson:"transition"`
	Dispatched bool   `bson:"dispatched"`
	// Executed is set once the signer reports the transfer landed on chain.
	Executed bool `bson:"executed"`
	// CreatedAt, DispatchedAt and ExecutedAt are unix milliseconds.
	CreatedAt    int64 `bson:"created_at"`
	DispatchedAt int64 `bson:"dispatched_at,omitempty"`
	ExecutedAt   int64 `bson:"executed_at,omitempty"`
}

func FromTransfer(transfer ledger.Transfer, transition ledger.TransitionKind, createdAt int64) *TransferDocument {
	return &TransferDocument{
		ID:         transfer.ID,
		Seq:        transfer.Seq,
		Kind:       transfer.Kind.String(),
		From:       transfer.From,
		To:         transfer.To,
		Amount:     transfer.Amount.String(),
		Transition: transition.String(),
		CreatedAt:  createdAt,
	}
}

func (d *TransferDocument) ToTransfer() (ledger.Transfer, error) {
	amount, err := parseUint("amount", d.Amount)
	if err != nil {
		return ledger.Transfer{}, err
	}
	return ledger.Transfer{
		ID:     d.ID,
		Seq:    d.Seq,
		Kind:   ledger.TransferKind(d.Kind),
		From:   d.From,
		To:     d.To,
		Amount: amount,
	}, nil
}
