package queue

import (
	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
)

// TransferMessage is the instruction published for the external signer.
// Consumers must execute messages in Seq order and may use ID to drop
// redeliveries.
type TransferMessage struct {
	ID         string `json:"id"`
	Seq        uint64 `json:"seq"`
	Kind       string `json:"kind"`
	Transition string `json:"transition"`
	From       string `json:"from"`
	To         string `json:"to"`
	Amount     string `json:"amount"`
	CreatedAt  int64  `json:"created_at"`
}

func NewTransferMessage(doc *model.TransferDocument) *TransferMessage {
	return &TransferMessage{
		ID:         doc.ID,
		Seq:        doc.Seq,
		Kind:       doc.Kind,
		Transition: doc.Transition,
		From:       doc.From,
		To:         doc.To,
		Amount:     doc.Amount,
		CreatedAt:  doc.CreatedAt,
	}
}
