package ledger

import (
	"context"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
)

type TransitionKind string

const (
	TransitionDeposit   TransitionKind = "deposit"
	TransitionWithdraw  TransitionKind = "withdraw"
	TransitionLock      TransitionKind = "lock"
	TransitionUnlock    TransitionKind = "unlock"
	TransitionPoolSync  TransitionKind = "pool_sync"
	TransitionFeeConfig TransitionKind = "fee_config"
)

func (k TransitionKind) String() string {
	return string(k)
}

type TransferKind string

const (
	// TransferCustodyDeposit moves deposited tokens from the ledger into custody.
	TransferCustodyDeposit TransferKind = "custody_deposit"
	// TransferCustodyRelease withdraws tokens from custody back to the ledger.
	TransferCustodyRelease TransferKind = "custody_release"
	// TransferPayout sends released tokens to the staker.
	TransferPayout TransferKind = "payout"
)

func (k TransferKind) String() string {
	return string(k)
}

// Transfer is an outbound token movement emitted by a transition. Seq orders
// transfers across transitions and must be honoured by whoever executes them.
type Transfer struct {
	ID     string
	Seq    uint64
	Kind   TransferKind
	From   string
	To     string
	Amount sdkmath.Uint
}

// Transition is the complete effect of one engine operation: the pool after
// the operation, every account it touched, the fee config if it changed and
// the transfers it emitted.
type Transition struct {
	Kind      TransitionKind
	Pool      PoolState
	Accounts  []StakerAccount
	Fee       *FeeConfig
	Transfers []Transfer
}

// Journal persists transitions. A transition is applied in memory only after
// Commit returns nil, so implementations must write it all or nothing.
type Journal interface {
	Commit(ctx context.Context, t *Transition) error
}

// stage accumulates the effect of an operation without touching engine state.
type stage struct {
	kind      TransitionKind
	book      *ShareAccountBook
	pool      PoolState
	touched   map[string]StakerAccount
	order     []string
	fee       *FeeConfig
	transfers []Transfer
	nextSeq   uint64
}

func newStage(kind TransitionKind, book *ShareAccountBook, pool PoolState, nextSeq uint64) *stage {
	return &stage{
		kind:    kind,
		book:    book,
		pool:    pool,
		touched: make(map[string]StakerAccount),
		nextSeq: nextSeq,
	}
}

func (s *stage) account(address string) StakerAccount {
	if acct, ok := s.touched[address]; ok {
		return acct
	}
	if acct, ok := s.book.Get(address); ok {
		return acct
	}
	return newStakerAccount(address)
}

func (s *stage) setAccount(acct StakerAccount) {
	if _, ok := s.touched[acct.Address]; !ok {
		s.order = append(s.order, acct.Address)
	}
	s.touched[acct.Address] = acct
}

func (s *stage) transfer(kind TransferKind, from, to string, amount sdkmath.Uint) {
	s.nextSeq++
	s.transfers = append(s.transfers, Transfer{
		ID:     uuid.NewString(),
		Seq:    s.nextSeq,
		Kind:   kind,
		From:   from,
		To:     to,
		Amount: amount,
	})
}

func (s *stage) transition() *Transition {
	accounts := make([]StakerAccount, 0, len(s.order))
	for _, addr := range s.order {
		accounts = append(accounts, s.touched[addr])
	}
	return &Transition{
		Kind:      s.kind,
		Pool:      s.pool,
		Accounts:  accounts,
		Fee:       s.fee,
		Transfers: s.transfers,
	}
}
