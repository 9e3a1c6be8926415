package ledger

import "errors"

var (
	// ErrInvalidConfig indicates the fee configuration or a ledger address is unusable.
	ErrInvalidConfig = errors.New("ledger: invalid config")

	// ErrInsufficientBalance indicates a withdrawal needs more unlocked shares than the staker holds.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")

	// ErrZeroAmount indicates a deposit or withdrawal that moves no value.
	ErrZeroAmount = errors.New("ledger: zero amount")

	// ErrNothingStaked indicates the staker has never been credited by the pool.
	ErrNothingStaked = errors.New("ledger: nothing staked")

	// ErrInvalidAddress indicates an empty staker or developer address.
	ErrInvalidAddress = errors.New("ledger: invalid address")

	// ErrLockState indicates a lock of a locked account or an unlock of an unlocked one.
	ErrLockState = errors.New("ledger: account already in requested lock state")

	// ErrInvalidPoolSync indicates a token balance that cannot back the outstanding shares.
	ErrInvalidPoolSync = errors.New("ledger: invalid pool token sync")

	// ErrStalePoolSync indicates a token balance observed before the pool last changed.
	ErrStalePoolSync = errors.New("ledger: pool changed since balance was observed")

	// ErrPoolInsolvent indicates outstanding shares that no tokens back, so nothing can be priced.
	ErrPoolInsolvent = errors.New("ledger: pool has shares but no tokens")

	// ErrInconsistentState indicates restored state that breaks the share invariants.
	ErrInconsistentState = errors.New("ledger: inconsistent state")
)
