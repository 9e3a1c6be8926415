package ledger

import (
	"context"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
)

// Config is what the engine needs at instantiation.
type Config struct {
	Fee FeeConfig
	// Self is the ledger's own address, the source and sink of custody transfers.
	Self string
	// Custody is the governance contract holding the pooled tokens.
	Custody string
}

func (c Config) Validate() error {
	if err := c.Fee.Validate(); err != nil {
		return err
	}
	if c.Self == "" {
		return fmt.Errorf("%w: ledger address is required", ErrInvalidConfig)
	}
	if c.Custody == "" {
		return fmt.Errorf("%w: custody address is required", ErrInvalidConfig)
	}
	return nil
}

type DepositResult struct {
	Fee             sdkmath.Uint
	Net             sdkmath.Uint
	StakerShares    sdkmath.Uint
	DeveloperShares sdkmath.Uint
	Transition      *Transition
}

type WithdrawResult struct {
	SharesBurned sdkmath.Uint
	Amount       sdkmath.Uint
	Transition   *Transition
}

// Engine is the single-writer stake state machine. Every mutating operation
// holds the write lock while it reads the pool, computes the result, commits
// it to the journal and finally applies it in memory.
type Engine struct {
	mu       sync.RWMutex
	self     string
	custody  string
	fee      FeeConfig
	splitter *FeeSplitter
	pool     PoolState
	book     *ShareAccountBook
	journal  Journal
	lastSeq  uint64
}

// NewEngine creates an engine with an empty pool. journal may be nil, in
// which case transitions only live in memory.
func NewEngine(cfg Config, journal Journal) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	splitter, err := NewFeeSplitter(cfg.Fee.Rate)
	if err != nil {
		return nil, err
	}

	return &Engine{
		self:     cfg.Self,
		custody:  cfg.Custody,
		fee:      cfg.Fee,
		splitter: splitter,
		pool:     NewPoolState(),
		book:     NewShareAccountBook(),
		journal:  journal,
	}, nil
}

// Restore replaces the engine state with previously committed state. It
// refuses state whose totals do not match its accounts.
func (e *Engine) Restore(pool PoolState, accounts []StakerAccount, lastTransferSeq uint64) error {
	book := NewShareAccountBook()
	for _, acct := range accounts {
		if acct.Address == "" {
			return fmt.Errorf("%w: account without address", ErrInconsistentState)
		}
		book.put(acct)
	}

	if total := book.TotalShares(); !total.Equal(pool.TotalShares) {
		return fmt.Errorf("%w: total shares %s, accounts hold %s", ErrInconsistentState, pool.TotalShares, total)
	}
	if locked := book.LockedShares(); !locked.Equal(pool.LockedShares) {
		return fmt.Errorf("%w: locked shares %s, locked accounts hold %s", ErrInconsistentState, pool.LockedShares, locked)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.pool = pool
	e.book = book
	e.lastSeq = lastTransferSeq
	return nil
}

// Deposit credits a staker with shares for amount. The developer fee is taken
// first and minted as shares to the developer; both mints are priced off the
// pool as it stood before the deposit.
func (e *Engine) Deposit(ctx context.Context, staker string, amount sdkmath.Uint) (*DepositResult, error) {
	if staker == "" {
		return nil, fmt.Errorf("%w: staker address is required", ErrInvalidAddress)
	}
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: deposit", ErrZeroAmount)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pool.TotalTokens.IsZero() && !e.pool.TotalShares.IsZero() {
		return nil, fmt.Errorf("%w: %s shares outstanding", ErrPoolInsolvent, e.pool.TotalShares)
	}

	fee, net := e.splitter.Split(amount)
	before := e.pool
	stakerShares := before.SharesForDeposit(net)
	devShares := sdkmath.ZeroUint()
	if !fee.IsZero() {
		devShares = before.SharesForDeposit(fee)
	}
	if !net.IsZero() && stakerShares.IsZero() {
		return nil, fmt.Errorf("%w: deposit of %s mints no shares", ErrZeroAmount, amount)
	}

	st := newStage(TransitionDeposit, e.book, before, e.lastSeq)
	if !fee.IsZero() {
		dev := st.account(e.fee.Developer)
		dev.Shares = dev.Shares.Add(devShares)
		st.setAccount(dev)
	}
	acct := st.account(staker)
	acct.Shares = acct.Shares.Add(stakerShares)
	st.setAccount(acct)

	minted := stakerShares.Add(devShares)
	st.pool.TotalShares = before.TotalShares.Add(minted)
	st.pool.TotalTokens = before.TotalTokens.Add(amount)
	st.pool.LockedShares = before.LockedShares
	if acct.Locked {
		st.pool.LockedShares = st.pool.LockedShares.Add(stakerShares)
	}
	if !fee.IsZero() && st.account(e.fee.Developer).Locked {
		st.pool.LockedShares = st.pool.LockedShares.Add(devShares)
	}
	st.transfer(TransferCustodyDeposit, e.self, e.custody, amount)

	t, err := e.commit(ctx, st)
	if err != nil {
		return nil, err
	}

	return &DepositResult{
		Fee:             fee,
		Net:             net,
		StakerShares:    stakerShares,
		DeveloperShares: devShares,
		Transition:      t,
	}, nil
}

// Withdraw burns enough of the staker's unlocked shares to release amount
// tokens and pays them out.
func (e *Engine) Withdraw(ctx context.Context, staker string, amount sdkmath.Uint) (*WithdrawResult, error) {
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: withdrawal", ErrZeroAmount)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	acct, ok := e.book.Get(staker)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNothingStaked, staker)
	}
	if e.pool.IsEmpty() {
		return nil, fmt.Errorf("%w: pool is empty", ErrInsufficientBalance)
	}

	shares := e.pool.SharesForWithdrawal(amount)
	if shares.GT(withdrawableShares(acct)) {
		return nil, fmt.Errorf(
			"%w: withdrawing %s needs %s shares, %s available",
			ErrInsufficientBalance, amount, shares, withdrawableShares(acct),
		)
	}

	return e.burn(ctx, acct, shares, amount)
}

// WithdrawAll burns every unlocked share of the staker and pays out their value.
func (e *Engine) WithdrawAll(ctx context.Context, staker string) (*WithdrawResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	acct, ok := e.book.Get(staker)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNothingStaked, staker)
	}
	shares := withdrawableShares(acct)
	if shares.IsZero() {
		if acct.Locked {
			return nil, fmt.Errorf("%w: account is locked", ErrInsufficientBalance)
		}
		return nil, fmt.Errorf("%w: no shares to withdraw", ErrZeroAmount)
	}
	amount := e.pool.TokenValue(shares)
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: %s shares are worth nothing", ErrZeroAmount, shares)
	}

	return e.burn(ctx, acct, shares, amount)
}

func (e *Engine) burn(ctx context.Context, acct StakerAccount, shares, amount sdkmath.Uint) (*WithdrawResult, error) {
	st := newStage(TransitionWithdraw, e.book, e.pool, e.lastSeq)
	acct.Shares = acct.Shares.Sub(shares)
	st.setAccount(acct)
	st.pool.TotalShares = e.pool.TotalShares.Sub(shares)
	// the last shares out take whatever rounding left in the pool
	if st.pool.TotalShares.IsZero() {
		amount = e.pool.TotalTokens
	}
	st.pool.TotalTokens = e.pool.TotalTokens.Sub(amount)
	st.transfer(TransferCustodyRelease, e.custody, e.self, amount)
	st.transfer(TransferPayout, e.self, acct.Address, amount)

	t, err := e.commit(ctx, st)
	if err != nil {
		return nil, err
	}

	return &WithdrawResult{
		SharesBurned: shares,
		Amount:       amount,
		Transition:   t,
	}, nil
}

func withdrawableShares(acct StakerAccount) sdkmath.Uint {
	if acct.Locked {
		return sdkmath.ZeroUint()
	}
	return acct.Shares
}

// Lock marks all of the staker's shares as locked.
func (e *Engine) Lock(ctx context.Context, staker string) (*Transition, error) {
	return e.setLocked(ctx, staker, true)
}

// Unlock makes the staker's shares withdrawable again.
func (e *Engine) Unlock(ctx context.Context, staker string) (*Transition, error) {
	return e.setLocked(ctx, staker, false)
}

func (e *Engine) setLocked(ctx context.Context, staker string, locked bool) (*Transition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	acct, ok := e.book.Get(staker)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNothingStaked, staker)
	}
	if acct.Locked == locked {
		return nil, fmt.Errorf("%w: %s locked=%t", ErrLockState, staker, locked)
	}

	kind := TransitionUnlock
	if locked {
		kind = TransitionLock
	}
	st := newStage(kind, e.book, e.pool, e.lastSeq)
	acct.Locked = locked
	st.setAccount(acct)
	if locked {
		st.pool.LockedShares = e.pool.LockedShares.Add(acct.Shares)
	} else {
		st.pool.LockedShares = e.pool.LockedShares.Sub(acct.Shares)
	}

	return e.commit(ctx, st)
}

// SyncPoolTokens sets the pool's token total to the balance reported by
// custody, which moves the exchange rate when rewards accrue or stake is slashed.
// observedSeq is LastTransferSeq as read before the balance was fetched; if a
// deposit or withdrawal committed since then the balance is stale and
// ErrStalePoolSync is returned. An unchanged balance commits nothing and
// returns a nil transition.
func (e *Engine) SyncPoolTokens(ctx context.Context, tokens sdkmath.Uint, observedSeq uint64) (*Transition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lastSeq != observedSeq {
		return nil, fmt.Errorf("%w: observed seq %d, ledger at %d", ErrStalePoolSync, observedSeq, e.lastSeq)
	}
	if tokens.Equal(e.pool.TotalTokens) {
		return nil, nil
	}
	if e.pool.TotalShares.IsZero() {
		return nil, fmt.Errorf("%w: %s tokens with no shares outstanding", ErrInvalidPoolSync, tokens)
	}

	st := newStage(TransitionPoolSync, e.book, e.pool, e.lastSeq)
	st.pool.TotalTokens = tokens
	return e.commit(ctx, st)
}

// UpdateFeeRate replaces the fee rate used by future deposits.
func (e *Engine) UpdateFeeRate(ctx context.Context, rate sdkmath.LegacyDec) (*Transition, error) {
	if err := ValidateFeeRate(rate); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	fee := e.fee
	fee.Rate = rate
	return e.commitFee(ctx, fee)
}

// UpdateDeveloper changes the account receiving fee shares. Shares already
// minted to the previous developer stay with it.
func (e *Engine) UpdateDeveloper(ctx context.Context, developer string) (*Transition, error) {
	if developer == "" {
		return nil, fmt.Errorf("%w: developer address is required", ErrInvalidAddress)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	fee := e.fee
	fee.Developer = developer
	return e.commitFee(ctx, fee)
}

func (e *Engine) commitFee(ctx context.Context, fee FeeConfig) (*Transition, error) {
	st := newStage(TransitionFeeConfig, e.book, e.pool, e.lastSeq)
	st.fee = &fee
	return e.commit(ctx, st)
}

// commit hands the staged transition to the journal and applies it only when
// the journal accepted it. Callers hold the write lock.
func (e *Engine) commit(ctx context.Context, st *stage) (*Transition, error) {
	t := st.transition()
	if e.journal != nil {
		if err := e.journal.Commit(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to commit %s transition: %w", t.Kind, err)
		}
	}

	e.pool = st.pool
	for _, acct := range t.Accounts {
		e.book.put(acct)
	}
	if t.Fee != nil {
		e.fee = *t.Fee
		// rate was validated before staging
		e.splitter = &FeeSplitter{rate: t.Fee.Rate}
	}
	e.lastSeq = st.nextSeq
	return t, nil
}

// Query returns the staker's balances as of the last committed transition.
func (e *Engine) Query(staker string) AccountState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.book.Query(staker, e.pool)
}

// Summary returns the pool balances as of the last committed transition.
func (e *Engine) Summary() PoolSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	locked := e.pool.TokenValue(e.pool.LockedShares)
	return PoolSummary{
		FeeRate:          e.fee.Rate,
		TotalShares:      e.pool.TotalShares,
		TotalTokens:      e.pool.TotalTokens,
		AvailableBalance: e.pool.TotalTokens.Sub(locked),
		LockedBalance:    locked,
	}
}

// LastTransferSeq is the seq of the newest committed transfer. It changes
// exactly when a transition moves tokens in or out of custody.
func (e *Engine) LastTransferSeq() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.lastSeq
}

func (e *Engine) Pool() PoolState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.pool
}

func (e *Engine) Fee() FeeConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.fee
}

func (e *Engine) Account(staker string) (StakerAccount, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.book.Get(staker)
}

func (e *Engine) Accounts() []StakerAccount {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.book.Accounts()
}
