package ledger

import (
	"sort"

	sdkmath "cosmossdk.io/math"
)

// ShareAccountBook maps staker addresses to their accounts. It is owned by the
// Engine and only mutated while the engine's write lock is held.
type ShareAccountBook struct {
	accounts map[string]StakerAccount
}

func NewShareAccountBook() *ShareAccountBook {
	return &ShareAccountBook{accounts: make(map[string]StakerAccount)}
}

func (b *ShareAccountBook) Get(address string) (StakerAccount, bool) {
	acct, ok := b.accounts[address]
	return acct, ok
}

func (b *ShareAccountBook) put(acct StakerAccount) {
	b.accounts[acct.Address] = acct
}

func (b *ShareAccountBook) Len() int {
	return len(b.accounts)
}

// TotalShares sums the shares of every account.
func (b *ShareAccountBook) TotalShares() sdkmath.Uint {
	total := sdkmath.ZeroUint()
	for _, acct := range b.accounts {
		total = total.Add(acct.Shares)
	}
	return total
}

// LockedShares sums the shares of locked accounts.
func (b *ShareAccountBook) LockedShares() sdkmath.Uint {
	total := sdkmath.ZeroUint()
	for _, acct := range b.accounts {
		if acct.Locked {
			total = total.Add(acct.Shares)
		}
	}
	return total
}

// Accounts returns a copy of all accounts ordered by address.
func (b *ShareAccountBook) Accounts() []StakerAccount {
	out := make([]StakerAccount, 0, len(b.accounts))
	for _, acct := range b.accounts {
		out = append(out, acct)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address < out[j].Address
	})
	return out
}

// Query values the staker's shares against the given pool. Unknown stakers
// report zero balances.
func (b *ShareAccountBook) Query(address string, pool PoolState) AccountState {
	state := AccountState{
		Shares:           sdkmath.ZeroUint(),
		AvailableBalance: sdkmath.ZeroUint(),
		LockedBalance:    sdkmath.ZeroUint(),
	}
	acct, ok := b.accounts[address]
	if !ok || pool.TotalShares.IsZero() {
		return state
	}

	state.Shares = acct.Shares
	value := pool.TokenValue(acct.Shares)
	if acct.Locked {
		state.LockedBalance = value
	} else {
		state.AvailableBalance = value
	}
	return state
}
