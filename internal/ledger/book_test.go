package ledger

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
)

func TestShareAccountBook_Query(t *testing.T) {
	book := NewShareAccountBook()
	book.put(StakerAccount{Address: "alice", Shares: sdkmath.NewUint(300)})
	book.put(StakerAccount{Address: "bob", Shares: sdkmath.NewUint(100), Locked: true})

	pool := PoolState{
		TotalShares:  sdkmath.NewUint(400),
		TotalTokens:  sdkmath.NewUint(1000),
		LockedShares: sdkmath.NewUint(100),
	}

	t.Run("unlocked account", func(t *testing.T) {
		state := book.Query("alice", pool)
		assert.Equal(t, sdkmath.NewUint(300), state.Shares)
		assert.Equal(t, sdkmath.NewUint(750), state.AvailableBalance)
		assert.True(t, state.LockedBalance.IsZero())
	})
	t.Run("locked account", func(t *testing.T) {
		state := book.Query("bob", pool)
		assert.Equal(t, sdkmath.NewUint(100), state.Shares)
		assert.True(t, state.AvailableBalance.IsZero())
		assert.Equal(t, sdkmath.NewUint(250), state.LockedBalance)
	})
	t.Run("unknown account", func(t *testing.T) {
		state := book.Query("carol", pool)
		assert.True(t, state.Shares.IsZero())
		assert.True(t, state.AvailableBalance.IsZero())
		assert.True(t, state.LockedBalance.IsZero())
	})
	t.Run("totals", func(t *testing.T) {
		assert.Equal(t, sdkmath.NewUint(400), book.TotalShares())
		assert.Equal(t, sdkmath.NewUint(100), book.LockedShares())
		accounts := book.Accounts()
		assert.Len(t, accounts, 2)
		assert.Equal(t, "alice", accounts[0].Address)
	})
}

func TestPoolState_Rounding(t *testing.T) {
	pool := PoolState{
		TotalShares: sdkmath.NewUint(1200),
		TotalTokens: sdkmath.NewUint(1800),
	}
	// 100 * 1200 / 1800 = 66.67
	assert.Equal(t, sdkmath.NewUint(66), pool.SharesForDeposit(sdkmath.NewUint(100)))
	assert.Equal(t, sdkmath.NewUint(67), pool.SharesForWithdrawal(sdkmath.NewUint(100)))
	assert.Equal(t, sdkmath.NewUint(100), pool.TokenValue(sdkmath.NewUint(67)))

	empty := NewPoolState()
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, sdkmath.NewUint(42), empty.SharesForDeposit(sdkmath.NewUint(42)))
	assert.True(t, empty.TokenValue(sdkmath.NewUint(42)).IsZero())
}
