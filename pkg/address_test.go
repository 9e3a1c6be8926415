package pkg

import (
	"bytes"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAddress(t *testing.T) {
	account, err := sdk.Bech32ifyAddressBytes("bbn", bytes.Repeat([]byte{1}, 20))
	require.NoError(t, err)
	contract, err := sdk.Bech32ifyAddressBytes("bbn", bytes.Repeat([]byte{2}, 32))
	require.NoError(t, err)
	otherChain, err := sdk.Bech32ifyAddressBytes("cosmos", bytes.Repeat([]byte{1}, 20))
	require.NoError(t, err)

	t.Run("account address", func(t *testing.T) {
		assert.NoError(t, ValidateAddress(account, "bbn"))
	})
	t.Run("contract address", func(t *testing.T) {
		assert.NoError(t, ValidateAddress(contract, "bbn"))
	})
	t.Run("wrong prefix", func(t *testing.T) {
		assert.Error(t, ValidateAddress(otherChain, "bbn"))
	})
	t.Run("not bech32", func(t *testing.T) {
		assert.Error(t, ValidateAddress("alice", "bbn"))
	})
	t.Run("empty", func(t *testing.T) {
		assert.Error(t, ValidateAddress("", "bbn"))
	})
}
