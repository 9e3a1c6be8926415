package testutil

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
)

// RandomSuffix returns a lowercase random string used to keep container and
// database names unique across runs.
func RandomSuffix(length int) string {
	if length <= 0 {
		return ""
	}
	return strings.ToLower(gofakeit.LetterN(uint(length)))
}

// Address returns a deterministic bech32 address derived from name, so tests
// can refer to accounts by role.
func Address(t *testing.T, prefix, name string) string {
	t.Helper()

	raw := make([]byte, 20)
	copy(raw, name)
	addr, err := sdk.Bech32ifyAddressBytes(prefix, raw)
	require.NoError(t, err)
	return addr
}
