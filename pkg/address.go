package pkg

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// ValidateAddress checks that address is a bech32 account or contract
// address with the given human readable prefix.
func ValidateAddress(address, prefix string) error {
	bz, err := sdk.GetFromBech32(address, prefix)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", address, err)
	}

	return sdk.VerifyAddressFormat(bz)
}
