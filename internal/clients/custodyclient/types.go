package custodyclient

import (
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// StakerBalance is the stake custody holds for one staker. Locked tokens
// back open governance votes and are part of Balance.
type StakerBalance struct {
	Balance   sdkmath.Uint
	Share     sdkmath.Uint
	Locked    sdkmath.Uint
	Available sdkmath.Uint
}

type stakerQuery struct {
	Staker stakerQueryArgs `json:"staker"`
}

type stakerQueryArgs struct {
	Address string `json:"address"`
}

// stakerResponse mirrors the governance contract response, locked_balance
// is a list of [poll_id, voter_info] pairs.
type stakerResponse struct {
	Balance       sdkmath.Uint        `json:"balance"`
	Share         sdkmath.Uint        `json:"share"`
	LockedBalance [][]json.RawMessage `json:"locked_balance"`
}

type voterInfo struct {
	Vote    string       `json:"vote"`
	Balance sdkmath.Uint `json:"balance"`
}

func parseStakerResponse(data []byte) (*StakerBalance, error) {
	var resp stakerResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode staker response: %w", err)
	}
	if resp.Balance.IsNil() || resp.Share.IsNil() {
		return nil, fmt.Errorf("staker response is missing balance or share")
	}

	locked := sdkmath.ZeroUint()
	for _, pair := range resp.LockedBalance {
		if len(pair) != 2 {
			return nil, fmt.Errorf("malformed locked_balance entry with %d elements", len(pair))
		}
		var info voterInfo
		if err := json.Unmarshal(pair[1], &info); err != nil {
			return nil, fmt.Errorf("failed to decode voter info: %w", err)
		}
		if info.Balance.IsNil() {
			continue
		}
		locked = locked.Add(info.Balance)
	}
	if locked.GT(resp.Balance) {
		return nil, fmt.Errorf("locked balance %s exceeds balance %s", locked, resp.Balance)
	}

	return &StakerBalance{
		Balance:   resp.Balance,
		Share:     resp.Share,
		Locked:    locked,
		Available: resp.Balance.Sub(locked),
	}, nil
}
