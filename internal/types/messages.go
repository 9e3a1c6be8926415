package types

import (
	"encoding/json"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// ExecuteRequest is an execute message together with the address that sent it.
type ExecuteRequest struct {
	Sender string     `json:"sender"`
	Msg    ExecuteMsg `json:"msg"`
}

// ExecuteMsg is a tagged union, exactly one field must be set.
type ExecuteMsg struct {
	Receive           *Cw20ReceiveMsg       `json:"receive,omitempty"`
	WithdrawToken     *WithdrawTokenMsg     `json:"withdraw_token,omitempty"`
	TransferOwnerShip *TransferOwnerShipMsg `json:"transfer_owner_ship,omitempty"`
	AcceptOwner       *AcceptOwnerMsg       `json:"accept_owner,omitempty"`
	UpdateDev         *UpdateDevMsg         `json:"update_dev,omitempty"`
	UpdateFeeRate     *UpdateFeeRateMsg     `json:"update_fee_rate,omitempty"`
	LockAccount       *AccountMsg           `json:"lock_account,omitempty"`
	UnlockAccount     *AccountMsg           `json:"unlock_account,omitempty"`
}

// Cw20ReceiveMsg is delivered by the token contract when tokens are sent to
// the ledger. Msg carries the json encoded Cw20HookMsg.
type Cw20ReceiveMsg struct {
	Sender string       `json:"sender"`
	Amount sdkmath.Uint `json:"amount"`
	Msg    []byte       `json:"msg"`
}

type Cw20HookMsg struct {
	StakingTokens *struct{} `json:"staking_tokens,omitempty"`
}

// WithdrawTokenMsg withdraws Amount tokens, or everything withdrawable when
// Amount is omitted.
type WithdrawTokenMsg struct {
	Amount *sdkmath.Uint `json:"amount,omitempty"`
}

type TransferOwnerShipMsg struct {
	NewOwner string `json:"new_owner"`
}

type AcceptOwnerMsg struct{}

type UpdateDevMsg struct {
	NewDev string `json:"new_dev"`
}

type UpdateFeeRateMsg struct {
	NewFeeRate sdkmath.LegacyDec `json:"new_feerate"`
}

type AccountMsg struct {
	Staker string `json:"staker"`
}

var errInvalidExecuteMsg = errors.New("execute message must contain exactly one action")

// Name returns the action carried by the message.
func (m ExecuteMsg) Name() (string, error) {
	names := make([]string, 0, 1)
	if m.Receive != nil {
		names = append(names, "receive")
	}
	if m.WithdrawToken != nil {
		names = append(names, "withdraw_token")
	}
	if m.TransferOwnerShip != nil {
		names = append(names, "transfer_owner_ship")
	}
	if m.AcceptOwner != nil {
		names = append(names, "accept_owner")
	}
	if m.UpdateDev != nil {
		names = append(names, "update_dev")
	}
	if m.UpdateFeeRate != nil {
		names = append(names, "update_fee_rate")
	}
	if m.LockAccount != nil {
		names = append(names, "lock_account")
	}
	if m.UnlockAccount != nil {
		names = append(names, "unlock_account")
	}

	if len(names) != 1 {
		return "", fmt.Errorf("%w, got %v", errInvalidExecuteMsg, names)
	}
	return names[0], nil
}

// ParseHookMsg decodes the payload attached to a receive message.
func ParseHookMsg(data []byte) (*Cw20HookMsg, error) {
	if len(data) == 0 {
		return nil, errors.New("empty hook message")
	}

	var msg Cw20HookMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode hook message: %w", err)
	}
	return &msg, nil
}

type ConfigResponse struct {
	Owner        string `json:"owner"`
	PendingOwner string `json:"pending_owner,omitempty"`
	Dev          string `json:"dev"`
	Token        string `json:"token"`
	Custody      string `json:"custody"`
}

type StateResponse struct {
	FeeRate          sdkmath.LegacyDec `json:"feerate"`
	TotalShares      sdkmath.Uint      `json:"total_shares"`
	TotalTokens      sdkmath.Uint      `json:"total_tokens"`
	AvailableBalance sdkmath.Uint      `json:"available_balance"`
	LockedBalance    sdkmath.Uint      `json:"locked_balance"`
}

type AccountStateResponse struct {
	Address          string       `json:"address"`
	Shares           sdkmath.Uint `json:"shares"`
	AvailableBalance sdkmath.Uint `json:"available_balance"`
	LockedBalance    sdkmath.Uint `json:"locked_balance"`
}

// ExecuteResponse reports what an execute message did.
type ExecuteResponse struct {
	Action     string        `json:"action"`
	Shares     *sdkmath.Uint `json:"shares,omitempty"`
	FeeShares  *sdkmath.Uint `json:"fee_shares,omitempty"`
	Amount     *sdkmath.Uint `json:"amount,omitempty"`
	TransferID []string      `json:"transfer_ids,omitempty"`
}
