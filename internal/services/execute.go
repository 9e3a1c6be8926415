package services

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-ledger/internal/ledger"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
	"github.com/babylonlabs-io/staking-ledger/pkg"
)

const (
	actionReceive           = "receive"
	actionWithdrawToken     = "withdraw_token"
	actionTransferOwnerShip = "transfer_owner_ship"
	actionAcceptOwner       = "accept_owner"
	actionUpdateDev         = "update_dev"
	actionUpdateFeeRate     = "update_fee_rate"
	actionLockAccount       = "lock_account"
	actionUnlockAccount     = "unlock_account"
)

// Execute authorizes and applies one execute message on behalf of req.Sender.
func (s *Service) Execute(ctx context.Context, req *types.ExecuteRequest) (*types.ExecuteResponse, *types.Error) {
	action, err := req.Msg.Name()
	if err != nil {
		return nil, types.NewBadRequestError(err)
	}
	if err := s.validateAddress(req.Sender); err != nil {
		return nil, types.NewBadRequestError(fmt.Errorf("invalid sender: %w", err))
	}

	startTime := time.Now()
	resp, serviceErr := s.execute(ctx, action, req)
	metrics.RecordTransitionDuration(time.Since(startTime), action, serviceErr != nil)

	logger := log.Ctx(ctx).With().Str("action", action).Str("sender", req.Sender).Logger()
	if serviceErr != nil {
		event := logger.Warn()
		if serviceErr.Status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.Err(serviceErr).Str("code", serviceErr.ErrorCode.String()).Msg("execute message rejected")
		return nil, serviceErr
	}

	recordPool(s.engine.Pool())
	logger.Info().Msg("execute message applied")
	return resp, nil
}

func (s *Service) execute(ctx context.Context, action string, req *types.ExecuteRequest) (*types.ExecuteResponse, *types.Error) {
	msg := req.Msg
	switch action {
	case actionReceive:
		return s.receive(ctx, req.Sender, msg.Receive)
	case actionWithdrawToken:
		return s.withdrawToken(ctx, req.Sender, msg.WithdrawToken)
	case actionTransferOwnerShip:
		return s.transferOwnerShip(ctx, req.Sender, msg.TransferOwnerShip)
	case actionAcceptOwner:
		return s.acceptOwner(ctx, req.Sender)
	case actionUpdateDev:
		return s.updateDev(ctx, req.Sender, msg.UpdateDev)
	case actionUpdateFeeRate:
		return s.updateFeeRate(ctx, req.Sender, msg.UpdateFeeRate)
	case actionLockAccount:
		return s.setAccountLock(ctx, req.Sender, msg.LockAccount, true)
	case actionUnlockAccount:
		return s.setAccountLock(ctx, req.Sender, msg.UnlockAccount, false)
	default:
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "unknown action "+action)
	}
}

// receive handles tokens delivered by the token contract, msg.Sender is the
// staker who sent them.
func (s *Service) receive(ctx context.Context, sender string, msg *types.Cw20ReceiveMsg) (*types.ExecuteResponse, *types.Error) {
	if sender != s.contractConfig().Token {
		return nil, unauthorized(actionReceive, sender)
	}

	hook, err := types.ParseHookMsg(msg.Msg)
	if err != nil || hook.StakingTokens == nil {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.DataShouldBeGiven, "receive requires a staking_tokens hook message")
	}
	if err := s.validateAddress(msg.Sender); err != nil {
		return nil, types.NewBadRequestError(fmt.Errorf("invalid staker: %w", err))
	}
	if msg.Amount.IsNil() {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "receive amount is required")
	}

	res, err := s.engine.Deposit(ctx, msg.Sender, msg.Amount)
	if err != nil {
		return nil, toServiceError(err)
	}

	return &types.ExecuteResponse{
		Action:     actionReceive,
		Shares:     &res.StakerShares,
		FeeShares:  &res.DeveloperShares,
		Amount:     &msg.Amount,
		TransferID: transferIDs(res.Transition),
	}, nil
}

func (s *Service) withdrawToken(ctx context.Context, sender string, msg *types.WithdrawTokenMsg) (*types.ExecuteResponse, *types.Error) {
	var (
		res *ledger.WithdrawResult
		err error
	)
	if msg.Amount == nil {
		res, err = s.engine.WithdrawAll(ctx, sender)
	} else {
		res, err = s.engine.Withdraw(ctx, sender, *msg.Amount)
	}
	if err != nil {
		return nil, toServiceError(err)
	}

	return &types.ExecuteResponse{
		Action:     actionWithdrawToken,
		Shares:     &res.SharesBurned,
		Amount:     &res.Amount,
		TransferID: transferIDs(res.Transition),
	}, nil
}

func (s *Service) transferOwnerShip(ctx context.Context, sender string, msg *types.TransferOwnerShipMsg) (*types.ExecuteResponse, *types.Error) {
	// an empty new owner cancels a pending transfer
	if msg.NewOwner != "" {
		if err := s.validateAddress(msg.NewOwner); err != nil {
			return nil, types.NewBadRequestError(fmt.Errorf("invalid new owner: %w", err))
		}
	}

	err := s.updateContract(ctx, func(cfg *types.ContractConfig) *types.Error {
		if sender != cfg.Owner {
			return unauthorized(actionTransferOwnerShip, sender)
		}
		cfg.PendingOwner = msg.NewOwner
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &types.ExecuteResponse{Action: actionTransferOwnerShip}, nil
}

func (s *Service) acceptOwner(ctx context.Context, sender string) (*types.ExecuteResponse, *types.Error) {
	err := s.updateContract(ctx, func(cfg *types.ContractConfig) *types.Error {
		if cfg.PendingOwner == "" || sender != cfg.PendingOwner {
			return unauthorized(actionAcceptOwner, sender)
		}
		cfg.Owner = cfg.PendingOwner
		cfg.PendingOwner = ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &types.ExecuteResponse{Action: actionAcceptOwner}, nil
}

func (s *Service) updateDev(ctx context.Context, sender string, msg *types.UpdateDevMsg) (*types.ExecuteResponse, *types.Error) {
	if sender != s.contractConfig().Owner {
		return nil, unauthorized(actionUpdateDev, sender)
	}
	if err := s.validateAddress(msg.NewDev); err != nil {
		return nil, types.NewBadRequestError(fmt.Errorf("invalid dev: %w", err))
	}

	if _, err := s.engine.UpdateDeveloper(ctx, msg.NewDev); err != nil {
		return nil, toServiceError(err)
	}
	return &types.ExecuteResponse{Action: actionUpdateDev}, nil
}

func (s *Service) updateFeeRate(ctx context.Context, sender string, msg *types.UpdateFeeRateMsg) (*types.ExecuteResponse, *types.Error) {
	if sender != s.contractConfig().Owner {
		return nil, unauthorized(actionUpdateFeeRate, sender)
	}

	if _, err := s.engine.UpdateFeeRate(ctx, msg.NewFeeRate); err != nil {
		return nil, toServiceError(err)
	}
	return &types.ExecuteResponse{Action: actionUpdateFeeRate}, nil
}

func (s *Service) setAccountLock(ctx context.Context, sender string, msg *types.AccountMsg, locked bool) (*types.ExecuteResponse, *types.Error) {
	action := actionUnlockAccount
	if locked {
		action = actionLockAccount
	}
	if sender != s.contractConfig().Owner {
		return nil, unauthorized(action, sender)
	}

	var err error
	if locked {
		_, err = s.engine.Lock(ctx, msg.Staker)
	} else {
		_, err = s.engine.Unlock(ctx, msg.Staker)
	}
	if err != nil {
		return nil, toServiceError(err)
	}
	return &types.ExecuteResponse{Action: action}, nil
}

// updateContract applies f to a copy of the contract config and persists it.
// The in-memory config is replaced only after the write succeeded.
func (s *Service) updateContract(ctx context.Context, f func(cfg *types.ContractConfig) *types.Error) *types.Error {
	s.contractMu.Lock()
	defer s.contractMu.Unlock()

	updated := *s.contract
	if err := f(&updated); err != nil {
		return err
	}
	if err := s.db.SaveContractConfig(ctx, &updated); err != nil {
		return types.NewInternalServiceError(fmt.Errorf("failed to save contract config: %w", err))
	}
	s.contract = &updated
	return nil
}

func (s *Service) contractConfig() types.ContractConfig {
	s.contractMu.Lock()
	defer s.contractMu.Unlock()

	return *s.contract
}

func (s *Service) validateAddress(address string) error {
	return pkg.ValidateAddress(address, s.cfg.Ledger.AddressPrefix)
}

func transferIDs(t *ledger.Transition) []string {
	ids := make([]string, 0, len(t.Transfers))
	for _, transfer := range t.Transfers {
		ids = append(ids, transfer.ID)
	}
	return ids
}

func recordPool(pool ledger.PoolState) {
	metrics.RecordPoolTotals(toFloat(pool.TotalShares), toFloat(pool.TotalTokens))
}

func toFloat(u sdkmath.Uint) float64 {
	f, _ := new(big.Float).SetInt(u.BigInt()).Float64()
	return f
}
