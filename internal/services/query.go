package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

func (s *Service) GetConfig(_ context.Context) (*types.ConfigResponse, *types.Error) {
	contract := s.contractConfig()
	return &types.ConfigResponse{
		Owner:        contract.Owner,
		PendingOwner: contract.PendingOwner,
		Dev:          s.engine.Fee().Developer,
		Token:        contract.Token,
		Custody:      contract.Custody,
	}, nil
}

func (s *Service) GetState(_ context.Context) (*types.StateResponse, *types.Error) {
	summary := s.engine.Summary()
	return &types.StateResponse{
		FeeRate:          summary.FeeRate,
		TotalShares:      summary.TotalShares,
		TotalTokens:      summary.TotalTokens,
		AvailableBalance: summary.AvailableBalance,
		LockedBalance:    summary.LockedBalance,
	}, nil
}

// GetAccountState returns zero balances for addresses that never staked.
func (s *Service) GetAccountState(_ context.Context, address string) (*types.AccountStateResponse, *types.Error) {
	if err := s.validateAddress(address); err != nil {
		return nil, types.NewBadRequestError(fmt.Errorf("invalid staker: %w", err))
	}

	state := s.engine.Query(address)
	return &types.AccountStateResponse{
		Address:          address,
		Shares:           state.Shares,
		AvailableBalance: state.AvailableBalance,
		LockedBalance:    state.LockedBalance,
	}, nil
}

// Healthcheck verifies storage, the queue connection and the custody node
// are usable.
func (s *Service) Healthcheck(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("db is not reachable: %w", err)
	}
	if s.queue != nil {
		if err := s.queue.Ping(ctx); err != nil {
			return fmt.Errorf("queue is not reachable: %w", err)
		}
	}
	if s.custody != nil {
		height, err := s.custody.GetLatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("custody node is not reachable: %w", err)
		}
		log.Ctx(ctx).Debug().Int64("height", height).Msg("custody node reachable")
	}
	return nil
}
