package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-ledger/internal/ledger"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/metrics"
)

// ReconcilePoolTokens sets the pool token total to the balance custody holds
// for the ledger, so rewards and slashing move the exchange rate. It skips
// until every transfer is acknowledged as executed because custody has not
// seen the rest yet, and drops the balance if a deposit or withdrawal
// committed while it was being fetched.
func (s *Service) ReconcilePoolTokens(ctx context.Context) error {
	// read before anything else so a transition racing the rpc is detected
	observedSeq := s.engine.LastTransferSeq()

	unsettled, err := s.db.CountUnsettledTransfers(ctx)
	if err != nil {
		return fmt.Errorf("failed to count unsettled transfers: %w", err)
	}
	metrics.RecordUnsettledTransfers(unsettled)
	if unsettled > 0 {
		log.Ctx(ctx).Debug().Int64("unsettled", unsettled).Msg("skipping reconciliation, transfers not executed")
		return nil
	}

	contract := s.contractConfig()
	balance, err := s.custody.GetStakerBalance(ctx, contract.Custody, contract.Self)
	if err != nil {
		return fmt.Errorf("failed to get custody balance: %w", err)
	}

	before := s.engine.Pool()
	transition, err := s.engine.SyncPoolTokens(ctx, balance.Balance, observedSeq)
	if errors.Is(err, ledger.ErrStalePoolSync) {
		log.Ctx(ctx).Debug().Err(err).Msg("skipping reconciliation, ledger moved during custody query")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to sync pool tokens: %w", err)
	}
	if transition == nil {
		return nil
	}

	recordPool(transition.Pool)
	log.Ctx(ctx).Info().
		Str("previous_tokens", before.TotalTokens.String()).
		Str("custody_balance", balance.Balance.String()).
		Str("custody_locked", balance.Locked.String()).
		Msg("pool tokens reconciled with custody")
	return nil
}
