package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-ledger/internal/db"
	"github.com/babylonlabs-io/staking-ledger/internal/ledger"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

// Bootstrap restores the ledger from storage, initializing storage from
// config on first start. Stored state wins over config afterwards: fee and
// ownership changes are made through execute messages only.
func (s *Service) Bootstrap(ctx context.Context) error {
	snapshot, err := s.db.LoadLedger(ctx)
	if db.IsNotFoundError(err) {
		if err := s.initialize(ctx); err != nil {
			return err
		}
		snapshot, err = s.db.LoadLedger(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	contract, err := s.db.GetContractConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load contract config: %w", err)
	}
	s.warnOnConfigDrift(ctx, contract)

	engine, err := ledger.NewEngine(ledger.Config{
		Fee:     snapshot.Fee,
		Self:    contract.Self,
		Custody: contract.Custody,
	}, s.db)
	if err != nil {
		return fmt.Errorf("invalid stored ledger config: %w", err)
	}
	if err := engine.Restore(snapshot.Pool, snapshot.Accounts, snapshot.LastTransferSeq); err != nil {
		return fmt.Errorf("failed to restore ledger: %w", err)
	}

	s.engine = engine
	s.contract = contract
	recordPool(engine.Pool())

	log.Ctx(ctx).Info().
		Str("total_shares", snapshot.Pool.TotalShares.String()).
		Str("total_tokens", snapshot.Pool.TotalTokens.String()).
		Int("accounts", len(snapshot.Accounts)).
		Uint64("last_transfer_seq", snapshot.LastTransferSeq).
		Msg("ledger restored")
	return nil
}

func (s *Service) initialize(ctx context.Context) error {
	ledgerCfg := s.cfg.Ledger
	for _, addr := range []string{ledgerCfg.Owner, ledgerCfg.Dev, ledgerCfg.Token, ledgerCfg.Custody, ledgerCfg.Self} {
		if err := s.validateAddress(addr); err != nil {
			return err
		}
	}
	rate, err := ledger.ParseFeeRate(ledgerCfg.FeeRate)
	if err != nil {
		return err
	}

	contract := &types.ContractConfig{
		Owner:   ledgerCfg.Owner,
		Token:   ledgerCfg.Token,
		Custody: ledgerCfg.Custody,
		Self:    ledgerCfg.Self,
	}
	fee := ledger.FeeConfig{Rate: rate, Developer: ledgerCfg.Dev}

	err = s.db.Initialize(ctx, contract, fee)
	// another instance may have initialized concurrently
	if err != nil && !db.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("owner", contract.Owner).
		Str("token", contract.Token).
		Str("custody", contract.Custody).
		Str("fee_rate", rate.String()).
		Msg("ledger initialized")
	return nil
}

func (s *Service) warnOnConfigDrift(ctx context.Context, stored *types.ContractConfig) {
	ledgerCfg := s.cfg.Ledger
	if stored.Token != ledgerCfg.Token || stored.Custody != ledgerCfg.Custody || stored.Self != ledgerCfg.Self {
		log.Ctx(ctx).Warn().
			Str("stored_token", stored.Token).
			Str("stored_custody", stored.Custody).
			Str("stored_self", stored.Self).
			Msg("configured contract addresses differ from stored ones, using stored")
	}
}
