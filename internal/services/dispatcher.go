package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-ledger/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-ledger/internal/queue"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

// DispatchTransfers publishes pending transfer instructions in seq order.
// It stops at the first failure so a later transfer is never published
// before an earlier one.
func (s *Service) DispatchTransfers(ctx context.Context) error {
	transfers, err := s.db.FindPendingTransfers(ctx, s.cfg.Poller.TransferBatchLimit)
	if err != nil {
		return fmt.Errorf("failed to find pending transfers: %w", err)
	}

	for i := range transfers {
		transfer := &transfers[i]
		if err := s.queue.SendTransfer(ctx, queue.NewTransferMessage(transfer)); err != nil {
			return fmt.Errorf("failed to publish transfer %s (seq %d): %w", transfer.ID, transfer.Seq, err)
		}
		// a crash here republishes the transfer, consumers dedupe on id
		if err := s.db.MarkTransferDispatched(ctx, transfer.ID); err != nil {
			return fmt.Errorf("failed to mark transfer %s dispatched: %w", transfer.ID, err)
		}
		log.Ctx(ctx).Debug().
			Str("transfer_id", transfer.ID).
			Uint64("seq", transfer.Seq).
			Str("kind", transfer.Kind).
			Msg("transfer dispatched")
	}

	pending, err := s.db.CountPendingTransfers(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pending transfers: %w", err)
	}
	metrics.RecordPendingTransfers(pending)
	return nil
}

// AcknowledgeTransfer records that the signer executed a dispatched transfer
// on chain. Reconciliation waits until every transfer is acknowledged.
func (s *Service) AcknowledgeTransfer(ctx context.Context, id string) *types.Error {
	if id == "" {
		return types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "transfer id is required")
	}
	if err := s.db.MarkTransferExecuted(ctx, id); err != nil {
		return toServiceError(err)
	}
	log.Ctx(ctx).Debug().Str("transfer_id", id).Msg("transfer executed")
	return nil
}
