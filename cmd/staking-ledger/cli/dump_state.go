package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/internal/db"
)

type stateDump struct {
	TotalShares     string        `json:"total_shares"`
	TotalTokens     string        `json:"total_tokens"`
	LockedShares    string        `json:"locked_shares"`
	FeeRate         string        `json:"fee_rate"`
	Developer       string        `json:"developer"`
	LastTransferSeq uint64        `json:"last_transfer_seq"`
	PendingTransfer int64         `json:"pending_transfers"`
	Unsettled       int64         `json:"unsettled_transfers"`
	Accounts        []accountDump `json:"accounts"`
}

type accountDump struct {
	Address string `json:"address"`
	Shares  string `json:"shares"`
	Locked  bool   `json:"locked,omitempty"`
}

// DumpStateCmd prints the stored ledger as json without starting anything.
func DumpStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump-state",
		Short: "Prints the stored ledger state as json",
		Args:  cobra.ExactArgs(0),
		RunE:  dumpState,
	}

	return cmd
}

func dumpState(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbClient, err := db.Open(ctx, cfg.Db)
	if err != nil {
		return fmt.Errorf("error while creating db client: %w", err)
	}
	defer dbClient.Close(context.WithoutCancel(ctx))

	snapshot, err := dbClient.LoadLedger(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	pending, err := dbClient.CountPendingTransfers(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pending transfers: %w", err)
	}
	unsettled, err := dbClient.CountUnsettledTransfers(ctx)
	if err != nil {
		return fmt.Errorf("failed to count unsettled transfers: %w", err)
	}

	dump := stateDump{
		TotalShares:     snapshot.Pool.TotalShares.String(),
		TotalTokens:     snapshot.Pool.TotalTokens.String(),
		LockedShares:    snapshot.Pool.LockedShares.String(),
		FeeRate:         snapshot.Fee.Rate.String(),
		Developer:       snapshot.Fee.Developer,
		LastTransferSeq: snapshot.LastTransferSeq,
		PendingTransfer: pending,
		Unsettled:       unsettled,
		Accounts:        make([]accountDump, 0, len(snapshot.Accounts)),
	}
	for _, acct := range snapshot.Accounts {
		dump.Accounts = append(dump.Accounts, accountDump{
			Address: acct.Address,
			Shares:  acct.Shares.String(),
			Locked:  acct.Locked,
		})
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(dump)
}
