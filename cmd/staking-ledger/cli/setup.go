package cli

import (
	"context"
	"fmt"

	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/internal/db"
	dbmodel "github.com/babylonlabs-io/staking-ledger/internal/db/model"
)

// openDb prepares the configured backend and wraps it with metrics.
func openDb(ctx context.Context, cfg *config.Config) (db.DbInterface, error) {
	if cfg.Db.Type == config.DbTypeMongo {
		if err := dbmodel.Setup(ctx, &cfg.Db); err != nil {
			return nil, fmt.Errorf("error while setting up ledger db model: %w", err)
		}
	}

	dbClient, err := db.Open(ctx, cfg.Db)
	if err != nil {
		return nil, fmt.Errorf("error while creating db client: %w", err)
	}
	return db.NewDbWithMetrics(dbClient), nil
}
