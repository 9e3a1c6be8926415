package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babylonlabs-io/staking-ledger/internal/config"
)

type index struct {
	Keys   bson.D
	Unique bool
}

var collections = map[string][]index{
	LedgerStateCollection:    nil,
	StakerAccountCollection:  nil,
	ContractConfigCollection: nil,
	TransferCollection: {
		{Keys: bson.D{{Key: "seq", Value: 1}}, Unique: true},
		{Keys: bson.D{{Key: "dispatched", Value: 1}, {Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: "executed", Value: 1}}},
	},
}

// Setup creates the collections and indexes used by the ledger. Collections
// must exist before they are written inside a transaction.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	clientOps := options.Client().ApplyURI(cfg.Address)
	if cfg.Username != "" {
		clientOps.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to disconnect mongo client after setup")
		}
	}()

	database := client.Database(cfg.DbName)
	for name, idxs := range collections {
		if err := createCollection(ctx, database, name); err != nil {
			return err
		}
		for _, idx := range idxs {
			if err := createIndex(ctx, database, name, idx); err != nil {
				return err
			}
		}
	}

	log.Ctx(ctx).Info().Msg("Collections and indexes created successfully")
	return nil
}

func createCollection(ctx context.Context, database *mongo.Database, name string) error {
	err := database.CreateCollection(ctx, name)
	if err == nil {
		return nil
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists" {
		return nil
	}
	return fmt.Errorf("failed to create collection %s: %w", name, err)
}

func createIndex(ctx context.Context, database *mongo.Database, collectionName string, idx index) error {
	model := mongo.IndexModel{
		Keys:    idx.Keys,
		Options: options.Index().SetUnique(idx.Unique),
	}
	if _, err := database.Collection(collectionName).Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("failed to create index on %s: %w", collectionName, err)
	}

	log.Ctx(ctx).Debug().Str("collection", collectionName).Msg("index created")
	return nil
}
