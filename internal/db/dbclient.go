package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babylonlabs-io/staking-ledger/internal/config"
)

type Database struct {
	dbName string
	client *mongo.Client
}

func New(ctx context.Context, cfg config.DbConfig) (*Database, error) {
	clientOps := options.Client().ApplyURI(cfg.Address)
	if cfg.Username != "" {
		clientOps.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return nil, err
	}

	return &Database{
		dbName: cfg.DbName,
		client: client,
	}, nil
}

// Open returns the backend selected by cfg.Type.
func Open(ctx context.Context, cfg config.DbConfig) (DbInterface, error) {
	switch cfg.Type {
	case config.DbTypeBolt:
		boltDb, err := NewBoltDatabase(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return boltDb, nil
	case config.DbTypeMongo, "":
		mongoDb, err := New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return mongoDb, nil
	default:
		return nil, fmt.Errorf("unsupported db type %q", cfg.Type)
	}
}

func (db *Database) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, nil)
}

func (db *Database) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

func (db *Database) collection(name string) *mongo.Collection {
	return db.client.Database(db.dbName).Collection(name)
}

// withTransaction runs f inside a multi-document transaction, which requires
// mongo to run as a replica set.
func (db *Database) withTransaction(ctx context.Context, f func(sc mongo.SessionContext) error) error {
	session, err := db.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, f(sc)
	})
	return err
}
