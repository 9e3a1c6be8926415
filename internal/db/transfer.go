package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
)

func (db *Database) FindPendingTransfers(ctx context.Context, limit int64) ([]model.TransferDocument, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "seq", Value: 1}}).
		SetLimit(limit)

	cursor, err := db.collection(model.TransferCollection).
		Find(ctx, bson.M{"dispatched": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var transfers []model.TransferDocument
	if err := cursor.All(ctx, &transfers); err != nil {
		return nil, wrapDecodeError(model.TransferCollection, err)
	}
	return transfers, nil
}

func (db *Database) MarkTransferDispatched(ctx context.Context, id string) error {
	filter := bson.M{"_id": id, "dispatched": false}
	update := bson.M{"$set": bson.M{
		"dispatched":    true,
		"dispatched_at": time.Now().UnixMilli(),
	}}

	res, err := db.collection(model.TransferCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{
			Key:     id,
			Message: "pending transfer not found",
		}
	}
	return nil
}

func (db *Database) CountPendingTransfers(ctx context.Context) (int64, error) {
	return db.collection(model.TransferCollection).
		CountDocuments(ctx, bson.M{"dispatched": false})
}

func (db *Database) MarkTransferExecuted(ctx context.Context, id string) error {
	filter := bson.M{"_id": id, "dispatched": true, "executed": bson.M{"$ne": true}}
	update := bson.M{"$set": bson.M{
		"executed":    true,
		"executed_at": time.Now().UnixMilli(),
	}}

	res, err := db.collection(model.TransferCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{
			Key:     id,
			Message: "dispatched transfer not found",
		}
	}
	return nil
}

func (db *Database) CountUnsettledTransfers(ctx context.Context) (int64, error) {
	return db.collection(model.TransferCollection).
		CountDocuments(ctx, bson.M{"executed": bson.M{"$ne": true}})
}
