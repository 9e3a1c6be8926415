package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
	"github.com/babylonlabs-io/staking-ledger/internal/ledger"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

func (db *Database) Initialize(ctx context.Context, cfg *types.ContractConfig, fee ledger.FeeConfig) error {
	stateDoc := model.NewLedgerStateDocument(ledger.NewPoolState(), fee)
	configDoc := contractConfigToDocument(cfg)

	err := db.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := db.collection(model.LedgerStateCollection).InsertOne(sc, stateDoc); err != nil {
			return err
		}
		_, err := db.collection(model.ContractConfigCollection).InsertOne(sc, configDoc)
		return err
	})
	if err != nil {
		if isMongoDuplicateKeyError(err) {
			return &DuplicateKeyError{
				Key:     model.LedgerStateID,
				Message: "ledger already initialized",
			}
		}
		return err
	}
	return nil
}

func (db *Database) LoadLedger(ctx context.Context) (*LedgerSnapshot, error) {
	var stateDoc model.LedgerStateDocument
	err := db.collection(model.LedgerStateCollection).
		FindOne(ctx, bson.M{"_id": model.LedgerStateID}).
		Decode(&stateDoc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     model.LedgerStateID,
				Message: "ledger state not found",
			}
		}
		return nil, err
	}

	cursor, err := db.collection(model.StakerAccountCollection).
		Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accountDocs []model.StakerAccountDocument
	if err := cursor.All(ctx, &accountDocs); err != nil {
		return nil, err
	}

	return snapshotFromDocuments(&stateDoc, accountDocs)
}

func (db *Database) Commit(ctx context.Context, t *ledger.Transition) error {
	now := time.Now().UnixMilli()

	err := db.withTransaction(ctx, func(sc mongo.SessionContext) error {
		set := bson.M{
			"total_shares":  t.Pool.TotalShares.String(),
			"total_tokens":  t.Pool.TotalTokens.String(),
			"locked_shares": t.Pool.LockedShares.String(),
		}
		if t.Fee != nil {
			set["fee_rate"] = t.Fee.Rate.String()
			set["developer"] = t.Fee.Developer
		}
		if n := len(t.Transfers); n > 0 {
			set["last_transfer_seq"] = t.Transfers[n-1].Seq
		}

		res, err := db.collection(model.LedgerStateCollection).
			UpdateOne(sc, bson.M{"_id": model.LedgerStateID}, bson.M{"$set": set})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return &NotFoundError{
				Key:     model.LedgerStateID,
				Message: "ledger state not found",
			}
		}

		for _, acct := range t.Accounts {
			doc := model.FromStakerAccount(acct)
			_, err := db.collection(model.StakerAccountCollection).
				ReplaceOne(sc, bson.M{"_id": doc.Address}, doc, options.Replace().SetUpsert(true))
			if err != nil {
				return err
			}
		}

		if len(t.Transfers) == 0 {
			return nil
		}
		transferDocs := make([]interface{}, 0, len(t.Transfers))
		for _, transfer := range t.Transfers {
			transferDocs = append(transferDocs, model.FromTransfer(transfer, t.Kind, now))
		}
		_, err = db.collection(model.TransferCollection).InsertMany(sc, transferDocs)
		return err
	})
	if err != nil {
		if isMongoDuplicateKeyError(err) {
			return &DuplicateKeyError{
				Key:     t.Kind.String(),
				Message: "transfer already recorded",
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetContractConfig(ctx context.Context) (*types.ContractConfig, error) {
	var doc model.ContractConfigDocument
	err := db.collection(model.ContractConfigCollection).
		FindOne(ctx, bson.M{"_id": model.LedgerStateID}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     model.LedgerStateID,
				Message: "contract config not found",
			}
		}
		return nil, err
	}
	return contractConfigFromDocument(&doc), nil
}

func (db *Database) SaveContractConfig(ctx context.Context, cfg *types.ContractConfig) error {
	doc := contractConfigToDocument(cfg)
	res, err := db.collection(model.ContractConfigCollection).
		ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{
			Key:     doc.ID,
			Message: "contract config not found",
		}
	}
	return nil
}

func snapshotFromDocuments(stateDoc *model.LedgerStateDocument, accountDocs []model.StakerAccountDocument) (*LedgerSnapshot, error) {
	pool, err := stateDoc.ToPoolState()
	if err != nil {
		return nil, err
	}
	fee, err := stateDoc.ToFeeConfig()
	if err != nil {
		return nil, err
	}

	accounts := make([]ledger.StakerAccount, 0, len(accountDocs))
	for i := range accountDocs {
		acct, err := accountDocs[i].ToStakerAccount()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}

	return &LedgerSnapshot{
		Pool:            pool,
		Accounts:        accounts,
		Fee:             fee,
		LastTransferSeq: stateDoc.LastTransferSeq,
	}, nil
}

func contractConfigToDocument(cfg *types.ContractConfig) *model.ContractConfigDocument {
	return &model.ContractConfigDocument{
		ID:           model.LedgerStateID,
		Owner:        cfg.Owner,
		PendingOwner: cfg.PendingOwner,
		Token:        cfg.Token,
		Custody:      cfg.Custody,
		Self:         cfg.Self,
	}
}

func contractConfigFromDocument(doc *model.ContractConfigDocument) *types.ContractConfig {
	return &types.ContractConfig{
		Owner:        doc.Owner,
		PendingOwner: doc.PendingOwner,
		Token:        doc.Token,
		Custody:      doc.Custody,
		Self:         doc.Self,
	}
}

func isMongoDuplicateKeyError(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, e := range writeErr.WriteErrors {
			if mongo.IsDuplicateKeyError(e) {
				return true
			}
		}
	}
	return false
}

func wrapDecodeError(collection string, err error) error {
	return fmt.Errorf("failed to decode %s document: %w", collection, err)
}
