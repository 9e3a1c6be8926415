package db

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
	"github.com/babylonlabs-io/staking-ledger/internal/ledger"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

var (
	bucketLedger      = []byte(model.LedgerStateCollection)
	bucketAccounts    = []byte(model.StakerAccountCollection)
	bucketTransfers   = []byte(model.TransferCollection)
	bucketPending     = []byte("pending_transfers")
	bucketUnsettled   = []byte("unsettled_transfers")
	bucketTransferIDs = []byte("transfer_ids")

	keyState  = []byte("state")
	keyConfig = []byte("config")
)

// BoltDatabase is an embedded single-file backend. Documents are stored with
// the same bson encoding mongo uses; transfers are keyed by big-endian seq so
// cursor order is dispatch order.
type BoltDatabase struct {
	db *bbolt.DB
}

func NewBoltDatabase(path string) (*BoltDatabase, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketLedger, bucketAccounts, bucketTransfers, bucketPending, bucketUnsettled, bucketTransferIDs} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltDatabase{db: db}, nil
}

func (b *BoltDatabase) Ping(_ context.Context) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketLedger) == nil {
			return fmt.Errorf("bucket %q missing", bucketLedger)
		}
		return nil
	})
}

func (b *BoltDatabase) Close(_ context.Context) error {
	return b.db.Close()
}

func (b *BoltDatabase) Initialize(_ context.Context, cfg *types.ContractConfig, fee ledger.FeeConfig) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketLedger)
		if bucket.Get(keyState) != nil {
			return &DuplicateKeyError{
				Key:     model.LedgerStateID,
				Message: "ledger already initialized",
			}
		}
		if err := putDocument(bucket, keyState, model.NewLedgerStateDocument(ledger.NewPoolState(), fee)); err != nil {
			return err
		}
		return putDocument(bucket, keyConfig, contractConfigToDocument(cfg))
	})
}

func (b *BoltDatabase) LoadLedger(_ context.Context) (*LedgerSnapshot, error) {
	var snapshot *LedgerSnapshot
	err := b.db.View(func(tx *bbolt.Tx) error {
		stateDoc, err := getLedgerState(tx)
		if err != nil {
			return err
		}

		var accountDocs []model.StakerAccountDocument
		err = tx.Bucket(bucketAccounts).ForEach(func(_, v []byte) error {
			var doc model.StakerAccountDocument
			if err := bson.Unmarshal(v, &doc); err != nil {
				return wrapDecodeError(model.StakerAccountCollection, err)
			}
			accountDocs = append(accountDocs, doc)
			return nil
		})
		if err != nil {
			return err
		}

		snapshot, err = snapshotFromDocuments(stateDoc, accountDocs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (b *BoltDatabase) Commit(_ context.Context, t *ledger.Transition) error {
	now := time.Now().UnixMilli()

	return b.db.Update(func(tx *bbolt.Tx) error {
		stateDoc, err := getLedgerState(tx)
		if err != nil {
			return err
		}
		stateDoc.Apply(t)
		if err := putDocument(tx.Bucket(bucketLedger), keyState, stateDoc); err != nil {
			return err
		}

		accounts := tx.Bucket(bucketAccounts)
		for _, acct := range t.Accounts {
			doc := model.FromStakerAccount(acct)
			if err := putDocument(accounts, []byte(doc.Address), doc); err != nil {
				return err
			}
		}

		transfers := tx.Bucket(bucketTransfers)
		pending := tx.Bucket(bucketPending)
		unsettled := tx.Bucket(bucketUnsettled)
		ids := tx.Bucket(bucketTransferIDs)
		for _, transfer := range t.Transfers {
			key := seqKey(transfer.Seq)
			if transfers.Get(key) != nil || ids.Get([]byte(transfer.ID)) != nil {
				return &DuplicateKeyError{
					Key:     transfer.ID,
					Message: "transfer already recorded",
				}
			}
			if err := putDocument(transfers, key, model.FromTransfer(transfer, t.Kind, now)); err != nil {
				return err
			}
			if err := pending.Put(key, []byte(transfer.ID)); err != nil {
				return err
			}
			if err := unsettled.Put(key, []byte(transfer.ID)); err != nil {
				return err
			}
			if err := ids.Put([]byte(transfer.ID), key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BoltDatabase) GetContractConfig(_ context.Context) (*types.ContractConfig, error) {
	var cfg *types.ContractConfig
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketLedger).Get(keyConfig)
		if data == nil {
			return &NotFoundError{
				Key:     model.LedgerStateID,
				Message: "contract config not found",
			}
		}
		var doc model.ContractConfigDocument
		if err := bson.Unmarshal(data, &doc); err != nil {
			return wrapDecodeError(model.ContractConfigCollection, err)
		}
		cfg = contractConfigFromDocument(&doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (b *BoltDatabase) SaveContractConfig(_ context.Context, cfg *types.ContractConfig) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketLedger)
		if bucket.Get(keyConfig) == nil {
			return &NotFoundError{
				Key:     model.LedgerStateID,
				Message: "contract config not found",
			}
		}
		return putDocument(bucket, keyConfig, contractConfigToDocument(cfg))
	})
}

func (b *BoltDatabase) FindPendingTransfers(_ context.Context, limit int64) ([]model.TransferDocument, error) {
	var result []model.TransferDocument
	err := b.db.View(func(tx *bbolt.Tx) error {
		transfers := tx.Bucket(bucketTransfers)
		cursor := tx.Bucket(bucketPending).Cursor()
		for k, _ := cursor.First(); k != nil; k, _ = cursor.Next() {
			if limit > 0 && int64(len(result)) >= limit {
				break
			}
			var doc model.TransferDocument
			if err := bson.Unmarshal(transfers.Get(k), &doc); err != nil {
				return wrapDecodeError(model.TransferCollection, err)
			}
			result = append(result, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (b *BoltDatabase) MarkTransferDispatched(_ context.Context, id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		key := tx.Bucket(bucketTransferIDs).Get([]byte(id))
		pending := tx.Bucket(bucketPending)
		if key == nil || pending.Get(key) == nil {
			return &NotFoundError{
				Key:     id,
				Message: "pending transfer not found",
			}
		}
		// key points into the mmap and is only valid inside the transaction
		key = append([]byte(nil), key...)

		transfers := tx.Bucket(bucketTransfers)
		var doc model.TransferDocument
		if err := bson.Unmarshal(transfers.Get(key), &doc); err != nil {
			return wrapDecodeError(model.TransferCollection, err)
		}
		doc.Dispatched = true
		doc.DispatchedAt = time.Now().UnixMilli()
		if err := putDocument(transfers, key, &doc); err != nil {
			return err
		}
		return pending.Delete(key)
	})
}

func (b *BoltDatabase) CountPendingTransfers(_ context.Context) (int64, error) {
	var count int64
	err := b.db.View(func(tx *bbolt.Tx) error {
		count = int64(tx.Bucket(bucketPending).Stats().KeyN)
		return nil
	})
	return count, err
}

func (b *BoltDatabase) MarkTransferExecuted(_ context.Context, id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		notFound := &NotFoundError{
			Key:     id,
			Message: "dispatched transfer not found",
		}
		key := tx.Bucket(bucketTransferIDs).Get([]byte(id))
		unsettled := tx.Bucket(bucketUnsettled)
		if key == nil || unsettled.Get(key) == nil {
			return notFound
		}
		key = append([]byte(nil), key...)

		transfers := tx.Bucket(bucketTransfers)
		var doc model.TransferDocument
		if err := bson.Unmarshal(transfers.Get(key), &doc); err != nil {
			return wrapDecodeError(model.TransferCollection, err)
		}
		if !doc.Dispatched {
			return notFound
		}
		doc.Executed = true
		doc.ExecutedAt = time.Now().UnixMilli()
		if err := putDocument(transfers, key, &doc); err != nil {
			return err
		}
		return unsettled.Delete(key)
	})
}

func (b *BoltDatabase) CountUnsettledTransfers(_ context.Context) (int64, error) {
	var count int64
	err := b.db.View(func(tx *bbolt.Tx) error {
		count = int64(tx.Bucket(bucketUnsettled).Stats().KeyN)
		return nil
	})
	return count, err
}

func getLedgerState(tx *bbolt.Tx) (*model.LedgerStateDocument, error) {
	data := tx.Bucket(bucketLedger).Get(keyState)
	if data == nil {
		return nil, &NotFoundError{
			Key:     model.LedgerStateID,
			Message: "ledger state not found",
		}
	}
	var doc model.LedgerStateDocument
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, wrapDecodeError(model.LedgerStateCollection, err)
	}
	return &doc, nil
}

func putDocument(bucket *bbolt.Bucket, key []byte, doc interface{}) error {
	data, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return bucket.Put(key, data)
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
