// Package badger provides a Badger-based implementation of the storage interface.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/lira-ai/lira/pkg/memory"
	"github.com/lira-ai/lira/pkg/storage"
)

// Config holds configuration for BadgerStorage.
type Config struct {
	Path              string
	InMemory          bool
	SyncWrites        bool
	ValueLogFileSize  int64
	NumVersionsToKeep int
}

// BadgerStorage implements the Storage interface using Badger.
type BadgerStorage struct {
	db     *badger.DB
	config *Config
}

// NewBadgerStorage creates a new Badger storage instance.
func NewBadgerStorage(config *Config) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(config.Path)
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = config.SyncWrites
	if config.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = config.ValueLogFileSize
	}
	if config.NumVersionsToKeep > 0 {
		opts.NumVersionsToKeep = config.NumVersionsToKeep
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &storage.StorageUnavailableError{Cause: err}
	}

	return &BadgerStorage{
		db:     db,
		config: config,
	}, nil
}

// Key layout:
//
//	fact:rec:{user}:{unixnano}:{id} -> record JSON
//	fact:idx:{user}:{id}            -> record key
//
// User IDs are query-escaped so that ':' never appears inside a segment.
const (
	rootPrefix   = "fact:"
	recordPrefix = "fact:rec:"
	indexPrefix  = "fact:idx:"
)

func userRecordPrefix(userID string) []byte {
	return []byte(recordPrefix + url.QueryEscape(userID) + ":")
}

func recordKey(rec *memory.Record) []byte {
	ts, ok := memory.ParseTimestamp(rec.Timestamp)
	if !ok {
		ts = time.Now().UTC()
	}
	return []byte(fmt.Sprintf("%s%020d:%s", userRecordPrefix(rec.UserID), ts.UnixNano(), rec.ID))
}

func indexKey(userID, id string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", indexPrefix, url.QueryEscape(userID), id))
}

// Serialization helpers
func serialize(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &storage.SerializationError{
			Operation: "marshal",
			Cause:     err,
		}
	}
	return data, nil
}

func deserialize(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &storage.SerializationError{
			Operation: "unmarshal",
			Cause:     err,
		}
	}
	return nil
}

// SaveRecord saves a record and its id index entry.
func (b *BadgerStorage) SaveRecord(ctx context.Context, rec *memory.Record) error {
	if err := storage.Validate(rec); err != nil {
		return err
	}
	data, err := serialize(rec)
	if err != nil {
		return err
	}

	key := recordKey(rec)
	return b.db.Update(func(txn *badger.Txn) error {
		// Replace an earlier version stored under a different timestamp.
		if old, err := txn.Get(indexKey(rec.UserID, rec.ID)); err == nil {
			oldKey, err := old.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := txn.Delete(oldKey); err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(indexKey(rec.UserID, rec.ID), key)
	})
}

// DeleteRecord removes one record of a user.
func (b *BadgerStorage) DeleteRecord(ctx context.Context, userID, id string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		idx := indexKey(userID, id)
		item, err := txn.Get(idx)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return &storage.NotFoundError{EntityType: "record", ID: id}
			}
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(idx)
	})
}

// ScanRecords iterates a user's records in reverse key order, which is
// newest first.
func (b *BadgerStorage) ScanRecords(ctx context.Context, userID string, filter *storage.RecordFilter) ([]*memory.Record, error) {
	var records []*memory.Record
	prefix := userRecordPrefix(userID)

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(append(append([]byte(nil), prefix...), 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec memory.Record
			if err := it.Item().Value(func(val []byte) error {
				return deserialize(val, &rec)
			}); err != nil {
				continue
			}
			if !filter.Accept(rec.Text) {
				continue
			}
			records = append(records, &rec)
			if filter.Full(len(records)) {
				break
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return records, nil
}

// CountRecords counts records without loading values.
func (b *BadgerStorage) CountRecords(ctx context.Context, userID string) (int, error) {
	prefix := []byte(recordPrefix)
	if userID != "" {
		prefix = userRecordPrefix(userID)
	}

	count := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Reset drops every key of the archive.
func (b *BadgerStorage) Reset(ctx context.Context) (int, error) {
	n, err := b.CountRecords(ctx, "")
	if err != nil {
		return 0, err
	}
	if err := b.db.DropPrefix([]byte(rootPrefix)); err != nil {
		return 0, &storage.StorageUnavailableError{Cause: err}
	}
	return n, nil
}

// Close closes the Badger database.
func (b *BadgerStorage) Close() error {
	if !b.config.InMemory {
		// Value log GC is best effort; ErrNoRewrite is the common case.
		_ = b.db.RunValueLogGC(0.5)
	}
	return b.db.Close()
}
