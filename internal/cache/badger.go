package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes for BadgerDB storage
const (
	entryKeyPrefix = "e:"
	tagKeyPrefix   = "t:"
)

// deleteChunk bounds the keys deleted per transaction.
const deleteChunk = 500

// BadgerStore is a Store on BadgerDB. Tag membership is kept as empty
// index keys "t:<tag>|<key>" written with the entry's TTL, so expiry of an
// entry also expires its index.
type BadgerStore struct {
	db         *badger.DB
	logger     *slog.Logger
	gcInterval time.Duration
}

// OpenBadger opens a BadgerDB at path. An empty path opens an in-memory
// database.
func OpenBadger(path string, logger *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return NewBadgerStore(db, logger), nil
}

// NewBadgerStore wraps an open database. Close closes it.
func NewBadgerStore(db *badger.DB, logger *slog.Logger) *BadgerStore {
	return &BadgerStore{
		db:         db,
		logger:     logger.With("component", "cache-badger"),
		gcInterval: 5 * time.Minute,
	}
}

func (b *BadgerStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(entryKeyPrefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get entry: %w", err)
	}
	return value, true, nil
}

func (b *BadgerStore) Set(_ context.Context, key string, value []byte, ttl time.Duration, tags []string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(entryKeyPrefix+key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set entry: %w", err)
		}
		for _, tag := range tags {
			idx := badger.NewEntry(tagIndexKey(tag, key), nil)
			if ttl > 0 {
				idx = idx.WithTTL(ttl)
			}
			if err := txn.SetEntry(idx); err != nil {
				return fmt.Errorf("set tag index: %w", err)
			}
		}
		return nil
	})
}

func (b *BadgerStore) Delete(_ context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(entryKeyPrefix + key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete entry: %w", err)
		}
		return nil
	})
}

// InvalidateTag deletes every entry indexed under tag, and the index keys.
func (b *BadgerStore) InvalidateTag(_ context.Context, tag string) error {
	prefix := []byte(tagKeyPrefix + tag + "|")
	var indexKeys [][]byte

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			indexKeys = append(indexKeys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan tag %s: %w", tag, err)
	}

	for start := 0; start < len(indexKeys); start += deleteChunk {
		end := min(start+deleteChunk, len(indexKeys))
		err := b.db.Update(func(txn *badger.Txn) error {
			for _, idx := range indexKeys[start:end] {
				key := idx[len(prefix):]
				if err := txn.Delete(append([]byte(entryKeyPrefix), key...)); err != nil {
					return fmt.Errorf("delete entry: %w", err)
				}
				if err := txn.Delete(idx); err != nil {
					return fmt.Errorf("delete tag index: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *BadgerStore) Name() string { return "badger" }

func (b *BadgerStore) Close() error { return b.db.Close() }

// Serve runs value-log garbage collection until ctx is cancelled.
// In-memory databases have no value log and only wait for cancellation.
func (b *BadgerStore) Serve(ctx context.Context) error {
	if b.db.Opts().InMemory {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(b.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.collect()
		}
	}
}

func (b *BadgerStore) String() string { return "cache-badger-gc" }

// collect rewrites value-log files until badger reports nothing left to do.
func (b *BadgerStore) collect() {
	for {
		err := b.db.RunValueLogGC(0.5)
		if err == nil {
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) {
			b.logger.Warn("value log gc failed", "error", err)
		}
		return
	}
}

func tagIndexKey(tag, key string) []byte {
	return []byte(tagKeyPrefix + tag + "|" + key)
}
