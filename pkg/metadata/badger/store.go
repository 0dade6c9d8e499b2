package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dcnetdisk/dcdisk/internal/logger"
	"github.com/dcnetdisk/dcdisk/pkg/metadata"
	"github.com/dcnetdisk/dcdisk/pkg/metrics"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"
)

// BadgerMetadataStore implements metadata.Repository using BadgerDB for persistence.
//
// BadgerDB is an embedded key-value store with crash recovery, which makes
// this the repository of choice for single-node deployments that must keep
// metadata across restarts without running a database server.
//
// Thread Safety:
// Badger transactions are safe for concurrent use. Save additionally holds
// mu so that the read-modify-write upsert of one key cannot interleave with
// another Save of the same key.
type BadgerMetadataStore struct {
	mu      sync.Mutex
	db      *badger.DB
	now     func() time.Time
	metrics metrics.MetadataMetrics
}

// BadgerMetadataStoreConfig contains configuration for creating a BadgerDB metadata store.
type BadgerMetadataStoreConfig struct {
	// DBPath is the directory where BadgerDB will store its files.
	// Ignored when InMemory is set.
	DBPath string

	// InMemory runs badger without touching disk. Used by tests.
	InMemory bool

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64)
	BlockCacheSizeMB int64

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32)
	IndexCacheSizeMB int64

	// Clock overrides time.Now.
	Clock func() time.Time

	// Metrics receives per-operation observations. Nil disables collection.
	Metrics metrics.MetadataMetrics
}

// NewBadgerMetadataStore opens (or creates) a BadgerDB database.
//
// Context Cancellation:
// The context is checked before the database is opened.
func NewBadgerMetadataStore(ctx context.Context, config BadgerMetadataStoreConfig) (*BadgerMetadataStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if config.DBPath == "" {
			return nil, fmt.Errorf("badger metadata store: db_path is required")
		}
		opts = badger.DefaultOptions(config.DBPath)
	}

	// Metadata records are small JSON documents; compression does not pay off.
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)

	blockCacheMB := config.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := config.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	opts = opts.WithIndexCacheSize(indexCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	m := config.Metrics
	if m == nil {
		m = metrics.NewNoopMetadataMetrics()
	}

	logger.Debug("BadgerDB metadata store opened (path=%q, in_memory=%t)", config.DBPath, config.InMemory)

	return &BadgerMetadataStore{
		db:      db,
		now:     clock,
		metrics: m,
	}, nil
}

func (s *BadgerMetadataStore) Save(ctx context.Context, entry *metadata.FileEntry) (result *metadata.FileEntry, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperation("save", time.Since(start), err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := metadata.ValidateForSave(entry); err != nil {
		return nil, err
	}

	stored := entry.Clone()
	stored.Path = metadata.CleanDir(stored.Path)
	if stored.IsDirectory {
		stored.Size = 0
	}
	key := keyEntry(stored.Owner, stored.Path, stored.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.Update(func(txn *badger.Txn) error {
		now := s.now()

		item, err := txn.Get(key)
		switch {
		case err == nil:
			var existing metadata.FileEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			}); err != nil {
				return fmt.Errorf("decode existing entry: %w", err)
			}
			stored.ID = existing.ID
			stored.CreatedAt = existing.CreatedAt
		case errors.Is(err, badger.ErrKeyNotFound):
			stored.ID = uuid.NewString()
			stored.CreatedAt = now
		default:
			return err
		}
		stored.ModifiedAt = now

		data, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("encode entry: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, metadata.NewIOError("failed to save entry", stored.FullPath(), err)
	}

	return stored, nil
}

func (s *BadgerMetadataStore) QueryAll(ctx context.Context, owner, dir string, ordering metadata.Ordering) (result []*metadata.FileEntry, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperation("query_all", time.Since(start), err) }()

	return s.scan(ctx, owner, dir, ordering)
}

func (s *BadgerMetadataStore) QuerySlice(ctx context.Context, owner, dir string, ordering metadata.Ordering, offset, count int) (result []*metadata.FileEntry, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperation("query_slice", time.Since(start), err) }()

	if err := metadata.ValidateWindow(offset, count); err != nil {
		return nil, err
	}
	entries, err := s.scan(ctx, owner, dir, ordering)
	if err != nil {
		return nil, err
	}
	return metadata.Window(entries, offset, count), nil
}

// scan loads every entry of one directory and sorts it. Badger keys are
// ordered by name only, so other orderings need the full directory in memory
// anyway.
func (s *BadgerMetadataStore) scan(ctx context.Context, owner, dir string, ordering metadata.Ordering) ([]*metadata.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ordering.Validate(); err != nil {
		return nil, metadata.NewInvalidArgument(err.Error())
	}

	dir = metadata.CleanDir(dir)
	prefix := keyDirPrefix(owner, dir)
	entries := []*metadata.FileEntry{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var e metadata.FileEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				_, _, name, _ := splitEntryKey(item.Key())
				return fmt.Errorf("decode entry %q: %w", name, err)
			}
			entries = append(entries, &e)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, metadata.NewIOError("failed to list directory", dir, err)
	}

	metadata.SortEntries(entries, ordering)
	return entries, nil
}

func (s *BadgerMetadataStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return &metadata.StoreError{Code: metadata.ErrClosed, Message: "badger database closed"}
	}
	return s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(prefixEntry))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

func (s *BadgerMetadataStore) Close() error {
	return s.db.Close()
}
