package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dcnetdisk/dcdisk/pkg/metadata"
	"github.com/dcnetdisk/dcdisk/pkg/metrics"
	"github.com/google/uuid"
)

// MemoryMetadataStore implements metadata.Repository in process memory.
//
// Entries are indexed by owner and directory so a listing only touches the
// entries of one directory. Nothing survives a restart; use the badger or
// postgres repositories when persistence is needed.
//
// Thread Safety:
// All operations are protected by a single read-write mutex.
type MemoryMetadataStore struct {
	mu sync.RWMutex

	// dirs maps owner -> directory -> name -> entry
	dirs map[string]map[string]map[string]*metadata.FileEntry

	closed  bool
	now     func() time.Time
	metrics metrics.MetadataMetrics
}

// MemoryMetadataStoreConfig configures a MemoryMetadataStore.
type MemoryMetadataStoreConfig struct {
	// Clock overrides time.Now. Used by tests that need distinct timestamps.
	Clock func() time.Time

	// Metrics receives per-operation observations. Nil disables collection.
	Metrics metrics.MetadataMetrics
}

// NewMemoryMetadataStore creates an empty in-memory repository.
func NewMemoryMetadataStore(config MemoryMetadataStoreConfig) *MemoryMetadataStore {
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	m := config.Metrics
	if m == nil {
		m = metrics.NewNoopMetadataMetrics()
	}
	return &MemoryMetadataStore{
		dirs:    make(map[string]map[string]map[string]*metadata.FileEntry),
		now:     clock,
		metrics: m,
	}
}

// NewMemoryMetadataStoreWithDefaults creates a repository with the real clock and no metrics.
func NewMemoryMetadataStoreWithDefaults() *MemoryMetadataStore {
	return NewMemoryMetadataStore(MemoryMetadataStoreConfig{})
}

func (s *MemoryMetadataStore) Save(ctx context.Context, entry *metadata.FileEntry) (result *metadata.FileEntry, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperation("save", time.Since(start), err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := metadata.ValidateForSave(entry); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, &metadata.StoreError{Code: metadata.ErrClosed, Message: "repository closed"}
	}

	stored := entry.Clone()
	stored.Path = metadata.CleanDir(stored.Path)
	if stored.IsDirectory {
		stored.Size = 0
	}

	byDir, ok := s.dirs[stored.Owner]
	if !ok {
		byDir = make(map[string]map[string]*metadata.FileEntry)
		s.dirs[stored.Owner] = byDir
	}
	byName, ok := byDir[stored.Path]
	if !ok {
		byName = make(map[string]*metadata.FileEntry)
		byDir[stored.Path] = byName
	}

	now := s.now()
	if existing, ok := byName[stored.Name]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.ID = uuid.NewString()
		stored.CreatedAt = now
	}
	stored.ModifiedAt = now

	byName[stored.Name] = stored
	return stored.Clone(), nil
}

func (s *MemoryMetadataStore) QueryAll(ctx context.Context, owner, dir string, ordering metadata.Ordering) (result []*metadata.FileEntry, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperation("query_all", time.Since(start), err) }()

	return s.query(ctx, owner, dir, ordering)
}

func (s *MemoryMetadataStore) QuerySlice(ctx context.Context, owner, dir string, ordering metadata.Ordering, offset, count int) (result []*metadata.FileEntry, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperation("query_slice", time.Since(start), err) }()

	if err := metadata.ValidateWindow(offset, count); err != nil {
		return nil, err
	}
	entries, err := s.query(ctx, owner, dir, ordering)
	if err != nil {
		return nil, err
	}
	return metadata.Window(entries, offset, count), nil
}

func (s *MemoryMetadataStore) query(ctx context.Context, owner, dir string, ordering metadata.Ordering) ([]*metadata.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ordering.Validate(); err != nil {
		return nil, metadata.NewInvalidArgument(err.Error())
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, &metadata.StoreError{Code: metadata.ErrClosed, Message: "repository closed"}
	}

	byName := s.dirs[owner][metadata.CleanDir(dir)]
	entries := make([]*metadata.FileEntry, 0, len(byName))
	for _, e := range byName {
		entries = append(entries, e.Clone())
	}
	metadata.SortEntries(entries, ordering)
	return entries, nil
}

func (s *MemoryMetadataStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return &metadata.StoreError{Code: metadata.ErrClosed, Message: "repository closed"}
	}
	return nil
}

func (s *MemoryMetadataStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
