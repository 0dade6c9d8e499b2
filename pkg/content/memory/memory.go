package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dcnetdisk/dcdisk/pkg/content"
	"github.com/dcnetdisk/dcdisk/pkg/metrics"
)

// MemoryContentStore implements content.Store using in-memory storage.
//
// This implementation stores all content in memory using a map. It's designed for:
//   - Testing and development
//   - Ephemeral deployments paired with the memory metadata store
//
// Characteristics:
//   - Fast: All operations are memory-speed
//   - Volatile: Data lost on restart
//   - Memory-bound: Limited by available RAM
//
// Thread Safety:
// All operations are protected by a sync.RWMutex. Write buffers the whole
// body before taking the lock, so a reader sees either the previous bytes
// or the complete new ones. Stored slices are never modified in place.
type MemoryContentStore struct {
	// objects maps keys to files and directories. Directories are explicit
	// entries, as on a real filesystem.
	objects map[string]*object

	// mu protects concurrent access to objects
	mu sync.RWMutex

	metrics metrics.ContentMetrics
}

type object struct {
	data    []byte
	isDir   bool
	modTime time.Time
}

func (o *object) info() *content.Info {
	return &content.Info{Size: int64(len(o.data)), IsDir: o.isDir, ModTime: o.modTime}
}

// Config configures a MemoryContentStore.
type Config struct {
	// Metrics receives per-operation observations. Nil disables collection.
	Metrics metrics.ContentMetrics
}

// NewMemoryContentStore creates a new, empty in-memory store.
//
// Returns an error only if ctx is already cancelled.
func NewMemoryContentStore(ctx context.Context, config Config) (*MemoryContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := config.Metrics
	if m == nil {
		m = metrics.NewNoopContentMetrics()
	}

	return &MemoryContentStore{
		objects: make(map[string]*object),
		metrics: m,
	}, nil
}

func (s *MemoryContentStore) Type() string { return "memory" }

func (s *MemoryContentStore) Close() error { return nil }

// Stat returns information about key.
func (s *MemoryContentStore) Stat(ctx context.Context, key string) (info *content.Info, err error) {
	start := time.Now()
	defer func() { s.record("stat", start, 0, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := content.ValidateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("stat %s: %w", key, content.ErrNotFound)
	}
	return obj.info(), nil
}

// Open returns a reader over the bytes stored at key.
func (s *MemoryContentStore) Open(ctx context.Context, key string) (rc io.ReadCloser, info *content.Info, err error) {
	start := time.Now()
	defer func() {
		var n int64
		if info != nil {
			n = info.Size
		}
		s.record("open", start, n, err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if err := content.ValidateKey(key); err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, nil, fmt.Errorf("open %s: %w", key, content.ErrNotFound)
	}
	if obj.isDir {
		return nil, nil, fmt.Errorf("open %s: %w", key, content.ErrIsDirectory)
	}

	return io.NopCloser(bytes.NewReader(obj.data)), obj.info(), nil
}

// Write buffers r and stores it at key, replacing any existing file.
func (s *MemoryContentStore) Write(ctx context.Context, key string, r io.Reader) (size int64, err error) {
	start := time.Now()
	defer func() { s.record("write", start, size, err) }()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := content.ValidateKey(key); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(&ctxReader{ctx: ctx, r: r}); err != nil {
		return 0, fmt.Errorf("write %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkParent(key); err != nil {
		return 0, err
	}
	if existing, ok := s.objects[key]; ok && existing.isDir {
		return 0, fmt.Errorf("write %s: %w", key, content.ErrIsDirectory)
	}

	s.objects[key] = &object{data: buf.Bytes(), modTime: time.Now()}
	return int64(buf.Len()), nil
}

// checkParent requires the parent of key to be a directory. A single-segment
// key lives directly under the store root. Must hold s.mu.
func (s *MemoryContentStore) checkParent(key string) error {
	parent := content.ParentKey(key)
	if parent == "" {
		return nil
	}
	obj, ok := s.objects[parent]
	if !ok {
		return fmt.Errorf("write %s: %w", key, content.ErrNotFound)
	}
	if !obj.isDir {
		return fmt.Errorf("write %s: %w", key, content.ErrNotDirectory)
	}
	return nil
}

// MkdirAll creates the directory at key and any missing parents. Fails with
// content.ErrNotDirectory if a file occupies any segment.
func (s *MemoryContentStore) MkdirAll(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { s.record("mkdir", start, 0, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := content.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	segments := strings.Split(key, "/")
	for i := range segments {
		prefix := strings.Join(segments[:i+1], "/")
		if obj, ok := s.objects[prefix]; ok {
			if !obj.isDir {
				return fmt.Errorf("mkdir %s: %w", key, content.ErrNotDirectory)
			}
			continue
		}
		s.objects[prefix] = &object{isDir: true, modTime: time.Now()}
	}
	return nil
}

// Usage returns the number of stored files and their total size.
func (s *MemoryContentStore) Usage() (files int, bytes int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, obj := range s.objects {
		if obj.isDir {
			continue
		}
		files++
		bytes += int64(len(obj.data))
	}
	return files, bytes
}

func (s *MemoryContentStore) record(op string, start time.Time, bytes int64, err error) {
	s.metrics.RecordOperation(op, time.Since(start), bytes, err)
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
