package disk

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dcnetdisk/dcdisk/pkg/auth"
	"github.com/dcnetdisk/dcdisk/pkg/content/fs"
	"github.com/dcnetdisk/dcdisk/pkg/metadata"
	"github.com/dcnetdisk/dcdisk/pkg/metadata/memory"
	metadatatesting "github.com/dcnetdisk/dcdisk/pkg/metadata/testing"
	"github.com/stretchr/testify/require"
)

const (
	aliceToken = "tok-alice"
	bobToken   = "tok-bob"
)

// recordingRepo wraps a Repository, counting calls and injecting failures.
type recordingRepo struct {
	metadata.Repository

	mu        sync.Mutex
	calls     int
	saveErr   error
	queryErr  error
	lastSlice [2]int
}

func (r *recordingRepo) Save(ctx context.Context, e *metadata.FileEntry) (*metadata.FileEntry, error) {
	r.mu.Lock()
	r.calls++
	err := r.saveErr
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.Repository.Save(ctx, e)
}

func (r *recordingRepo) QueryAll(ctx context.Context, owner, dir string, o metadata.Ordering) ([]*metadata.FileEntry, error) {
	r.mu.Lock()
	r.calls++
	err := r.queryErr
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.Repository.QueryAll(ctx, owner, dir, o)
}

func (r *recordingRepo) QuerySlice(ctx context.Context, owner, dir string, o metadata.Ordering, offset, count int) ([]*metadata.FileEntry, error) {
	r.mu.Lock()
	r.calls++
	r.lastSlice = [2]int{offset, count}
	err := r.queryErr
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.Repository.QuerySlice(ctx, owner, dir, o, offset, count)
}

func (r *recordingRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// recordingMetrics captures DiskMetrics observations.
type recordingMetrics struct {
	mu    sync.Mutex
	ops   []string
	bytes map[string]int64
}

func (m *recordingMetrics) RecordOperation(op string, _ time.Duration, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, op+":"+code)
}

func (m *recordingMetrics) RecordBytesTransferred(direction string, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bytes == nil {
		m.bytes = make(map[string]int64)
	}
	m.bytes[direction] += n
}

type harness struct {
	svc     *Service
	store   *fs.FSContentStore
	repo    *recordingRepo
	metrics *recordingMetrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	store, err := fs.NewFSContentStore(ctx, fs.Config{Path: t.TempDir()})
	require.NoError(t, err)

	clock := metadatatesting.NewStepClock(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Second)
	repo := &recordingRepo{Repository: memory.NewMemoryMetadataStore(memory.MemoryMetadataStoreConfig{Clock: clock.Now})}
	m := &recordingMetrics{}

	svc, err := NewService(Config{
		Auth:       auth.NewStaticResolver(map[string]string{aliceToken: "alice", bobToken: "bob"}),
		Store:      store,
		Repository: repo,
		Root:       store.BasePath(),
		Metrics:    m,
	})
	require.NoError(t, err)

	require.NoError(t, svc.ProvisionUser(ctx, "alice"))
	require.NoError(t, svc.ProvisionUser(ctx, "bob"))

	return &harness{svc: svc, store: store, repo: repo, metrics: m}
}

// requireCode asserts err is an *Error with the given code.
func requireCode(t *testing.T, err error, want ErrorCode) *Error {
	t.Helper()
	require.Error(t, err)
	var de *Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, want, de.Code, "error: %v", err)
	return de
}
