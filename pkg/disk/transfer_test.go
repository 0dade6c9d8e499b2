package disk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	contenttesting "github.com/dcnetdisk/dcdisk/pkg/content/testing"
	"github.com/dcnetdisk/dcdisk/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readDownload(t *testing.T, dl *Download) []byte {
	t.Helper()
	defer func() { _ = dl.Body.Close() }()
	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	return data
}

func TestUpload_RoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.svc.coordinator

	data := bytes.Repeat([]byte{0, 1, 2, 250, 255}, 4096)
	entry, err := c.Upload(ctx, "alice", "/", "blob.bin", bytes.NewReader(data))
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "blob.bin", entry.Name)
	assert.Equal(t, "/", entry.Path)
	assert.Equal(t, "alice", entry.Owner)
	assert.False(t, entry.IsDirectory)
	assert.Equal(t, int64(len(data)), entry.Size)
	assert.False(t, entry.CreatedAt.IsZero())

	dl, err := c.Download(ctx, "alice", "/", "blob.bin")
	require.NoError(t, err)
	assert.Equal(t, "blob.bin", dl.Name)
	assert.Equal(t, int64(len(data)), dl.Size)
	assert.Equal(t, data, readDownload(t, dl))
}

func TestUpload_SizeMatchesStorage(t *testing.T) {
	h := newHarness(t)

	entry, err := h.svc.coordinator.Upload(context.Background(), "alice", "/", "a.txt", strings.NewReader("twelve bytes"))
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(h.store.BasePath(), "alice", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, info.Size(), entry.Size)
}

func TestUpload_EncodedNames(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.svc.coordinator

	_, err := c.MakeDirectory(ctx, "alice", "/", "my%20docs")
	require.NoError(t, err)

	entry, err := c.Upload(ctx, "alice", "/my%20docs", "r%C3%A9sum%C3%A9.txt", strings.NewReader("cv"))
	require.NoError(t, err)
	assert.Equal(t, "/my docs", entry.Path)
	assert.Equal(t, "résumé.txt", entry.Name)

	dl, err := c.Download(ctx, "alice", "%2Fmy%20docs", "r%C3%A9sum%C3%A9.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("cv"), readDownload(t, dl))
}

func TestUpload_Overwrite(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.svc.coordinator

	first, err := c.Upload(ctx, "alice", "/", "a.txt", strings.NewReader("first version"))
	require.NoError(t, err)
	second, err := c.Upload(ctx, "alice", "/", "a.txt", strings.NewReader("v2"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, int64(2), second.Size)

	all, err := h.repo.QueryAll(ctx, "alice", "/", metadata.DefaultOrdering)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpload_DestinationErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.svc.coordinator

	_, err := c.Upload(ctx, "alice", "/", "file.txt", strings.NewReader("x"))
	require.NoError(t, err)
	calls := h.repo.callCount()

	tests := []struct {
		name     string
		path     string
		filename string
		code     ErrorCode
		stage    Stage
	}{
		{"missing directory", "/nope", "a.txt", CodePathNotFound, StagePathResolved},
		{"file as directory", "/file.txt", "a.txt", CodeNotADirectory, StagePathResolved},
		{"traversal", "/../bob", "a.txt", CodeInvalidPath, StageReceived},
		{"bad encoding", "/%zz", "a.txt", CodeInvalidEncoding, StageReceived},
		{"bad filename", "/", "../a.txt", CodeInvalidPath, StageReceived},
		{"empty filename", "/", "", CodeInvalidPath, StageReceived},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Upload(ctx, "alice", tt.path, tt.filename, strings.NewReader("data"))
			de := requireCode(t, err, tt.code)
			assert.Equal(t, tt.stage, de.Stage)
		})
	}
	assert.Equal(t, calls, h.repo.callCount(), "rejected uploads must not touch the repository")
}

func TestUpload_OntoDirectory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.svc.coordinator

	_, err := c.MakeDirectory(ctx, "alice", "/", "docs")
	require.NoError(t, err)

	_, err = c.Upload(ctx, "alice", "/", "docs", strings.NewReader("x"))
	de := requireCode(t, err, CodeInvalidPath)
	assert.Equal(t, StageTransferring, de.Stage)
}

func TestUpload_WriteFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.coordinator.Upload(ctx, "alice", "/", "broken.bin", &contenttesting.FailingReader{N: 8192})
	de := requireCode(t, err, CodeTransferFailed)
	assert.Equal(t, StageTransferring, de.Stage)

	all, err := h.repo.QueryAll(ctx, "alice", "/", metadata.DefaultOrdering)
	require.NoError(t, err)
	assert.Empty(t, all, "no metadata for a failed write")

	entries, err := os.ReadDir(filepath.Join(h.store.BasePath(), "alice"))
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial or temporary file left behind")
}

func TestUpload_RepositoryFailureLeavesOrphan(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.repo.saveErr = errors.New("database is down")

	_, err := h.svc.coordinator.Upload(ctx, "alice", "/", "orphan.txt", strings.NewReader("bytes"))
	de := requireCode(t, err, CodeRepositoryFailure)
	assert.Equal(t, StageTransferred, de.Stage)

	data, err := os.ReadFile(filepath.Join(h.store.BasePath(), "alice", "orphan.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), data)
}

func TestDownload_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.svc.coordinator

	_, err := c.Upload(ctx, "alice", "/", "secret.txt", strings.NewReader("alice only"))
	require.NoError(t, err)
	_, err = c.MakeDirectory(ctx, "alice", "/", "docs")
	require.NoError(t, err)

	tests := []struct {
		name     string
		user     string
		path     string
		filename string
		code     ErrorCode
	}{
		{"missing", "alice", "/", "missing.txt", CodeFileNotFound},
		{"directory", "alice", "/", "docs", CodeFileNotFound},
		{"missing directory", "alice", "/nope", "secret.txt", CodeFileNotFound},
		{"other user", "bob", "/", "secret.txt", CodeFileNotFound},
		{"traversal path", "bob", "/../alice", "secret.txt", CodeInvalidPath},
		{"traversal filename", "bob", "/", "..%2F..%2Falice%2Fsecret.txt", CodeInvalidPath},
		{"bad encoding", "alice", "/", "%E0%A4%A", CodeInvalidEncoding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dl, err := c.Download(ctx, tt.user, tt.path, tt.filename)
			assert.Nil(t, dl)
			requireCode(t, err, tt.code)
		})
	}
}

func TestDownload_ChecksStorageNotMetadata(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Written straight to storage: no metadata record exists.
	contenttesting.MustWrite(t, h.store, "alice/direct.txt", []byte("direct"))
	calls := h.repo.callCount()

	dl, err := h.svc.coordinator.Download(ctx, "alice", "/", "direct.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("direct"), readDownload(t, dl))
	assert.Equal(t, calls, h.repo.callCount())
}

func TestUpload_ConcurrentSameDestination(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.svc.coordinator

	const writers = 8
	payloads := make([]string, writers)
	for i := range payloads {
		payloads[i] = strings.Repeat(fmt.Sprintf("%d", i), 1000*(i+1))
	}

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Upload(ctx, "alice", "/", "race.txt", strings.NewReader(payloads[i]))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := h.repo.QueryAll(ctx, "alice", "/", metadata.DefaultOrdering)
	require.NoError(t, err)
	require.Len(t, all, 1)

	data, err := os.ReadFile(filepath.Join(h.store.BasePath(), "alice", "race.txt"))
	require.NoError(t, err)
	assert.Contains(t, payloads, string(data), "file holds exactly one writer's bytes")
	assert.Equal(t, int64(len(data)), all[0].Size)
	assert.Zero(t, c.locks.len())
}

func TestMakeDirectory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.svc.coordinator

	entry, err := c.MakeDirectory(ctx, "alice", "/", "photos")
	require.NoError(t, err)
	assert.True(t, entry.IsDirectory)
	assert.Equal(t, int64(0), entry.Size)
	assert.Equal(t, "/", entry.Path)

	_, err = c.Upload(ctx, "alice", "/photos", "cat.jpg", strings.NewReader("meow"))
	require.NoError(t, err)

	_, err = c.MakeDirectory(ctx, "alice", "/missing", "x")
	requireCode(t, err, CodePathNotFound)
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "path_resolved", StagePathResolved.String())
	assert.Equal(t, "complete", StageComplete.String())
	assert.Equal(t, "unknown", Stage(0).String())
}
