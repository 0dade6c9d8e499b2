package disk

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dcnetdisk/dcdisk/pkg/auth"
	"github.com/dcnetdisk/dcdisk/pkg/metadata/memory"
	metadatatesting "github.com/dcnetdisk/dcdisk/pkg/metadata/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService_RequiresCollaborators(t *testing.T) {
	h := newHarness(t)
	repo := memory.NewMemoryMetadataStoreWithDefaults()
	resolver := auth.NewStaticResolver(nil)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"no auth", Config{Store: h.store, Repository: repo}},
		{"no store", Config{Auth: resolver, Repository: repo}},
		{"no repository", Config{Auth: resolver, Store: h.store}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestService_AuthExpired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, token := range []string{"", "stale-token"} {
		_, err := h.svc.ListDirectory(ctx, token, "/", "", "", "")
		requireCode(t, err, CodeAuthExpired)

		_, err = h.svc.UploadFile(ctx, token, "/", "a.txt", strings.NewReader("x"))
		requireCode(t, err, CodeAuthExpired)

		_, err = h.svc.DownloadFile(ctx, token, "/", "a.txt")
		requireCode(t, err, CodeAuthExpired)

		_, err = h.svc.CreateDirectory(ctx, token, "/", "docs")
		requireCode(t, err, CodeAuthExpired)
	}
	assert.Zero(t, h.repo.callCount())
}

func TestService_ListDirectory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, f := range []struct {
		name string
		size int
	}{{"b.txt", 20}, {"a.txt", 10}, {"c.txt", 30}} {
		_, err := h.svc.UploadFile(ctx, aliceToken, "/", f.name, bytes.NewReader(make([]byte, f.size)))
		require.NoError(t, err)
	}
	_, err := h.svc.UploadFile(ctx, bobToken, "/", "bob.txt", strings.NewReader("bob"))
	require.NoError(t, err)

	tests := []struct {
		name           string
		orderBy, order string
		limit          string
		want           []string
	}{
		{"defaults", "", "", "", []string{"a.txt", "b.txt", "c.txt"}},
		{"name asc", "name", "asc", "all", []string{"a.txt", "b.txt", "c.txt"}},
		{"size desc", "size", "desc", "", []string{"c.txt", "b.txt", "a.txt"}},
		{"range", "", "", "1-2", []string{"b.txt", "c.txt"}},
		{"range past end", "", "", "5-10", []string{}},
		{"reversed range", "", "", "2-1", []string{}},
		{"created", "created", "asc", "", []string{"b.txt", "a.txt", "c.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.svc.ListDirectory(ctx, aliceToken, "/", tt.orderBy, tt.order, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, metadatatesting.Names(got))
		})
	}

	first, err := h.svc.ListDirectory(ctx, aliceToken, "%2F", "size", "desc", "0-1")
	require.NoError(t, err)
	second, err := h.svc.ListDirectory(ctx, aliceToken, "%2F", "size", "desc", "0-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestService_ListDirectory_Rejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.UploadFile(ctx, aliceToken, "/", "file.txt", strings.NewReader("x"))
	require.NoError(t, err)
	calls := h.repo.callCount()

	tests := []struct {
		name                 string
		path, orderBy, order string
		limit                string
		code                 ErrorCode
	}{
		{"malformed range", "/", "", "", "abc-2", CodeInvalidRange},
		{"range arity", "/", "", "", "1-2-3", CodeInvalidRange},
		{"unknown field", "/", "color", "", "", CodeInvalidOrdering},
		{"unknown direction", "/", "name", "up", "", CodeInvalidOrdering},
		{"missing directory", "/nope", "", "", "", CodePathNotFound},
		{"not a directory", "/file.txt", "", "", "", CodeNotADirectory},
		{"traversal", "/../bob", "", "", "", CodeInvalidPath},
		{"bad encoding", "/%E0", "", "", "", CodeInvalidEncoding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.ListDirectory(ctx, aliceToken, tt.path, tt.orderBy, tt.order, tt.limit)
			requireCode(t, err, tt.code)
		})
	}
	assert.Equal(t, calls, h.repo.callCount(), "rejected listings must not query the repository")
}

func TestService_ListDirectory_RepositoryFailure(t *testing.T) {
	h := newHarness(t)
	h.repo.queryErr = errors.New("timeout")

	_, err := h.svc.ListDirectory(context.Background(), aliceToken, "/", "", "", "")
	requireCode(t, err, CodeRepositoryFailure)
}

func TestService_UploadDownload(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	dir, err := h.svc.CreateDirectory(ctx, aliceToken, "/", "docs")
	require.NoError(t, err)
	assert.True(t, dir.IsDirectory)

	entry, err := h.svc.UploadFile(ctx, aliceToken, "/docs", "notes.md", strings.NewReader("# notes"))
	require.NoError(t, err)
	assert.Equal(t, "/docs", entry.Path)
	assert.Equal(t, int64(7), entry.Size)

	dl, err := h.svc.DownloadFile(ctx, aliceToken, "/docs", "notes.md")
	require.NoError(t, err)
	assert.Equal(t, []byte("# notes"), readDownload(t, dl))

	_, err = h.svc.DownloadFile(ctx, bobToken, "/docs", "notes.md")
	requireCode(t, err, CodeFileNotFound)

	listing, err := h.svc.ListDirectory(ctx, aliceToken, "/", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, metadatatesting.Names(listing))
}

func TestService_Metrics(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.UploadFile(ctx, aliceToken, "/", "a.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	dl, err := h.svc.DownloadFile(ctx, aliceToken, "/", "a.txt")
	require.NoError(t, err)
	readDownload(t, dl)
	_, err = h.svc.ListDirectory(ctx, aliceToken, "/", "", "", "x")
	require.Error(t, err)
	_, err = h.svc.DownloadFile(ctx, "bad", "/", "a.txt")
	require.Error(t, err)

	assert.Equal(t, []string{
		"upload:",
		"download:",
		"list:INVALID_RANGE",
		"download:AUTH_EXPIRED",
	}, h.metrics.ops)
	assert.Equal(t, int64(5), h.metrics.bytes["in"])
	assert.Equal(t, int64(5), h.metrics.bytes["out"])
}

func TestService_ProvisionUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.svc.ProvisionUser(ctx, "carol"))
	require.NoError(t, h.svc.ProvisionUser(ctx, "carol"))

	info, err := h.store.Stat(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, info.IsDir)

	requireCode(t, h.svc.ProvisionUser(ctx, "../root"), CodeInvalidPath)
}

func TestService_Healthcheck(t *testing.T) {
	h := newHarness(t)
	assert.NoError(t, h.svc.Healthcheck(context.Background()))
}
