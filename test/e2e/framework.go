package e2e

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dcnetdisk/dcdisk/internal/logger"
	"github.com/dcnetdisk/dcdisk/pkg/adapter/httpapi"
	"github.com/dcnetdisk/dcdisk/pkg/auth"
	"github.com/dcnetdisk/dcdisk/pkg/content"
	"github.com/dcnetdisk/dcdisk/pkg/disk"
	"github.com/dcnetdisk/dcdisk/pkg/metadata"
	"github.com/dcnetdisk/dcdisk/pkg/server"
)

const (
	testSecret = "e2e-secret-0123456789abcdef0123456789"

	// maxUploadBytes is the upload limit of the test server.
	maxUploadBytes = 32 << 20
)

// DefaultUsers are provisioned on every test server.
var DefaultUsers = []string{"alice", "bob"}

// TestContext provides a complete testing environment with:
// - Running dcdisk server on a free port
// - Provisioned users with session tokens
// - Cleanup mechanisms
type TestContext struct {
	T             *testing.T
	Config        *TestConfig
	Server        *server.DiskServer
	Service       *disk.Service
	Issuer        *auth.JWTResolver
	MetadataStore metadata.Repository
	ContentStore  content.Store
	BaseURL       string
	Port          int
	Client        *http.Client
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	tempDirs      []string
	tokens        map[string]string
}

// NewTestContext creates a new test environment with the specified configuration.
// It starts the dcdisk server and provisions DefaultUsers.
func NewTestContext(t *testing.T, config *TestConfig) *TestContext {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	tc := &TestContext{
		T:      t,
		Config: config,
		ctx:    ctx,
		cancel: cancel,
		Port:   findFreePort(t),
		Client: &http.Client{Timeout: time.Minute},
		tokens: make(map[string]string),
	}
	tc.BaseURL = fmt.Sprintf("http://127.0.0.1:%d", tc.Port)

	tc.setupStores()
	tc.startServer()
	tc.provisionUsers(DefaultUsers...)

	return tc
}

// setupStores initializes metadata and content stores based on the test configuration
func (tc *TestContext) setupStores() {
	tc.T.Helper()

	var err error

	tc.MetadataStore, err = tc.Config.CreateMetadataStore(tc.ctx, tc)
	if err != nil {
		tc.T.Fatalf("Failed to create metadata store: %v", err)
	}

	tc.ContentStore, err = tc.Config.CreateContentStore(tc.ctx, tc)
	if err != nil {
		tc.T.Fatalf("Failed to create content store: %v", err)
	}
}

// startServer starts the dcdisk server with the configured stores
func (tc *TestContext) startServer() {
	tc.T.Helper()

	// Always use ERROR level to keep test output clean
	logger.SetLevel("ERROR")

	var err error
	tc.Issuer, err = auth.NewJWTResolver(auth.JWTConfig{
		Secret: testSecret,
		Issuer: "dcdisk-e2e",
		TTL:    time.Hour,
	})
	if err != nil {
		tc.T.Fatalf("Failed to create JWT resolver: %v", err)
	}

	tc.Service, err = disk.NewService(disk.Config{
		Auth:       tc.Issuer,
		Store:      tc.ContentStore,
		Repository: tc.MetadataStore,
		Root:       tc.Config.String(),
	})
	if err != nil {
		tc.T.Fatalf("Failed to create disk service: %v", err)
	}

	httpAdapter := httpapi.New(httpapi.HTTPConfig{
		Enabled:        true,
		Port:           tc.Port,
		MaxUploadBytes: maxUploadBytes,
	}, nil) // nil = no metrics

	tc.Server = server.New(tc.Service, 30*time.Second)

	// Server injects the service into the adapter
	if err := tc.Server.AddAdapter(httpAdapter); err != nil {
		tc.T.Fatalf("Failed to add HTTP adapter: %v", err)
	}

	tc.wg.Add(1)
	go func() {
		defer tc.wg.Done()
		if err := tc.Server.Serve(tc.ctx); err != nil && !errors.Is(err, context.Canceled) {
			tc.T.Logf("Server error: %v", err)
		}
	}()

	tc.waitForServer()
}

// waitForServer waits for the health endpoint to answer
func (tc *TestContext) waitForServer() {
	tc.T.Helper()

	timeout := time.After(10 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			tc.T.Fatal("Timeout waiting for server to start")
		case <-ticker.C:
			resp, err := tc.Client.Get(tc.BaseURL + "/health")
			if err == nil {
				_ = resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return
				}
			}
		}
	}
}

// provisionUsers creates each user's root and issues a session token.
func (tc *TestContext) provisionUsers(users ...string) {
	tc.T.Helper()

	for _, user := range users {
		if err := tc.Service.ProvisionUser(tc.ctx, user); err != nil {
			tc.T.Fatalf("Failed to provision %s: %v", user, err)
		}
		token, _, err := tc.Issuer.Issue(user)
		if err != nil {
			tc.T.Fatalf("Failed to issue token for %s: %v", user, err)
		}
		tc.tokens[user] = token
	}
}

// Token returns the session token of a provisioned user.
func (tc *TestContext) Token(user string) string {
	tc.T.Helper()

	token, ok := tc.tokens[user]
	if !ok {
		tc.T.Fatalf("User %s was not provisioned", user)
	}
	return token
}

// Cleanup stops the server and removes temporary files
func (tc *TestContext) Cleanup() {
	tc.T.Helper()

	if tc.cancel != nil {
		tc.cancel()
	}
	tc.wg.Wait()

	if tc.MetadataStore != nil {
		_ = tc.MetadataStore.Close()
	}
	if tc.ContentStore != nil {
		_ = tc.ContentStore.Close()
	}

	for _, dir := range tc.tempDirs {
		_ = os.RemoveAll(dir)
	}
}

// CreateTempDir creates a temporary directory and registers it for cleanup
func (tc *TestContext) CreateTempDir(prefix string) string {
	tc.T.Helper()

	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		tc.T.Fatalf("Failed to create temp directory: %v", err)
	}
	tc.tempDirs = append(tc.tempDirs, dir)
	return dir
}

// GetConfig returns the test configuration
func (tc *TestContext) GetConfig() *TestConfig {
	return tc.Config
}

// GetPort returns the server port
func (tc *TestContext) GetPort() int {
	return tc.Port
}

// findFreePort finds an available TCP port
func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer func() { _ = listener.Close() }()

	return listener.Addr().(*net.TCPAddr).Port
}
