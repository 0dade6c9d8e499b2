package e2e

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dcnetdisk/dcdisk/pkg/config"
	"github.com/dcnetdisk/dcdisk/pkg/content"
	"github.com/dcnetdisk/dcdisk/pkg/metadata"
)

// MetadataStoreType represents the type of metadata store
type MetadataStoreType string

const (
	MetadataMemory MetadataStoreType = "memory"
	MetadataBadger MetadataStoreType = "badger"
)

// ContentStoreType represents the type of content store
type ContentStoreType string

const (
	ContentMemory     ContentStoreType = "memory"
	ContentFilesystem ContentStoreType = "filesystem"
	ContentS3         ContentStoreType = "s3"
)

// TestContextProvider is an interface for providing test context dependencies
type TestContextProvider interface {
	CreateTempDir(prefix string) string
	GetConfig() *TestConfig
	GetPort() int
}

// TestConfig holds the configuration for a test run
type TestConfig struct {
	Name          string
	MetadataStore MetadataStoreType
	ContentStore  ContentStoreType

	// S3-specific fields (set by localstack setup)
	s3Endpoint string
	s3Bucket   string
}

// String returns a string representation of the configuration
func (tc *TestConfig) String() string {
	return fmt.Sprintf("%s/%s", tc.MetadataStore, tc.ContentStore)
}

// CreateMetadataStore creates a metadata repository through the same
// factory the server uses.
func (tc *TestConfig) CreateMetadataStore(ctx context.Context, testCtx TestContextProvider) (metadata.Repository, error) {
	cfg := &config.MetadataConfig{Type: string(tc.MetadataStore)}

	switch tc.MetadataStore {
	case MetadataMemory:
	case MetadataBadger:
		cfg.Badger = map[string]any{
			"db_path": filepath.Join(testCtx.CreateTempDir("dcdisk-badger-*"), "metadata.db"),
		}
	default:
		return nil, fmt.Errorf("unknown metadata store type: %s", tc.MetadataStore)
	}

	return config.CreateMetadataStore(ctx, cfg, nil)
}

// CreateContentStore creates a byte store through the same factory the
// server uses.
func (tc *TestConfig) CreateContentStore(ctx context.Context, testCtx TestContextProvider) (content.Store, error) {
	cfg := &config.ContentConfig{Type: string(tc.ContentStore)}

	switch tc.ContentStore {
	case ContentMemory:
	case ContentFilesystem:
		cfg.Filesystem = map[string]any{"path": testCtx.CreateTempDir("dcdisk-content-*")}
	case ContentS3:
		// S3 requires localstack setup
		c := testCtx.GetConfig()
		if c.s3Bucket == "" {
			return nil, fmt.Errorf("S3 bucket not initialized (localstack not running?)")
		}
		cfg.S3 = map[string]any{
			"region":            localstackRegion,
			"bucket":            c.s3Bucket,
			"key_prefix":        fmt.Sprintf("e2e-%d/", testCtx.GetPort()),
			"endpoint":          c.s3Endpoint,
			"access_key_id":     "test",
			"secret_access_key": "test",
			"max_retries":       3,
		}
	default:
		return nil, fmt.Errorf("unknown content store type: %s", tc.ContentStore)
	}

	return config.CreateContentStore(ctx, cfg, nil)
}

// AllConfigurations returns all test configurations to run
func AllConfigurations() []*TestConfig {
	return []*TestConfig{
		{
			Name:          "memory-memory",
			MetadataStore: MetadataMemory,
			ContentStore:  ContentMemory,
		},
		{
			Name:          "memory-filesystem",
			MetadataStore: MetadataMemory,
			ContentStore:  ContentFilesystem,
		},
		{
			Name:          "badger-filesystem",
			MetadataStore: MetadataBadger,
			ContentStore:  ContentFilesystem,
		},
	}
}

// S3Configurations returns configurations that use S3 (requires localstack)
func S3Configurations() []*TestConfig {
	return []*TestConfig{
		{
			Name:          "memory-s3",
			MetadataStore: MetadataMemory,
			ContentStore:  ContentS3,
		},
		{
			Name:          "badger-s3",
			MetadataStore: MetadataBadger,
			ContentStore:  ContentS3,
		},
	}
}

// GetConfiguration returns a specific configuration by name
func GetConfiguration(name string) *TestConfig {
	for _, c := range AllConfigurations() {
		if c.Name == name {
			return c
		}
	}
	for _, c := range S3Configurations() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
