package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dcnetdisk/dcdisk/internal/logger"
	"github.com/dcnetdisk/dcdisk/pkg/auth"
	"github.com/dcnetdisk/dcdisk/pkg/content"
	contentFs "github.com/dcnetdisk/dcdisk/pkg/content/fs"
	contentMemory "github.com/dcnetdisk/dcdisk/pkg/content/memory"
	contentS3 "github.com/dcnetdisk/dcdisk/pkg/content/s3"
	"github.com/dcnetdisk/dcdisk/pkg/metadata"
	"github.com/dcnetdisk/dcdisk/pkg/metadata/badger"
	"github.com/dcnetdisk/dcdisk/pkg/metadata/memory"
	"github.com/dcnetdisk/dcdisk/pkg/metadata/postgres"
	"github.com/dcnetdisk/dcdisk/pkg/metrics"
	"github.com/mitchellh/mapstructure"
)

// decode decodes a type-specific options map, converting duration strings.
func decode(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(options)
}

// CreateContentStore creates a byte store based on configuration.
//
// Supported types:
//   - "filesystem": Uses pkg/content/fs (local directory tree)
//   - "s3": Uses pkg/content/s3 (Amazon S3 or compatible storage)
//   - "memory": Uses pkg/content/memory (ephemeral, development only)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Content store configuration
//   - m: Optional metrics collector (nil = no metrics)
func CreateContentStore(ctx context.Context, cfg *ContentConfig, m metrics.ContentMetrics) (content.Store, error) {
	switch cfg.Type {
	case "filesystem":
		return createFilesystemContentStore(ctx, cfg.Filesystem, m)
	case "s3":
		return createS3ContentStore(ctx, cfg.S3, m)
	case "memory":
		return contentMemory.NewMemoryContentStore(ctx, contentMemory.Config{Metrics: m})
	default:
		return nil, fmt.Errorf("unknown content store type: %q (supported: filesystem, s3, memory)", cfg.Type)
	}
}

func createFilesystemContentStore(ctx context.Context, options map[string]any, m metrics.ContentMetrics) (content.Store, error) {
	var storeCfg struct {
		Path string `mapstructure:"path"`
	}
	if err := decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem content store config: %w", err)
	}

	if storeCfg.Path == "" {
		return nil, fmt.Errorf("filesystem content store: path is required")
	}

	store, err := contentFs.NewFSContentStore(ctx, contentFs.Config{Path: storeCfg.Path, Metrics: m})
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem content store: %w", err)
	}

	logger.Info("Filesystem content store initialized: path=%s", store.BasePath())
	return store, nil
}

// s3Options is the content.s3 section.
type s3Options struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SpoolDir        string `mapstructure:"spool_dir"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

func createS3ContentStore(ctx context.Context, options map[string]any, m metrics.ContentMetrics) (content.Store, error) {
	var storeCfg s3Options
	if err := decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 content store config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 content store: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 content store: region is required")
	}

	client, err := newS3Client(ctx, storeCfg)
	if err != nil {
		return nil, err
	}

	store, err := contentS3.NewS3ContentStore(ctx, contentS3.S3ContentStoreConfig{
		Client:    client,
		Bucket:    storeCfg.Bucket,
		KeyPrefix: storeCfg.KeyPrefix,
		SpoolDir:  storeCfg.SpoolDir,
		Metrics:   m,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 content store: %w", err)
	}

	logger.Info("S3 content store initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return store, nil
}

// newS3Client builds an S3 client from the default AWS credential chain,
// overridden by static credentials and a custom endpoint when configured.
func newS3Client(ctx context.Context, storeCfg s3Options) (*s3.Client, error) {
	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(storeCfg.Region),
	}

	if storeCfg.AccessKeyID != "" && storeCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeCfg.AccessKeyID,
			storeCfg.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	// Default to 10 attempts (AWS default is 3) for transient 5xx and timeouts.
	maxRetries := storeCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if storeCfg.Endpoint != "" {
			// MinIO, Localstack and friends need path-style addressing
			o.BaseEndpoint = aws.String(storeCfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// CreateMetadataStore creates a metadata repository based on configuration.
//
// Supported types:
//   - "memory": Uses pkg/metadata/memory (ephemeral)
//   - "badger": Uses pkg/metadata/badger (embedded, persistent)
//   - "postgres": Uses pkg/metadata/postgres (shared SQL database)
func CreateMetadataStore(ctx context.Context, cfg *MetadataConfig, m metrics.MetadataMetrics) (metadata.Repository, error) {
	switch cfg.Type {
	case "memory":
		return createMemoryMetadataStore(ctx, m)
	case "badger":
		return createBadgerMetadataStore(ctx, cfg.Badger, m)
	case "postgres":
		return createPostgresMetadataStore(ctx, cfg.Postgres, m)
	default:
		return nil, fmt.Errorf("unknown metadata store type: %q (supported: memory, badger, postgres)", cfg.Type)
	}
}

func createMemoryMetadataStore(ctx context.Context, m metrics.MetadataMetrics) (metadata.Repository, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return memory.NewMemoryMetadataStore(memory.MemoryMetadataStoreConfig{Metrics: m}), nil
}

func createBadgerMetadataStore(ctx context.Context, options map[string]any, m metrics.MetadataMetrics) (metadata.Repository, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var storeOpts struct {
		DBPath           string `mapstructure:"db_path"`
		InMemory         bool   `mapstructure:"in_memory"`
		BlockCacheSizeMB int64  `mapstructure:"block_cache_mb"`
		IndexCacheSizeMB int64  `mapstructure:"index_cache_mb"`
	}
	if err := decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode badger metadata store options: %w", err)
	}

	if storeOpts.DBPath == "" && !storeOpts.InMemory {
		return nil, fmt.Errorf("badger metadata store: db_path is required")
	}

	store, err := badger.NewBadgerMetadataStore(ctx, badger.BadgerMetadataStoreConfig{
		DBPath:           storeOpts.DBPath,
		InMemory:         storeOpts.InMemory,
		BlockCacheSizeMB: storeOpts.BlockCacheSizeMB,
		IndexCacheSizeMB: storeOpts.IndexCacheSizeMB,
		Metrics:          m,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger metadata store: %w", err)
	}

	return store, nil
}

func createPostgresMetadataStore(ctx context.Context, options map[string]any, m metrics.MetadataMetrics) (metadata.Repository, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var storeOpts struct {
		DSN             string        `mapstructure:"dsn"`
		MaxOpenConns    int           `mapstructure:"max_open_conns"`
		MaxIdleConns    int           `mapstructure:"max_idle_conns"`
		ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	}
	if err := decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode postgres metadata store options: %w", err)
	}

	if storeOpts.DSN == "" {
		return nil, fmt.Errorf("postgres metadata store: dsn is required")
	}

	store, err := postgres.New(ctx, postgres.Config{
		DSN:             storeOpts.DSN,
		MaxOpenConns:    storeOpts.MaxOpenConns,
		MaxIdleConns:    storeOpts.MaxIdleConns,
		ConnMaxLifetime: storeOpts.ConnMaxLifetime,
		Metrics:         m,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres metadata store: %w", err)
	}

	return store, nil
}

// CreateAuthResolver creates the session token resolver.
//
// Supported types:
//   - "jwt": HS256 tokens signed with auth.jwt.secret
//   - "static": fixed token table, for development
func CreateAuthResolver(cfg *AuthConfig) (auth.Resolver, error) {
	switch cfg.Type {
	case "jwt":
		return CreateJWTResolver(cfg)
	case "static":
		if len(cfg.Static.Tokens) == 0 {
			return nil, fmt.Errorf("static auth: at least one token is required")
		}
		return auth.NewStaticResolver(cfg.Static.Tokens), nil
	default:
		return nil, fmt.Errorf("unknown auth type: %q (supported: jwt, static)", cfg.Type)
	}
}

// CreateJWTResolver creates a JWT resolver regardless of auth.type. The CLI
// uses it to issue tokens.
func CreateJWTResolver(cfg *AuthConfig) (*auth.JWTResolver, error) {
	resolver, err := auth.NewJWTResolver(auth.JWTConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT resolver: %w", err)
	}
	return resolver, nil
}
