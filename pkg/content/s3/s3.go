package s3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dcnetdisk/dcdisk/pkg/content"
	"github.com/dcnetdisk/dcdisk/pkg/metrics"
)

// dirMarker suffixes the zero-byte objects that stand for directories.
const dirMarker = "/"

// API is the subset of the S3 client used by the store. *s3.Client satisfies it.
type API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3ContentStore implements content.Store on an S3 bucket.
//
// Keys map onto object keys below an optional prefix, so the bucket mirrors
// the user trees: "alice/docs/report.pdf" with prefix "dcdisk/" is stored as
// "dcdisk/alice/docs/report.pdf". Directories are zero-byte marker objects
// whose key ends in "/"; a prefix that has children but no marker is also
// treated as a directory so buckets populated by other tools still work.
//
// Uploads are spooled to a local temporary file first so PutObject gets a
// seekable body with a known length, which makes every write a single
// atomic object replacement.
type S3ContentStore struct {
	client    API
	bucket    string
	keyPrefix string
	spoolDir  string
	metrics   metrics.ContentMetrics
}

type S3ContentStoreConfig struct {
	// Client is the configured S3 client
	Client API

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	// Example: "dcdisk/" results in keys like "dcdisk/alice/a.txt"
	KeyPrefix string

	// SpoolDir holds upload temp files. Defaults to os.TempDir().
	SpoolDir string

	// Metrics receives per-operation observations. Nil disables collection.
	Metrics metrics.ContentMetrics
}

// NewS3ContentStore creates an S3 store and verifies the bucket is reachable.
//
// Context Cancellation:
// This operation checks the context before verifying bucket access.
func NewS3ContentStore(ctx context.Context, cfg S3ContentStoreConfig) (*S3ContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.NewNoopContentMetrics()
	}

	return &S3ContentStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		spoolDir:  cfg.SpoolDir,
		metrics:   m,
	}, nil
}

func (s *S3ContentStore) Type() string { return "s3" }

func (s *S3ContentStore) Close() error { return nil }

// objectKey returns the full S3 object key for a store key.
func (s *S3ContentStore) objectKey(key string) string {
	return s.keyPrefix + key
}

func (s *S3ContentStore) record(op string, start time.Time, bytes int64, err error) {
	s.metrics.RecordOperation(op, time.Since(start), bytes, err)
}

// isNotFound reports whether err is an S3 "no such object" response.
// HeadObject reports NotFound, GetObject reports NoSuchKey.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

// head returns the file Info for key, or (nil, nil) if no object exists.
func (s *S3ContentStore) head(ctx context.Context, key string) (*content.Info, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("head %s: %w", key, err)
	}
	return &content.Info{
		Size:    aws.ToInt64(out.ContentLength),
		ModTime: aws.ToTime(out.LastModified),
	}, nil
}

// isDir reports whether key is a directory: a marker object or any object
// below key + "/".
func (s *S3ContentStore) isDir(ctx context.Context, key string) (bool, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.objectKey(key) + dirMarker),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("list %s: %w", key, err)
	}
	return aws.ToInt32(out.KeyCount) > 0 || len(out.Contents) > 0, nil
}
