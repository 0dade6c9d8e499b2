package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dcnetdisk/dcdisk/pkg/content"
)

// Stat returns information about key.
func (s *S3ContentStore) Stat(ctx context.Context, key string) (info *content.Info, err error) {
	start := time.Now()
	defer func() { s.record("stat", start, 0, err) }()

	if err := content.ValidateKey(key); err != nil {
		return nil, err
	}
	return s.stat(ctx, key)
}

func (s *S3ContentStore) stat(ctx context.Context, key string) (*content.Info, error) {
	info, err := s.head(ctx, key)
	if err != nil {
		return nil, err
	}
	if info != nil {
		return info, nil
	}

	dir, err := s.isDir(ctx, key)
	if err != nil {
		return nil, err
	}
	if !dir {
		return nil, fmt.Errorf("stat %s: %w", key, content.ErrNotFound)
	}
	return &content.Info{IsDir: true}, nil
}

// Open downloads the object at key.
//
// The S3 GetObject operation respects context cancellation; if ctx is
// cancelled mid-download the reader returns an error.
func (s *S3ContentStore) Open(ctx context.Context, key string) (rc io.ReadCloser, info *content.Info, err error) {
	start := time.Now()
	defer func() {
		var n int64
		if info != nil {
			n = info.Size
		}
		s.record("open", start, n, err)
	}()

	if err := content.ValidateKey(key); err != nil {
		return nil, nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if !isNotFound(err) {
			return nil, nil, fmt.Errorf("get %s: %w", key, err)
		}
		dir, dirErr := s.isDir(ctx, key)
		if dirErr != nil {
			return nil, nil, dirErr
		}
		if dir {
			return nil, nil, fmt.Errorf("open %s: %w", key, content.ErrIsDirectory)
		}
		return nil, nil, fmt.Errorf("open %s: %w", key, content.ErrNotFound)
	}

	return out.Body, &content.Info{
		Size:    aws.ToInt64(out.ContentLength),
		ModTime: aws.ToTime(out.LastModified),
	}, nil
}
