package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dcnetdisk/dcdisk/internal/logger"
	"github.com/dcnetdisk/dcdisk/pkg/content"
)

// Write spools r to a temporary file, uploads it with a single PutObject,
// and reads the size back with HeadObject.
func (s *S3ContentStore) Write(ctx context.Context, key string, r io.Reader) (size int64, err error) {
	start := time.Now()
	defer func() { s.record("write", start, size, err) }()

	if err := content.ValidateKey(key); err != nil {
		return 0, err
	}
	if err := s.checkParent(ctx, key); err != nil {
		return 0, err
	}
	if dir, err := s.isDir(ctx, key); err != nil {
		return 0, err
	} else if dir {
		return 0, fmt.Errorf("write %s: %w", key, content.ErrIsDirectory)
	}

	spool, err := os.CreateTemp(s.spoolDir, "dcdisk-s3-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create spool file for %s: %w", key, err)
	}
	defer func() {
		_ = spool.Close()
		if rmErr := os.Remove(spool.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Warn("Failed to remove spool file %s: %v", spool.Name(), rmErr)
		}
	}()

	n, err := io.Copy(spool, &ctxReader{ctx: ctx, r: r})
	if err != nil {
		return 0, fmt.Errorf("spool %s: %w", key, err)
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind spool for %s: %w", key, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          spool,
		ContentLength: aws.Int64(n),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", key, err)
	}

	info, err := s.head(ctx, key)
	if err != nil {
		return 0, err
	}
	if info == nil {
		return 0, fmt.Errorf("put %s: object missing after upload: %w", key, content.ErrNotFound)
	}
	return info.Size, nil
}

// MkdirAll writes a directory marker for key and each of its ancestors.
func (s *S3ContentStore) MkdirAll(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { s.record("mkdir", start, 0, err) }()

	if err := content.ValidateKey(key); err != nil {
		return err
	}

	segments := strings.Split(key, "/")
	for i := range segments {
		dirKey := strings.Join(segments[:i+1], "/")

		info, err := s.head(ctx, dirKey)
		if err != nil {
			return err
		}
		if info != nil {
			return fmt.Errorf("mkdir %s: %w", dirKey, content.ErrNotDirectory)
		}

		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(s.objectKey(dirKey) + dirMarker),
			Body:          bytes.NewReader(nil),
			ContentLength: aws.Int64(0),
		})
		if err != nil {
			return fmt.Errorf("mkdir %s: %w", dirKey, err)
		}
	}
	return nil
}

// checkParent requires the parent of key to be an existing directory.
func (s *S3ContentStore) checkParent(ctx context.Context, key string) error {
	parent := content.ParentKey(key)
	if parent == "" {
		return nil
	}
	info, err := s.stat(ctx, parent)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if !info.IsDir {
		return fmt.Errorf("write %s: %w", key, content.ErrNotDirectory)
	}
	return nil
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
