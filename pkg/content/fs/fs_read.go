package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dcnetdisk/dcdisk/pkg/content"
)

// Stat returns information about key.
func (s *FSContentStore) Stat(ctx context.Context, key string) (info *content.Info, err error) {
	start := time.Now()
	defer func() { s.record("stat", start, 0, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(p)
	if err != nil {
		return nil, mapPathError("stat", key, err)
	}
	return infoFrom(fi), nil
}

// Open returns a reader for the regular file at key.
//
// The returned reader does not observe ctx; callers that stream large files
// should stop reading when their context is done.
func (s *FSContentStore) Open(ctx context.Context, key string) (rc io.ReadCloser, info *content.Info, err error) {
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

	p, err := s.path(key)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, nil, mapPathError("open", key, err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("stat %s: %w", key, err)
	}
	if fi.IsDir() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("open %s: %w", key, content.ErrIsDirectory)
	}
	if !fi.Mode().IsRegular() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("open %s: %w", key, content.ErrNotFound)
	}

	return f, infoFrom(fi), nil
}

// mapPathError translates os errors into the content sentinel errors.
func mapPathError(op, key string, err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%s %s: %w", op, key, content.ErrNotFound)
	case isNotDir(err):
		return fmt.Errorf("%s %s: %w", op, key, content.ErrNotDirectory)
	default:
		return fmt.Errorf("%s %s: %w", op, key, err)
	}
}
