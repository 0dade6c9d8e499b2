package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dcnetdisk/dcdisk/internal/logger"
	"github.com/dcnetdisk/dcdisk/pkg/content"
)

// tempPattern names in-flight uploads. They live next to their destination
// so the final rename never crosses a filesystem boundary.
const tempPattern = ".upload-*.tmp"

// Write streams r into a temporary file beside key and renames it over key.
//
// The returned size comes from stat-ing the renamed file. Any failure
// removes the temporary file; a failed removal is logged, never returned.
func (s *FSContentStore) Write(ctx context.Context, key string, r io.Reader) (size int64, err error) {
	start := time.Now()
	defer func() { s.record("write", start, size, err) }()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p, err := s.path(key)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(p)
	di, err := os.Stat(dir)
	if err != nil {
		return 0, mapPathError("write", key, err)
	}
	if !di.IsDir() {
		return 0, fmt.Errorf("write %s: %w", key, content.ErrNotDirectory)
	}
	if fi, err := os.Stat(p); err == nil && fi.IsDir() {
		return 0, fmt.Errorf("write %s: %w", key, content.ErrIsDirectory)
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return 0, fmt.Errorf("create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if committed {
			return
		}
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Warn("Failed to remove temporary upload %s: %v", tmpName, rmErr)
		}
	}()

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r}); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return 0, fmt.Errorf("chmod %s: %w", key, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return 0, fmt.Errorf("rename %s: %w", key, err)
	}
	committed = true

	fi, err := os.Stat(p)
	if err != nil {
		return 0, fmt.Errorf("stat written %s: %w", key, err)
	}
	return fi.Size(), nil
}

// MkdirAll creates the directory at key and any missing parents.
func (s *FSContentStore) MkdirAll(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { s.record("mkdir", start, 0, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p, 0755); err != nil {
		return mapPathError("mkdir", key, err)
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

func isNotDir(err error) bool {
	return errors.Is(err, syscall.ENOTDIR)
}
