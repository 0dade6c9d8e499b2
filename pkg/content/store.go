package content

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Info describes an object in a byte store.
type Info struct {
	// Size in bytes. 0 for directories.
	Size int64

	IsDir bool

	// ModTime is the last modification time reported by the backend.
	ModTime time.Time
}

// Store holds the file bytes of every user namespace.
//
// Keys are slash-separated paths relative to the store root, e.g.
// "alice/docs/report.pdf". The first segment is always the owner. Keys
// are validated by every implementation with ValidateKey.
//
// Thread Safety:
// Implementations must be safe for concurrent use. Write must be atomic with
// respect to readers: a concurrent Stat or Open observes either the previous
// object or the complete new one, never a partial write.
type Store interface {
	// Stat returns information about key, or ErrNotFound.
	Stat(ctx context.Context, key string) (*Info, error)

	// Open returns a reader for the file at key along with its Info.
	// Returns ErrNotFound if absent and ErrIsDirectory for directories.
	// The caller must close the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, *Info, error)

	// Write stores the bytes from r at key, replacing any existing file, and
	// returns the size of the stored object as read back from the backend.
	//
	// The parent of key must already exist as a directory (ErrNotFound or
	// ErrNotDirectory otherwise). On failure nothing is left at key and any
	// temporary data is removed.
	Write(ctx context.Context, key string, r io.Reader) (int64, error)

	// MkdirAll creates the directory at key and any missing parents.
	MkdirAll(ctx context.Context, key string) error

	// Type names the backend ("filesystem", "s3", "memory").
	Type() string

	// Close releases resources held by the store.
	Close() error
}

// ValidateKey checks that key is a clean relative slash path: non-empty,
// no leading slash, no empty, "." or ".." segments, no NUL or backslash.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty key: %w", ErrInvalidKey)
	}
	if strings.ContainsAny(key, "\x00\\") {
		return fmt.Errorf("key %q: %w", key, ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") {
		return fmt.Errorf("key %q: %w", key, ErrOutsideRoot)
	}
	for _, seg := range strings.Split(key, "/") {
		switch seg {
		case "", ".":
			return fmt.Errorf("key %q: %w", key, ErrInvalidKey)
		case "..":
			return fmt.Errorf("key %q: %w", key, ErrOutsideRoot)
		}
	}
	return nil
}

// ParentKey returns the key of the directory containing key, or "" for a
// single-segment key.
func ParentKey(key string) string {
	i := strings.LastIndex(key, "/")
	if i < 0 {
		return ""
	}
	return key[:i]
}
