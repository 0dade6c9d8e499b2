package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dcnetdisk/dcdisk/pkg/content"
	"github.com/dcnetdisk/dcdisk/pkg/metrics"
)

// FSContentStore implements content.Store on the local filesystem.
//
// A key maps directly onto the tree below basePath: "alice/docs/a.txt" is
// stored at <basePath>/alice/docs/a.txt. Writes go to a temporary file in
// the destination directory and are renamed into place, so readers never
// see a partially written file.
//
// Every access resolves symbolic links and refuses paths that end up
// outside the directory named by the key's first segment, the owner's root
// (content.ErrOutsideRoot). A link in alice/ may point elsewhere in alice/
// but never into bob/ or outside basePath.
type FSContentStore struct {
	basePath string
	metrics  metrics.ContentMetrics
}

// Config configures an FSContentStore.
type Config struct {
	// Path is the root directory of the store. Created if missing.
	Path string

	// Metrics receives per-operation observations. Nil disables collection.
	Metrics metrics.ContentMetrics
}

// NewFSContentStore creates the root directory if needed and returns a store on it.
//
// Context Cancellation:
// This operation checks the context before creating the directory structure.
func NewFSContentStore(ctx context.Context, config Config) (*FSContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if config.Path == "" {
		return nil, fmt.Errorf("filesystem content store: path is required")
	}

	if err := os.MkdirAll(config.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	abs, err := filepath.Abs(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	m := config.Metrics
	if m == nil {
		m = metrics.NewNoopContentMetrics()
	}

	return &FSContentStore{
		basePath: resolved,
		metrics:  m,
	}, nil
}

// BasePath returns the resolved root directory of the store.
func (s *FSContentStore) BasePath() string {
	return s.basePath
}

func (s *FSContentStore) Type() string { return "filesystem" }

func (s *FSContentStore) Close() error { return nil }

// path validates key and returns its absolute location after checking that
// no symbolic link along the way leads outside the owner's root.
func (s *FSContentStore) path(key string) (string, error) {
	if err := content.ValidateKey(key); err != nil {
		return "", err
	}
	owner, _, _ := strings.Cut(key, "/")
	root := filepath.Join(s.basePath, owner)
	p := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := confine(root, p); err != nil {
		return "", fmt.Errorf("key %q: %w", key, err)
	}
	return p, nil
}

// confine resolves the deepest existing ancestor of p (p included) and
// checks it lies within root. Components below that ancestor do not exist
// yet and so cannot be links. A regular file in the middle of p ends the
// walk the same way a missing component does; the caller's own stat then
// reports it as not a directory.
func confine(root, p string) error {
	existing := p
	for {
		resolved, err := filepath.EvalSymlinks(existing)
		if err == nil {
			if !within(root, resolved) {
				return content.ErrOutsideRoot
			}
			return nil
		}
		if !errors.Is(err, os.ErrNotExist) && !isNotDir(err) {
			return err
		}
		if existing == root {
			return nil
		}
		parent := filepath.Dir(existing)
		if !within(root, parent) {
			return content.ErrOutsideRoot
		}
		existing = parent
	}
}

func within(root, p string) bool {
	return p == root || strings.HasPrefix(p, root+string(filepath.Separator))
}

func (s *FSContentStore) record(op string, start time.Time, bytes int64, err error) {
	s.metrics.RecordOperation(op, time.Since(start), bytes, err)
}

func infoFrom(fi os.FileInfo) *content.Info {
	info := &content.Info{IsDir: fi.IsDir(), ModTime: fi.ModTime()}
	if !info.IsDir {
		info.Size = fi.Size()
	}
	return info
}
