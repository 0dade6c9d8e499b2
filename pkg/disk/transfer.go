package disk

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/dcnetdisk/dcdisk/internal/logger"
	"github.com/dcnetdisk/dcdisk/pkg/content"
	"github.com/dcnetdisk/dcdisk/pkg/metadata"
	"github.com/dustin/go-humanize"
)

// Stage is a step of a transfer. Failed transfers report the stage they
// left from.
type Stage int

const (
	StageReceived Stage = iota + 1
	StagePathResolved
	StageTransferring
	StageTransferred
	StageMetadataRecorded
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StagePathResolved:
		return "path_resolved"
	case StageTransferring:
		return "transferring"
	case StageTransferred:
		return "transferred"
	case StageMetadataRecorded:
		return "metadata_recorded"
	case StageComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Download is an open file ready to be streamed to a client.
// The caller must close Body.
type Download struct {
	Name    string
	Size    int64
	ModTime time.Time
	Body    io.ReadCloser
}

// Coordinator moves file bytes in and out of the byte store and keeps the
// metadata repository in step with it.
//
// Uploads write bytes first and record metadata only after the write has
// completed, so a listing never shows a file whose bytes are missing.
// Uploads to the same destination are serialised.
type Coordinator struct {
	resolver *Resolver
	store    content.Store
	repo     metadata.Repository
	locks    *keyLocks
}

func NewCoordinator(resolver *Resolver, store content.Store, repo metadata.Repository) *Coordinator {
	return &Coordinator{
		resolver: resolver,
		store:    store,
		repo:     repo,
		locks:    newKeyLocks(),
	}
}

// Upload stores body as filename inside rawPath and records its metadata.
//
// The returned entry's Size is the size read back from the byte store. If
// the byte write fails nothing is recorded. If recording fails the bytes
// stay in place and the error is CodeRepositoryFailure.
func (c *Coordinator) Upload(ctx context.Context, username, rawPath, filename string, body io.Reader) (*metadata.FileEntry, error) {
	stage := StageReceived

	dir, err := c.resolver.Resolve(username, rawPath)
	if err != nil {
		return nil, atStage(err, stage)
	}
	file, err := dir.Child(filename)
	if err != nil {
		return nil, atStage(err, stage)
	}
	stage = StagePathResolved

	if err := checkDirectory(ctx, c.store, dir); err != nil {
		return nil, atStage(err, stage)
	}

	unlock := c.locks.Lock(file.Key)
	defer unlock()

	stage = StageTransferring
	size, err := c.store.Write(ctx, file.Key, body)
	if err != nil {
		return nil, atStage(writeError(err), stage)
	}
	stage = StageTransferred
	logger.Debug("Stored %s (%s)", file.Key, humanize.IBytes(uint64(size)))

	saved, err := c.repo.Save(ctx, &metadata.FileEntry{
		Name:        file.Name,
		Path:        dir.Logical,
		Size:        size,
		IsDirectory: false,
		Owner:       dir.Owner,
	})
	if err != nil {
		logger.Warn("Metadata for %s not recorded, bytes left in storage: %v", file.Key, err)
		return nil, atStage(newError(CodeRepositoryFailure, "", err), stage)
	}

	return saved, nil
}

// Download opens filename inside rawPath for reading. Existence is checked
// against the byte store only; the metadata repository is not consulted.
func (c *Coordinator) Download(ctx context.Context, username, rawPath, filename string) (*Download, error) {
	stage := StageReceived

	dir, err := c.resolver.Resolve(username, rawPath)
	if err != nil {
		return nil, atStage(err, stage)
	}
	file, err := dir.Child(filename)
	if err != nil {
		return nil, atStage(err, stage)
	}
	stage = StagePathResolved

	rc, info, err := c.store.Open(ctx, file.Key)
	if err != nil {
		return nil, atStage(readError(err), stage)
	}

	return &Download{
		Name:    file.Name,
		Size:    info.Size,
		ModTime: info.ModTime,
		Body:    rc,
	}, nil
}

// MakeDirectory creates the directory name inside rawPath in the byte
// store and records it as a directory entry.
func (c *Coordinator) MakeDirectory(ctx context.Context, username, rawPath, name string) (*metadata.FileEntry, error) {
	dir, err := c.resolver.Resolve(username, rawPath)
	if err != nil {
		return nil, err
	}
	child, err := dir.Child(name)
	if err != nil {
		return nil, err
	}
	if err := checkDirectory(ctx, c.store, dir); err != nil {
		return nil, err
	}

	unlock := c.locks.Lock(child.Key)
	defer unlock()

	if err := c.store.MkdirAll(ctx, child.Key); err != nil {
		return nil, writeError(err)
	}

	saved, err := c.repo.Save(ctx, &metadata.FileEntry{
		Name:        child.Name,
		Path:        dir.Logical,
		IsDirectory: true,
		Owner:       dir.Owner,
	})
	if err != nil {
		return nil, newError(CodeRepositoryFailure, "", err)
	}
	return saved, nil
}

// checkDirectory requires dir to exist in the byte store as a directory.
func checkDirectory(ctx context.Context, store content.Store, dir *ResolvedPath) error {
	info, err := store.Stat(ctx, dir.Key)
	switch {
	case err == nil && !info.IsDir:
		return errorf(CodeNotADirectory, "path", "%s is a file", dir.Logical)
	case err == nil:
		return nil
	case errors.Is(err, content.ErrNotFound):
		return newError(CodePathNotFound, "path", err)
	case errors.Is(err, content.ErrNotDirectory):
		return newError(CodeNotADirectory, "path", err)
	case errors.Is(err, content.ErrOutsideRoot), errors.Is(err, content.ErrInvalidKey):
		return newError(CodeInvalidPath, "path", err)
	default:
		return newError(CodeTransferFailed, "", err)
	}
}

func writeError(err error) error {
	switch {
	case errors.Is(err, content.ErrNotFound):
		return newError(CodePathNotFound, "path", err)
	case errors.Is(err, content.ErrNotDirectory):
		return newError(CodeNotADirectory, "path", err)
	case errors.Is(err, content.ErrIsDirectory):
		return &Error{Code: CodeInvalidPath, Field: "filename", Message: "request error: target is a directory", Err: err}
	case errors.Is(err, content.ErrOutsideRoot), errors.Is(err, content.ErrInvalidKey):
		return newError(CodeInvalidPath, "path", err)
	default:
		return newError(CodeTransferFailed, "", err)
	}
}

func readError(err error) error {
	switch {
	case errors.Is(err, content.ErrNotFound),
		errors.Is(err, content.ErrIsDirectory),
		errors.Is(err, content.ErrNotDirectory):
		return newError(CodeFileNotFound, "filename", err)
	case errors.Is(err, content.ErrOutsideRoot), errors.Is(err, content.ErrInvalidKey):
		return newError(CodeInvalidPath, "path", err)
	default:
		return newError(CodeTransferFailed, "", err)
	}
}
