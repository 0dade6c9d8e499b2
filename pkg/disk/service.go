package disk

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/dcnetdisk/dcdisk/internal/logger"
	"github.com/dcnetdisk/dcdisk/pkg/auth"
	"github.com/dcnetdisk/dcdisk/pkg/content"
	"github.com/dcnetdisk/dcdisk/pkg/metadata"
	"github.com/dcnetdisk/dcdisk/pkg/metrics"
	"github.com/dustin/go-humanize"
)

// Config holds the collaborators of a Service.
type Config struct {
	// Auth resolves session tokens. Required.
	Auth auth.Resolver

	// Store holds file bytes. Required.
	Store content.Store

	// Repository holds file metadata. Required.
	Repository metadata.Repository

	// Root is the storage root reported in resolved locations (logs only).
	Root string

	// Metrics receives per-operation observations. Nil disables collection.
	Metrics metrics.DiskMetrics
}

// Service is the per-user file storage API.
//
// Every operation authenticates the token first and returns either a
// result or an *Error; nothing else escapes.
type Service struct {
	auth        auth.Resolver
	store       content.Store
	repo        metadata.Repository
	resolver    *Resolver
	lister      *Lister
	coordinator *Coordinator
	metrics     metrics.DiskMetrics
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Auth == nil {
		return nil, errors.New("auth resolver is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("content store is required")
	}
	if cfg.Repository == nil {
		return nil, errors.New("metadata repository is required")
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.NewNoopDiskMetrics()
	}

	resolver := NewResolver(cfg.Root)
	return &Service{
		auth:        cfg.Auth,
		store:       cfg.Store,
		repo:        cfg.Repository,
		resolver:    resolver,
		lister:      NewLister(cfg.Repository),
		coordinator: NewCoordinator(resolver, cfg.Store, cfg.Repository),
		metrics:     m,
	}, nil
}

// ListDirectory lists the directory rawPath of the token's user.
//
// orderBy and order select the ordering (default name ascending); limit
// is "all", empty, or an inclusive "start-end" range. A malformed limit
// fails with CodeInvalidRange before the repository is queried.
func (s *Service) ListDirectory(ctx context.Context, token, rawPath, orderBy, order, limit string) (entries []*metadata.FileEntry, err error) {
	start := time.Now()
	defer func() { err = s.finish("list", start, err, CodeRepositoryFailure) }()

	username, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	rng, err := ParseRange(limit)
	if err != nil {
		return nil, err
	}
	ordering, err := ParseOrdering(orderBy, order)
	if err != nil {
		return nil, err
	}

	dir, err := s.resolver.Resolve(username, rawPath)
	if err != nil {
		return nil, err
	}
	if err := checkDirectory(ctx, s.store, dir); err != nil {
		return nil, err
	}

	entries, err = s.lister.List(ctx, username, dir.Logical, &ordering, rng)
	if err != nil {
		return nil, err
	}

	logger.Debug("Listed %s for %s: %d entries (order=%s/%s range=%v)",
		dir.Logical, username, len(entries), ordering.Field, ordering.Direction, rangeLabel(rng))
	return entries, nil
}

// UploadFile stores body as filename in the directory rawPath.
func (s *Service) UploadFile(ctx context.Context, token, rawPath, filename string, body io.Reader) (entry *metadata.FileEntry, err error) {
	start := time.Now()
	defer func() { err = s.finish("upload", start, err, CodeTransferFailed) }()

	username, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	entry, err = s.coordinator.Upload(ctx, username, rawPath, filename, body)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordBytesTransferred("in", entry.Size)
	logger.Info("Upload %s by %s: %s", entry.FullPath(), username, humanize.IBytes(uint64(entry.Size)))
	return entry, nil
}

// DownloadFile opens filename in the directory rawPath. The caller must
// close the returned Body.
func (s *Service) DownloadFile(ctx context.Context, token, rawPath, filename string) (dl *Download, err error) {
	start := time.Now()
	defer func() { err = s.finish("download", start, err, CodeTransferFailed) }()

	username, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	dl, err = s.coordinator.Download(ctx, username, rawPath, filename)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordBytesTransferred("out", dl.Size)
	logger.Debug("Download %s by %s: %s", dl.Name, username, humanize.IBytes(uint64(dl.Size)))
	return dl, nil
}

// CreateDirectory creates the directory name inside rawPath.
func (s *Service) CreateDirectory(ctx context.Context, token, rawPath, name string) (entry *metadata.FileEntry, err error) {
	start := time.Now()
	defer func() { err = s.finish("mkdir", start, err, CodeTransferFailed) }()

	username, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.coordinator.MakeDirectory(ctx, username, rawPath, name)
}

// ProvisionUser creates the storage root of username. It is idempotent.
func (s *Service) ProvisionUser(ctx context.Context, username string) error {
	return ProvisionRoot(ctx, s.store, s.resolver, username)
}

// Healthcheck verifies the metadata repository is reachable.
func (s *Service) Healthcheck(ctx context.Context) error {
	return s.repo.Healthcheck(ctx)
}

// Authenticate resolves token to a username or fails with CodeAuthExpired.
// Transports call it before consuming a request body.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	return s.authenticate(ctx, token)
}

func (s *Service) authenticate(ctx context.Context, token string) (string, error) {
	username, ok := s.auth.UsernameFor(ctx, token)
	if !ok {
		return "", &Error{Code: CodeAuthExpired}
	}
	return username, nil
}

// finish converts err into an *Error and records the operation.
func (s *Service) finish(op string, start time.Time, err error, fallback ErrorCode) error {
	if err == nil {
		s.metrics.RecordOperation(op, time.Since(start), "")
		return nil
	}

	de := AsError(err, fallback)
	s.metrics.RecordOperation(op, time.Since(start), string(de.Code))

	if de.Code.HTTPStatus() >= 500 {
		logger.Error("%s failed: %v", op, de)
	} else {
		logger.Debug("%s rejected: %v", op, de)
	}
	return de
}

func rangeLabel(r *RangeSpec) string {
	if r == nil {
		return RangeAll
	}
	return r.String()
}
