// Package postgres provides a PostgreSQL-backed metadata repository.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/dcnetdisk/dcdisk/internal/logger"
	"github.com/dcnetdisk/dcdisk/pkg/metadata"
	"github.com/dcnetdisk/dcdisk/pkg/metrics"
	"github.com/google/uuid"
)

const schema = `
CREATE TABLE IF NOT EXISTS file_entries (
	id          TEXT PRIMARY KEY,
	owner       TEXT NOT NULL,
	path        TEXT NOT NULL,
	name        TEXT NOT NULL,
	size        BIGINT NOT NULL DEFAULT 0,
	is_dir      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL,
	modified_at TIMESTAMPTZ NOT NULL,
	UNIQUE (owner, path, name)
);
CREATE INDEX IF NOT EXISTS file_entries_owner_path ON file_entries (owner, path);
`

// Store is a PostgreSQL metadata repository.
type Store struct {
	db      *sql.DB
	now     func() time.Time
	metrics metrics.MetadataMetrics
}

// Config configures the PostgreSQL repository.
type Config struct {
	DSN string

	// MaxOpenConns defaults to 25.
	MaxOpenConns int

	// MaxIdleConns defaults to 5.
	MaxIdleConns int

	// ConnMaxLifetime defaults to 5 minutes.
	ConnMaxLifetime time.Duration

	Metrics metrics.MetadataMetrics
}

// New connects to PostgreSQL and creates the schema if needed.
func New(ctx context.Context, config Config) (*Store, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("postgres metadata store: dsn is required")
	}

	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	maxOpen := config.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 25
	}
	maxIdle := config.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 5
	}
	lifetime := config.ConnMaxLifetime
	if lifetime == 0 {
		lifetime = 5 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	m := config.Metrics
	if m == nil {
		m = metrics.NewNoopMetadataMetrics()
	}

	logger.Info("PostgreSQL metadata store connected (max_open_conns=%d)", maxOpen)

	return &Store{db: db, now: time.Now, metrics: m}, nil
}

func (s *Store) Save(ctx context.Context, entry *metadata.FileEntry) (result *metadata.FileEntry, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperation("save", time.Since(start), err) }()

	if err := metadata.ValidateForSave(entry); err != nil {
		return nil, err
	}

	stored := entry.Clone()
	stored.Path = metadata.CleanDir(stored.Path)
	if stored.IsDirectory {
		stored.Size = 0
	}
	now := s.now().UTC()

	// On conflict the existing id and created_at are kept.
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO file_entries (id, owner, path, name, size, is_dir, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (owner, path, name) DO UPDATE
		SET size = EXCLUDED.size, is_dir = EXCLUDED.is_dir, modified_at = EXCLUDED.modified_at
		RETURNING id, created_at, modified_at`,
		uuid.NewString(), stored.Owner, stored.Path, stored.Name, stored.Size, stored.IsDirectory, now)

	if err := row.Scan(&stored.ID, &stored.CreatedAt, &stored.ModifiedAt); err != nil {
		return nil, metadata.NewIOError("failed to save entry", stored.FullPath(), err)
	}
	return stored, nil
}

func (s *Store) QueryAll(ctx context.Context, owner, dir string, ordering metadata.Ordering) (result []*metadata.FileEntry, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperation("query_all", time.Since(start), err) }()

	clause, err := orderClause(ordering)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, dir, `SELECT id, owner, path, name, size, is_dir, created_at, modified_at
		FROM file_entries WHERE owner = $1 AND path = $2 `+clause,
		owner, metadata.CleanDir(dir))
}

func (s *Store) QuerySlice(ctx context.Context, owner, dir string, ordering metadata.Ordering, offset, count int) (result []*metadata.FileEntry, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperation("query_slice", time.Since(start), err) }()

	if err := metadata.ValidateWindow(offset, count); err != nil {
		return nil, err
	}
	if count == 0 {
		return []*metadata.FileEntry{}, nil
	}
	clause, err := orderClause(ordering)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, dir, `SELECT id, owner, path, name, size, is_dir, created_at, modified_at
		FROM file_entries WHERE owner = $1 AND path = $2 `+clause+` LIMIT $3 OFFSET $4`,
		owner, metadata.CleanDir(dir), count, offset)
}

func (s *Store) query(ctx context.Context, dir, q string, args ...any) ([]*metadata.FileEntry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, metadata.NewIOError("failed to list directory", dir, err)
	}
	defer rows.Close()

	entries := []*metadata.FileEntry{}
	for rows.Next() {
		var e metadata.FileEntry
		if err := rows.Scan(&e.ID, &e.Owner, &e.Path, &e.Name, &e.Size, &e.IsDirectory, &e.CreatedAt, &e.ModifiedAt); err != nil {
			return nil, metadata.NewIOError("failed to scan entry", dir, err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, metadata.NewIOError("failed to list directory", dir, err)
	}
	return entries, nil
}

// orderClause renders an Ordering as SQL. Names are compared bytewise
// (COLLATE "C") so results match the in-process repositories.
func orderClause(o metadata.Ordering) (string, error) {
	if err := o.Validate(); err != nil {
		return "", metadata.NewInvalidArgument(err.Error())
	}

	column := map[metadata.OrderField]string{
		metadata.OrderByName:     `name COLLATE "C"`,
		metadata.OrderBySize:     "size",
		metadata.OrderByCreated:  "created_at",
		metadata.OrderByModified: "modified_at",
	}[o.Field]

	dir := "ASC"
	if o.Direction == metadata.Descending {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, id COLLATE \"C\" ASC", column, dir), nil
}

func (s *Store) Healthcheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
