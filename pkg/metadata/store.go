package metadata

import "context"

// Repository persists FileEntry records.
//
// Implementations must be safe for concurrent use. Every query returns
// copies, and every ordered query applies the Ordering tie-break so that a
// QuerySlice window always matches the same window of QueryAll.
type Repository interface {
	// Save inserts or replaces the entry identified by (Owner, Path, Name).
	//
	// On insert the repository assigns ID and CreatedAt. On replace the
	// existing ID and CreatedAt are preserved. ModifiedAt is set to the save
	// time in both cases. The stored entry is returned.
	//
	// Errors are *StoreError with ErrInvalidArgument for entries missing an
	// owner or name, or ErrIOError for storage failures.
	Save(ctx context.Context, entry *FileEntry) (*FileEntry, error)

	// QueryAll returns every entry directly inside dir owned by owner,
	// sorted by ordering. An unknown directory yields an empty slice.
	QueryAll(ctx context.Context, owner, dir string, ordering Ordering) ([]*FileEntry, error)

	// QuerySlice returns the entries of QueryAll starting at offset, at most
	// count of them. An offset past the end yields an empty slice.
	QuerySlice(ctx context.Context, owner, dir string, ordering Ordering, offset, count int) ([]*FileEntry, error)

	// Healthcheck verifies the repository is reachable.
	Healthcheck(ctx context.Context) error

	// Close releases resources held by the repository.
	Close() error
}
