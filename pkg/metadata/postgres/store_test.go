package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dcnetdisk/dcdisk/pkg/metadata"
	metadatatesting "github.com/dcnetdisk/dcdisk/pkg/metadata/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name     string
		ordering metadata.Ordering
		want     string
	}{
		{
			name:     "name asc",
			ordering: metadata.Ordering{Field: metadata.OrderByName, Direction: metadata.Ascending},
			want:     `ORDER BY name COLLATE "C" ASC, id COLLATE "C" ASC`,
		},
		{
			name:     "size desc keeps ascending tie-break",
			ordering: metadata.Ordering{Field: metadata.OrderBySize, Direction: metadata.Descending},
			want:     `ORDER BY size DESC, id COLLATE "C" ASC`,
		},
		{
			name:     "modified asc",
			ordering: metadata.Ordering{Field: metadata.OrderByModified, Direction: metadata.Ascending},
			want:     `ORDER BY modified_at ASC, id COLLATE "C" ASC`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := orderClause(tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderClause_RejectsUnknownField(t *testing.T) {
	_, err := orderClause(metadata.Ordering{Field: "owner; DROP TABLE", Direction: metadata.Ascending})
	require.Error(t, err)
	assert.True(t, metadata.IsCode(err, metadata.ErrInvalidArgument))
}

func TestNew_RequiresDSN(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}

// TestPostgresRepository runs the shared repository suite against a live
// database named by DCDISK_TEST_POSTGRES_DSN.
func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("DCDISK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DCDISK_TEST_POSTGRES_DSN not set")
	}

	suite := &metadatatesting.RepositoryTestSuite{
		NewRepository: func(t *testing.T, clock func() time.Time) metadata.Repository {
			store, err := New(context.Background(), Config{DSN: dsn})
			require.NoError(t, err)
			store.now = clock
			_, err = store.db.Exec("TRUNCATE file_entries")
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}
	suite.Run(t)
}
