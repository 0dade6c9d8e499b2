package testing

import (
	"context"
	"testing"

	"github.com/dcnetdisk/dcdisk/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *RepositoryTestSuite) RunSaveTests(test *testing.T) {
	test.Run("AssignsIdentityAndTimestamps", suite.TestSave_AssignsIdentityAndTimestamps)
	test.Run("NormalizesPath", suite.TestSave_NormalizesPath)
	test.Run("UpsertPreservesIdentity", suite.TestSave_UpsertPreservesIdentity)
	test.Run("DistinctKeysGetDistinctIDs", suite.TestSave_DistinctKeysGetDistinctIDs)
	test.Run("DirectorySizeIsZero", suite.TestSave_DirectorySizeIsZero)
	test.Run("RejectsInvalidEntries", suite.TestSave_RejectsInvalidEntries)
	test.Run("DoesNotMutateInput", suite.TestSave_DoesNotMutateInput)
}

func (suite *RepositoryTestSuite) TestSave_AssignsIdentityAndTimestamps(t *testing.T) {
	repo, _ := suite.newRepository(t)

	saved := MustSave(t, repo, NewFile("alice", "/", "a.txt", 12))

	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "a.txt", saved.Name)
	assert.Equal(t, "/", saved.Path)
	assert.Equal(t, int64(12), saved.Size)
	assert.Equal(t, "alice", saved.Owner)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.True(t, saved.CreatedAt.Equal(saved.ModifiedAt))
}

func (suite *RepositoryTestSuite) TestSave_NormalizesPath(t *testing.T) {
	repo, _ := suite.newRepository(t)

	saved := MustSave(t, repo, NewFile("alice", "docs/", "a.txt", 1))
	assert.Equal(t, "/docs", saved.Path)

	entries, err := repo.QueryAll(context.Background(), "alice", "/docs", metadata.DefaultOrdering)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, Names(entries))
}

func (suite *RepositoryTestSuite) TestSave_UpsertPreservesIdentity(t *testing.T) {
	repo, _ := suite.newRepository(t)

	first := MustSave(t, repo, NewFile("alice", "/", "a.txt", 12))
	second := MustSave(t, repo, NewFile("alice", "/", "a.txt", 40))

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.True(t, second.ModifiedAt.After(first.ModifiedAt))
	assert.Equal(t, int64(40), second.Size)

	entries, err := repo.QueryAll(context.Background(), "alice", "/", metadata.DefaultOrdering)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(40), entries[0].Size)
}

func (suite *RepositoryTestSuite) TestSave_DistinctKeysGetDistinctIDs(t *testing.T) {
	repo, _ := suite.newRepository(t)

	a := MustSave(t, repo, NewFile("alice", "/", "a.txt", 1))
	b := MustSave(t, repo, NewFile("alice", "/sub", "a.txt", 1))
	c := MustSave(t, repo, NewFile("bob", "/", "a.txt", 1))

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.NotEqual(t, b.ID, c.ID)
}

func (suite *RepositoryTestSuite) TestSave_DirectorySizeIsZero(t *testing.T) {
	repo, _ := suite.newRepository(t)

	dir := NewDirectory("alice", "/", "photos")
	dir.Size = 4096
	saved := MustSave(t, repo, dir)

	assert.True(t, saved.IsDirectory)
	assert.Equal(t, int64(0), saved.Size)
}

func (suite *RepositoryTestSuite) TestSave_RejectsInvalidEntries(t *testing.T) {
	repo, _ := suite.newRepository(t)

	tests := []struct {
		name  string
		entry *metadata.FileEntry
	}{
		{name: "nil entry", entry: nil},
		{name: "missing owner", entry: NewFile("", "/", "a.txt", 1)},
		{name: "missing name", entry: NewFile("alice", "/", "", 1)},
		{name: "negative size", entry: NewFile("alice", "/", "a.txt", -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Save(context.Background(), tt.entry)
			require.Error(t, err)
			assert.True(t, metadata.IsCode(err, metadata.ErrInvalidArgument), "got %v", err)
		})
	}
}

func (suite *RepositoryTestSuite) TestSave_DoesNotMutateInput(t *testing.T) {
	repo, _ := suite.newRepository(t)

	in := NewFile("alice", "docs", "a.txt", 3)
	saved := MustSave(t, repo, in)

	assert.Empty(t, in.ID)
	assert.Equal(t, "docs", in.Path)

	saved.Name = "tampered"
	entries, err := repo.QueryAll(context.Background(), "alice", "/docs", metadata.DefaultOrdering)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, Names(entries))
}
