package testing

import (
	"context"
	"sort"
	"testing"

	"github.com/dcnetdisk/dcdisk/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *RepositoryTestSuite) RunQueryAllTests(test *testing.T) {
	test.Run("EmptyDirectory", suite.TestQueryAll_EmptyDirectory)
	test.Run("IsolatesOwnersAndDirectories", suite.TestQueryAll_IsolatesOwnersAndDirectories)
	test.Run("Orderings", suite.TestQueryAll_Orderings)
	test.Run("TieBreakByID", suite.TestQueryAll_TieBreakByID)
	test.Run("RejectsUnknownOrdering", suite.TestQueryAll_RejectsUnknownOrdering)
}

func (suite *RepositoryTestSuite) RunQuerySliceTests(test *testing.T) {
	test.Run("Windows", suite.TestQuerySlice_Windows)
	test.Run("MatchesQueryAll", suite.TestQuerySlice_MatchesQueryAll)
	test.Run("RejectsNegativeWindow", suite.TestQuerySlice_RejectsNegativeWindow)
}

func (suite *RepositoryTestSuite) TestQueryAll_EmptyDirectory(t *testing.T) {
	repo, _ := suite.newRepository(t)

	entries, err := repo.QueryAll(context.Background(), "alice", "/nothing", metadata.DefaultOrdering)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func (suite *RepositoryTestSuite) TestQueryAll_IsolatesOwnersAndDirectories(t *testing.T) {
	repo, _ := suite.newRepository(t)

	MustSave(t, repo, NewFile("alice", "/", "root.txt", 1))
	MustSave(t, repo, NewFile("alice", "/a", "in-a.txt", 1))
	MustSave(t, repo, NewFile("alice", "/ab", "in-ab.txt", 1))
	MustSave(t, repo, NewFile("alice", "/a/b", "deep.txt", 1))
	MustSave(t, repo, NewFile("bob", "/a", "bobs.txt", 1))

	ctx := context.Background()

	entries, err := repo.QueryAll(ctx, "alice", "/a", metadata.DefaultOrdering)
	require.NoError(t, err)
	assert.Equal(t, []string{"in-a.txt"}, Names(entries))

	entries, err = repo.QueryAll(ctx, "alice", "/", metadata.DefaultOrdering)
	require.NoError(t, err)
	assert.Equal(t, []string{"root.txt"}, Names(entries))

	entries, err = repo.QueryAll(ctx, "bob", "/a", metadata.DefaultOrdering)
	require.NoError(t, err)
	assert.Equal(t, []string{"bobs.txt"}, Names(entries))
}

// seedOrdered stores three files whose name, size and time orders all differ:
//
//	name order:     a.txt, b.txt, c.txt
//	size order:     c.txt(1), a.txt(20), b.txt(300)
//	created order:  b.txt, c.txt, a.txt
//	modified order: b.txt, a.txt, c.txt  (c.txt is rewritten last, a.txt before it)
func seedOrdered(t *testing.T, repo metadata.Repository) {
	MustSave(t, repo, NewFile("alice", "/", "b.txt", 300))
	MustSave(t, repo, NewFile("alice", "/", "c.txt", 1))
	MustSave(t, repo, NewFile("alice", "/", "a.txt", 20))
	MustSave(t, repo, NewFile("alice", "/", "c.txt", 1))
}

func (suite *RepositoryTestSuite) TestQueryAll_Orderings(t *testing.T) {
	tests := []struct {
		name     string
		ordering metadata.Ordering
		want     []string
	}{
		{"name asc", metadata.Ordering{Field: metadata.OrderByName, Direction: metadata.Ascending}, []string{"a.txt", "b.txt", "c.txt"}},
		{"name desc", metadata.Ordering{Field: metadata.OrderByName, Direction: metadata.Descending}, []string{"c.txt", "b.txt", "a.txt"}},
		{"size asc", metadata.Ordering{Field: metadata.OrderBySize, Direction: metadata.Ascending}, []string{"c.txt", "a.txt", "b.txt"}},
		{"size desc", metadata.Ordering{Field: metadata.OrderBySize, Direction: metadata.Descending}, []string{"b.txt", "a.txt", "c.txt"}},
		{"created asc", metadata.Ordering{Field: metadata.OrderByCreated, Direction: metadata.Ascending}, []string{"b.txt", "c.txt", "a.txt"}},
		{"created desc", metadata.Ordering{Field: metadata.OrderByCreated, Direction: metadata.Descending}, []string{"a.txt", "c.txt", "b.txt"}},
		{"modified asc", metadata.Ordering{Field: metadata.OrderByModified, Direction: metadata.Ascending}, []string{"b.txt", "a.txt", "c.txt"}},
		{"modified desc", metadata.Ordering{Field: metadata.OrderByModified, Direction: metadata.Descending}, []string{"c.txt", "a.txt", "b.txt"}},
	}

	repo, _ := suite.newRepository(t)
	seedOrdered(t, repo)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := repo.QueryAll(context.Background(), "alice", "/", tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Names(entries))
		})
	}
}

func (suite *RepositoryTestSuite) TestQueryAll_TieBreakByID(t *testing.T) {
	repo, _ := suite.newRepository(t)

	var ids []string
	for _, name := range []string{"x", "y", "z", "w"} {
		ids = append(ids, MustSave(t, repo, NewFile("alice", "/", name, 7)).ID)
	}
	sort.Strings(ids)

	for _, dir := range []metadata.Direction{metadata.Ascending, metadata.Descending} {
		t.Run(string(dir), func(t *testing.T) {
			entries, err := repo.QueryAll(context.Background(), "alice", "/",
				metadata.Ordering{Field: metadata.OrderBySize, Direction: dir})
			require.NoError(t, err)
			require.Len(t, entries, 4)

			got := make([]string, len(entries))
			for i, e := range entries {
				got[i] = e.ID
			}
			assert.Equal(t, ids, got, "equal sizes must be ordered by id ascending")
		})
	}
}

func (suite *RepositoryTestSuite) TestQueryAll_RejectsUnknownOrdering(t *testing.T) {
	repo, _ := suite.newRepository(t)

	_, err := repo.QueryAll(context.Background(), "alice", "/", metadata.Ordering{Field: "owner", Direction: metadata.Ascending})
	require.Error(t, err)
	assert.True(t, metadata.IsCode(err, metadata.ErrInvalidArgument))
}

func (suite *RepositoryTestSuite) TestQuerySlice_Windows(t *testing.T) {
	repo, _ := suite.newRepository(t)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		MustSave(t, repo, NewFile("alice", "/", name, 1))
	}

	tests := []struct {
		name          string
		offset, count int
		want          []string
	}{
		{"head", 0, 2, []string{"a", "b"}},
		{"middle", 1, 3, []string{"b", "c", "d"}},
		{"single", 4, 1, []string{"e"}},
		{"end past listing", 3, 10, []string{"d", "e"}},
		{"offset at end", 5, 2, []string{}},
		{"offset past end", 50, 2, []string{}},
		{"zero count", 0, 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := repo.QuerySlice(context.Background(), "alice", "/", metadata.DefaultOrdering, tt.offset, tt.count)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Names(entries))
		})
	}
}

func (suite *RepositoryTestSuite) TestQuerySlice_MatchesQueryAll(t *testing.T) {
	repo, _ := suite.newRepository(t)
	seedOrdered(t, repo)
	MustSave(t, repo, NewFile("alice", "/", "d.txt", 20))

	ordering := metadata.Ordering{Field: metadata.OrderBySize, Direction: metadata.Descending}
	ctx := context.Background()

	all, err := repo.QueryAll(ctx, "alice", "/", ordering)
	require.NoError(t, err)
	require.Len(t, all, 4)

	window, err := repo.QuerySlice(ctx, "alice", "/", ordering, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, Names(all[1:3]), Names(window))
}

func (suite *RepositoryTestSuite) TestQuerySlice_RejectsNegativeWindow(t *testing.T) {
	repo, _ := suite.newRepository(t)

	_, err := repo.QuerySlice(context.Background(), "alice", "/", metadata.DefaultOrdering, -1, 2)
	require.Error(t, err)
	assert.True(t, metadata.IsCode(err, metadata.ErrInvalidArgument))
}
