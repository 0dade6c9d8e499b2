package testing

import (
	"testing"

	"github.com/dcnetdisk/dcdisk/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunDirectoryTests(t *testing.T) {
	t.Run("MkdirAllThenStat", suite.testMkdirAllThenStat)
	t.Run("MkdirAllIdempotent", suite.testMkdirAllIdempotent)
	t.Run("StatMissing", suite.testStatMissing)
}

func (suite *StoreTestSuite) testMkdirAllThenStat(t *testing.T) {
	store := suite.NewStore(t)

	MustMkdir(t, store, "alice/docs/2024")

	for _, key := range []string{"alice", "alice/docs", "alice/docs/2024"} {
		info, err := store.Stat(testContext(), key)
		require.NoError(t, err, key)
		assert.True(t, info.IsDir, key)
		assert.Equal(t, int64(0), info.Size, key)
	}
}

func (suite *StoreTestSuite) testMkdirAllIdempotent(t *testing.T) {
	store := suite.NewStore(t)

	MustMkdir(t, store, "alice")
	MustMkdir(t, store, "alice")

	info, err := store.Stat(testContext(), "alice")
	require.NoError(t, err)
	assert.True(t, info.IsDir)
}

func (suite *StoreTestSuite) testStatMissing(t *testing.T) {
	store := suite.NewStore(t)
	MustMkdir(t, store, "alice")

	_, err := store.Stat(testContext(), "alice/missing")
	assert.ErrorIs(t, err, content.ErrNotFound)

	_, err = store.Stat(testContext(), "bob")
	assert.ErrorIs(t, err, content.ErrNotFound)
}
