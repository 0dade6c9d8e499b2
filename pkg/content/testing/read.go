package testing

import (
	"testing"

	"github.com/dcnetdisk/dcdisk/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunReadTests(t *testing.T) {
	t.Run("OpenReturnsBytesAndInfo", suite.testOpenReturnsBytesAndInfo)
	t.Run("OpenMissing", suite.testOpenMissing)
	t.Run("OpenDirectory", suite.testOpenDirectory)
}

func (suite *StoreTestSuite) testOpenReturnsBytesAndInfo(t *testing.T) {
	store := suite.NewStore(t)
	MustMkdir(t, store, "alice/docs")
	MustWrite(t, store, "alice/docs/hello.txt", []byte("hello, world"))

	rc, info, err := store.Open(testContext(), "alice/docs/hello.txt")
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	assert.Equal(t, int64(12), info.Size)
	assert.False(t, info.IsDir)
	assert.False(t, info.ModTime.IsZero())
	assert.Equal(t, []byte("hello, world"), ReadAll(t, store, "alice/docs/hello.txt"))
}

func (suite *StoreTestSuite) testOpenMissing(t *testing.T) {
	store := suite.NewStore(t)
	MustMkdir(t, store, "alice")

	_, _, err := store.Open(testContext(), "alice/missing.txt")
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func (suite *StoreTestSuite) testOpenDirectory(t *testing.T) {
	store := suite.NewStore(t)
	MustMkdir(t, store, "alice/docs")

	_, _, err := store.Open(testContext(), "alice/docs")
	assert.ErrorIs(t, err, content.ErrIsDirectory)
}
