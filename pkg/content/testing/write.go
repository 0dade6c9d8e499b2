package testing

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dcnetdisk/dcdisk/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunWriteTests(t *testing.T) {
	t.Run("WriteReturnsStoredSize", suite.testWriteReturnsStoredSize)
	t.Run("WriteEmpty", suite.testWriteEmpty)
	t.Run("WriteOverwrites", suite.testWriteOverwrites)
	t.Run("WriteMissingParent", suite.testWriteMissingParent)
	t.Run("WriteFailureLeavesNothing", suite.testWriteFailureLeavesNothing)
	t.Run("WriteFailureKeepsPrevious", suite.testWriteFailureKeepsPrevious)
}

func (suite *StoreTestSuite) testWriteReturnsStoredSize(t *testing.T) {
	store := suite.NewStore(t)
	MustMkdir(t, store, "alice")

	data := []byte(strings.Repeat("dcdisk", 1000))
	n := MustWrite(t, store, "alice/a.bin", data)
	assert.Equal(t, int64(len(data)), n)

	info, err := store.Stat(testContext(), "alice/a.bin")
	require.NoError(t, err)
	assert.False(t, info.IsDir)
	assert.Equal(t, int64(len(data)), info.Size)
}

func (suite *StoreTestSuite) testWriteEmpty(t *testing.T) {
	store := suite.NewStore(t)
	MustMkdir(t, store, "alice")

	n := MustWrite(t, store, "alice/empty.txt", nil)
	assert.Equal(t, int64(0), n)

	info, err := store.Stat(testContext(), "alice/empty.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size)
}

func (suite *StoreTestSuite) testWriteOverwrites(t *testing.T) {
	store := suite.NewStore(t)
	MustMkdir(t, store, "alice")

	MustWrite(t, store, "alice/a.txt", []byte("first version"))
	n := MustWrite(t, store, "alice/a.txt", []byte("v2"))

	assert.Equal(t, int64(2), n)
	assert.Equal(t, []byte("v2"), ReadAll(t, store, "alice/a.txt"))
}

func (suite *StoreTestSuite) testWriteMissingParent(t *testing.T) {
	store := suite.NewStore(t)
	MustMkdir(t, store, "alice")

	_, err := store.Write(testContext(), "alice/nope/a.txt", bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func (suite *StoreTestSuite) testWriteFailureLeavesNothing(t *testing.T) {
	store := suite.NewStore(t)
	MustMkdir(t, store, "alice")

	_, err := store.Write(testContext(), "alice/broken.bin", &FailingReader{N: 4096})
	require.Error(t, err)

	_, err = store.Stat(testContext(), "alice/broken.bin")
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func (suite *StoreTestSuite) testWriteFailureKeepsPrevious(t *testing.T) {
	store := suite.NewStore(t)
	MustMkdir(t, store, "alice")
	MustWrite(t, store, "alice/a.txt", []byte("original"))

	_, err := store.Write(testContext(), "alice/a.txt", &FailingReader{N: 100})
	require.Error(t, err)

	assert.Equal(t, []byte("original"), ReadAll(t, store, "alice/a.txt"))
}
