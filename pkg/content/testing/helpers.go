package testing

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/dcnetdisk/dcdisk/pkg/content"
	"github.com/stretchr/testify/require"
)

// MustMkdir creates key and fails the test on error.
func MustMkdir(t *testing.T, store content.Store, key string) {
	t.Helper()
	require.NoError(t, store.MkdirAll(testContext(), key))
}

// MustWrite stores data at key and fails the test on error.
func MustWrite(t *testing.T, store content.Store, key string, data []byte) int64 {
	t.Helper()
	n, err := store.Write(testContext(), key, bytes.NewReader(data))
	require.NoError(t, err)
	return n
}

// ReadAll opens key and returns its bytes.
func ReadAll(t *testing.T, store content.Store, key string) []byte {
	t.Helper()
	rc, _, err := store.Open(testContext(), key)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

// FailingReader yields n bytes of data and then returns Err.
type FailingReader struct {
	N   int
	Err error

	read int
}

func (f *FailingReader) Read(p []byte) (int, error) {
	if f.read >= f.N {
		if f.Err == nil {
			return 0, errors.New("reader failed")
		}
		return 0, f.Err
	}
	n := len(p)
	if rem := f.N - f.read; n > rem {
		n = rem
	}
	for i := 0; i < n; i++ {
		p[i] = 'x'
	}
	f.read += n
	return n, nil
}
