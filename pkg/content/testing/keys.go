package testing

import (
	"bytes"
	"testing"

	"github.com/dcnetdisk/dcdisk/pkg/content"
	"github.com/stretchr/testify/assert"
)

func (suite *StoreTestSuite) RunKeyValidationTests(t *testing.T) {
	store := suite.NewStore(t)
	MustMkdir(t, store, "alice")

	tests := []struct {
		name string
		key  string
		want error
	}{
		{name: "empty", key: "", want: content.ErrInvalidKey},
		{name: "absolute", key: "/etc/passwd", want: content.ErrOutsideRoot},
		{name: "parent segment", key: "alice/../bob/a.txt", want: content.ErrOutsideRoot},
		{name: "leading parent", key: "../outside", want: content.ErrOutsideRoot},
		{name: "nul byte", key: "alice/a\x00.txt", want: content.ErrInvalidKey},
		{name: "backslash", key: `alice\a.txt`, want: content.ErrInvalidKey},
		{name: "empty segment", key: "alice//a.txt", want: content.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Stat(testContext(), tt.key)
			assert.ErrorIs(t, err, tt.want)

			_, err = store.Write(testContext(), tt.key, bytes.NewReader([]byte("x")))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
