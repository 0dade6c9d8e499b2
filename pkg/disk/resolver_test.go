package disk

import (
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Valid(t *testing.T) {
	r := NewResolver("/srv/dcdisk/")

	tests := []struct {
		name        string
		raw         string
		wantLogical string
		wantKey     string
	}{
		{"empty is root", "", "/", "alice"},
		{"root", "/", "/", "alice"},
		{"nested", "/docs/2024", "/docs/2024", "alice/docs/2024"},
		{"trailing slash", "/docs/", "/docs", "alice/docs"},
		{"no leading slash", "docs", "/docs", "alice/docs"},
		{"duplicate slashes", "//docs///2024", "/docs/2024", "alice/docs/2024"},
		{"dot segments", "/./docs/.", "/docs", "alice/docs"},
		{"percent encoded", "/my%20docs/%E6%96%87%E4%BB%B6", "/my docs/文件", "alice/my docs/文件"},
		{"encoded slash", "%2Fdocs%2F2024", "/docs/2024", "alice/docs/2024"},
		{"plus kept", "/a+b", "/a+b", "alice/a+b"},
		{"dots in names", "/..hidden/a..b", "/..hidden/a..b", "alice/..hidden/a..b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve("alice", tt.raw)
			require.NoError(t, err)
			assert.Equal(t, "alice", got.Owner)
			assert.Equal(t, tt.wantLogical, got.Logical)
			assert.Equal(t, tt.wantKey, got.Key)
			assert.Equal(t, "/srv/dcdisk/"+tt.wantKey, got.Abs)
		})
	}
}

func TestResolve_Rejected(t *testing.T) {
	r := NewResolver("/srv/dcdisk")

	tests := []struct {
		name  string
		user  string
		raw   string
		code  ErrorCode
		field string
	}{
		{"parent", "alice", "../bob", CodeInvalidPath, "path"},
		{"deep parent", "alice", "/docs/../../etc", CodeInvalidPath, "path"},
		{"parent inside", "alice", "/docs/../docs", CodeInvalidPath, "path"},
		{"encoded parent", "alice", "/%2E%2E/bob", CodeInvalidPath, "path"},
		{"encoded slash parent", "alice", "..%2F..%2Fetc", CodeInvalidPath, "path"},
		{"nul", "alice", "/docs%00", CodeInvalidPath, "path"},
		{"backslash", "alice", `\..\bob`, CodeInvalidPath, "path"},
		{"drive", "alice", "C:/Windows", CodeInvalidPath, "path"},
		{"bad escape", "alice", "/docs%zz", CodeInvalidEncoding, "path"},
		{"truncated escape", "alice", "/docs%2", CodeInvalidEncoding, "path"},
		{"invalid utf8", "alice", "/%ff%fe", CodeInvalidEncoding, "path"},
		{"empty user", "", "/", CodeInvalidPath, "user"},
		{"user with slash", "al/ice", "/", CodeInvalidPath, "user"},
		{"dotdot user", "..", "/", CodeInvalidPath, "user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.user, tt.raw)
			assert.Nil(t, got)
			de := requireCode(t, err, tt.code)
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

// Every accepted path stays inside the user's subtree.
func TestResolve_Containment(t *testing.T) {
	r := NewResolver("/srv/dcdisk")
	parts := []string{"", ".", "..", "a", "b c", "%2e%2e", "%2F", "..a", "~", "x%00"}

	for _, a := range parts {
		for _, b := range parts {
			for _, c := range parts {
				raw := a + "/" + b + "/" + c
				got, err := r.Resolve("alice", raw)
				if err != nil {
					continue
				}
				assert.False(t, strings.Contains("/"+got.Key+"/", "/../"), raw)
				assert.Equal(t, "alice", strings.SplitN(got.Key, "/", 2)[0], raw)
				assert.Equal(t, path.Clean(got.Logical), got.Logical, raw)
				assert.True(t, strings.HasPrefix(got.Abs, "/srv/dcdisk/alice"), raw)
			}
		}
	}
}

func TestResolvedPath_Child(t *testing.T) {
	r := NewResolver("")
	dir, err := r.Resolve("alice", "/docs")
	require.NoError(t, err)

	f, err := dir.Child("report%20v2.pdf")
	require.NoError(t, err)
	assert.Equal(t, "report v2.pdf", f.Name)
	assert.Equal(t, "alice/docs/report v2.pdf", f.Key)
	assert.Equal(t, "/alice/docs/report v2.pdf", f.Abs)

	root, err := r.Resolve("alice", "/")
	require.NoError(t, err)
	f, err = root.Child("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "alice/a.txt", f.Key)

	tests := []struct {
		name string
		raw  string
		code ErrorCode
	}{
		{"empty", "", CodeInvalidPath},
		{"dot", ".", CodeInvalidPath},
		{"parent", "..", CodeInvalidPath},
		{"encoded parent", "%2E%2E", CodeInvalidPath},
		{"slash", "a/b", CodeInvalidPath},
		{"encoded slash", "..%2Fx", CodeInvalidPath},
		{"backslash", `a\b`, CodeInvalidPath},
		{"bad escape", "a%g1", CodeInvalidEncoding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dir.Child(tt.raw)
			de := requireCode(t, err, tt.code)
			assert.Equal(t, "filename", de.Field)
		})
	}
}
