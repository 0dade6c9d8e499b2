package metadata

import (
	"path"
	"time"
)

// RootPath is the logical path of every user's root directory.
const RootPath = "/"

// FileEntry is the metadata record of one file or directory in a user's namespace.
//
// ID, CreatedAt and ModifiedAt are owned by the repository: callers leave them
// zero on Save and read them back from the returned entry.
type FileEntry struct {
	// ID is an opaque identifier assigned on first save. It is stable for the
	// lifetime of the entry and never reused.
	ID string `json:"id"`

	// Name is the leaf name of the entry.
	Name string `json:"filename"`

	// Path is the logical directory containing the entry, relative to the
	// owner's root. Always begins with "/" and has no trailing slash except
	// for the root itself.
	Path string `json:"path"`

	// Size in bytes. Always 0 for directories.
	Size int64 `json:"size"`

	IsDirectory bool `json:"isDirectory"`

	// Owner is the username whose namespace contains the entry.
	Owner string `json:"owner"`

	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Clone returns a copy of the entry. Repositories hand out copies so callers
// cannot mutate stored state.
func (e *FileEntry) Clone() *FileEntry {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

// FullPath is the logical path of the entry itself.
func (e *FileEntry) FullPath() string {
	return path.Join(e.Path, e.Name)
}

// CleanDir normalises a logical directory path to the form stored in FileEntry.Path.
func CleanDir(p string) string {
	if p == "" {
		return RootPath
	}
	return path.Clean("/" + p)
}
