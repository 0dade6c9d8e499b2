package badger

import "strings"

// Key Schema
// ==========
//
// Entries are stored under a single namespace:
//
//	"entry:" + owner + 0x00 + dir + 0x00 + name  ->  JSON(FileEntry)
//
// Owners, directories and names never contain NUL (the resolver rejects it),
// so a directory listing is a prefix scan over
//
//	"entry:" + owner + 0x00 + dir + 0x00
//
// which never matches entries of a sibling directory sharing a string prefix
// ("/a" vs "/ab").

const (
	prefixEntry = "entry:"
	keySep      = "\x00"
)

func keyEntry(owner, dir, name string) []byte {
	return []byte(prefixEntry + owner + keySep + dir + keySep + name)
}

func keyDirPrefix(owner, dir string) []byte {
	return []byte(prefixEntry + owner + keySep + dir + keySep)
}

// splitEntryKey is the inverse of keyEntry.
func splitEntryKey(key []byte) (owner, dir, name string, ok bool) {
	s := string(key)
	if !strings.HasPrefix(s, prefixEntry) {
		return "", "", "", false
	}
	parts := strings.SplitN(s[len(prefixEntry):], keySep, 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}
