package disk

import (
	"net/url"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/dcnetdisk/dcdisk/pkg/metadata"
)

// Resolver maps a username and a client supplied path onto the user's
// private subtree of the shared storage tree.
//
// Resolution is lexical and never touches storage. Symbolic links are
// checked by the filesystem byte store when the key is used.
type Resolver struct {
	root string
}

// NewResolver returns a Resolver whose absolute locations are reported
// below root (a directory or a URL such as "s3://bucket/prefix").
func NewResolver(root string) *Resolver {
	return &Resolver{root: strings.TrimRight(root, "/")}
}

// ResolvedPath is a directory confined to its owner's namespace.
type ResolvedPath struct {
	// Owner is the username that owns the namespace.
	Owner string

	// Logical is the canonical path relative to the owner's root,
	// e.g. "/" or "/docs/2024". This is what FileEntry.Path stores.
	Logical string

	// Key is the storage key of the directory, e.g. "alice/docs/2024".
	Key string

	// Abs is the location below the configured storage root.
	Abs string
}

// ResolvedFile is a file inside a ResolvedPath.
type ResolvedFile struct {
	Dir  *ResolvedPath
	Name string
	Key  string
	Abs  string
}

// Resolve decodes rawPath and confines it to username's root.
//
// A leading "/" denotes the user root. Parent segments, NUL bytes,
// backslashes and drive prefixes are rejected with CodeInvalidPath rather
// than clamped.
func (r *Resolver) Resolve(username, rawPath string) (*ResolvedPath, error) {
	if err := validateSegment(username); err != nil {
		return nil, errorf(CodeInvalidPath, "user", "username %q: %v", username, err)
	}

	decoded, err := decode("path", rawPath)
	if err != nil {
		return nil, err
	}
	if strings.ContainsAny(decoded, "\x00\\") {
		return nil, errorf(CodeInvalidPath, "path", "path %q contains a forbidden character", decoded)
	}
	if hasVolumePrefix(decoded) {
		return nil, errorf(CodeInvalidPath, "path", "path %q has a drive prefix", decoded)
	}

	var segments []string
	for _, seg := range strings.Split(decoded, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			return nil, errorf(CodeInvalidPath, "path", "path %q escapes the user root", decoded)
		}
		segments = append(segments, seg)
	}

	logical := metadata.RootPath + strings.Join(segments, "/")
	key := path.Join(append([]string{username}, segments...)...)

	return &ResolvedPath{
		Owner:   username,
		Logical: logical,
		Key:     key,
		Abs:     r.abs(key),
	}, nil
}

// Child decodes rawName and returns the file of that name inside p.
func (p *ResolvedPath) Child(rawName string) (*ResolvedFile, error) {
	name, err := decode("filename", rawName)
	if err != nil {
		return nil, err
	}
	if err := validateSegment(name); err != nil {
		return nil, errorf(CodeInvalidPath, "filename", "filename %q: %v", name, err)
	}

	return &ResolvedFile{
		Dir:  p,
		Name: name,
		Key:  p.Key + "/" + name,
		Abs:  p.Abs + "/" + name,
	}, nil
}

func (r *Resolver) abs(key string) string {
	if r.root == "" {
		return "/" + key
	}
	return r.root + "/" + key
}

// decode percent-decodes s as UTF-8. "+" is kept literally.
func decode(field, s string) (string, error) {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return "", newError(CodeInvalidEncoding, field, err)
	}
	if !utf8.ValidString(decoded) {
		return "", errorf(CodeInvalidEncoding, field, "%s is not valid UTF-8", field)
	}
	return decoded, nil
}

type segmentError string

func (e segmentError) Error() string { return string(e) }

// validateSegment checks s is usable as a single path segment.
func validateSegment(s string) error {
	switch {
	case s == "":
		return segmentError("empty")
	case s == "." || s == "..":
		return segmentError("reserved name")
	case strings.ContainsAny(s, "/\\\x00"):
		return segmentError("contains a separator or NUL")
	case hasVolumePrefix(s):
		return segmentError("has a drive prefix")
	}
	return nil
}

// hasVolumePrefix reports whether s starts like a Windows volume ("C:").
func hasVolumePrefix(s string) bool {
	if len(s) < 2 || s[1] != ':' {
		return false
	}
	c := s[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
