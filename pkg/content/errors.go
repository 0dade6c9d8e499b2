package content

import "errors"

// ============================================================================
// Standard Byte Store Errors
// ============================================================================

// These errors provide a consistent way to indicate common failure conditions
// across all store implementations. The disk service checks for them with
// errors.Is and maps them to client-facing error codes.
//
// Implementations wrap them with the offending key:
//
//	return nil, fmt.Errorf("stat %s: %w", key, content.ErrNotFound)

var (
	// ErrNotFound indicates nothing is stored under the key.
	//
	// HTTP: 404 Not Found
	ErrNotFound = errors.New("content not found")

	// ErrOutsideRoot indicates the key would resolve outside the store root,
	// either lexically (absolute key, ".." segment) or through a symbolic link.
	// Stores that follow links also refuse links leaving the directory named
	// by the key's first segment.
	//
	// HTTP: 400 Bad Request
	ErrOutsideRoot = errors.New("key resolves outside store root")

	// ErrNotDirectory indicates a directory was expected but the key names a file,
	// or a file's parent is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrIsDirectory indicates a file was expected but the key names a directory.
	ErrIsDirectory = errors.New("is a directory")

	// ErrInvalidKey indicates the key is malformed (empty, NUL byte, backslash).
	ErrInvalidKey = errors.New("invalid key")
)
