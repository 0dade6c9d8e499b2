package disk

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the stable, client-visible identifier of a failure.
//
// The set is closed: every code below has a Category, a Message and an
// HTTP status, and clients must branch on the code, never on message text.
type ErrorCode string

const (
	// CodeAuthExpired: the session token does not resolve to a user.
	CodeAuthExpired ErrorCode = "AUTH_EXPIRED"

	// CodeInvalidEncoding: a path or filename is not valid percent-encoded UTF-8.
	CodeInvalidEncoding ErrorCode = "INVALID_ENCODING"

	// CodeInvalidPath: the path escapes the user's namespace or is malformed.
	CodeInvalidPath ErrorCode = "INVALID_PATH"

	// CodePathNotFound: the target directory does not exist.
	CodePathNotFound ErrorCode = "PATH_NOT_FOUND"

	// CodeNotADirectory: a directory was required but the path names a file.
	CodeNotADirectory ErrorCode = "NOT_A_DIRECTORY"

	// CodeInvalidRange: the listing range is not "start-end".
	CodeInvalidRange ErrorCode = "INVALID_RANGE"

	// CodeInvalidOrdering: unknown order field or direction.
	CodeInvalidOrdering ErrorCode = "INVALID_ORDERING"

	// CodeTransferFailed: reading or writing file bytes failed.
	CodeTransferFailed ErrorCode = "TRANSFER_FAILED"

	// CodeFileNotFound: the download target is absent or not a regular file.
	CodeFileNotFound ErrorCode = "FILE_NOT_FOUND"

	// CodeRepositoryFailure: the metadata repository failed.
	CodeRepositoryFailure ErrorCode = "REPOSITORY_FAILURE"

	// CodeRateLimited: the caller exceeded its request rate.
	CodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Category groups error codes by the layer that raised them.
type Category string

const (
	CategoryAuth       Category = "auth"
	CategoryEncoding   Category = "encoding"
	CategoryPath       Category = "path"
	CategoryQuery      Category = "query"
	CategoryTransfer   Category = "transfer"
	CategoryRepository Category = "repository"
	CategoryTransport  Category = "transport"
)

// Codes lists every ErrorCode.
var Codes = []ErrorCode{
	CodeAuthExpired,
	CodeInvalidEncoding,
	CodeInvalidPath,
	CodePathNotFound,
	CodeNotADirectory,
	CodeInvalidRange,
	CodeInvalidOrdering,
	CodeTransferFailed,
	CodeFileNotFound,
	CodeRepositoryFailure,
	CodeRateLimited,
}

type codeInfo struct {
	category Category
	message  string
	status   int
}

var codeTable = map[ErrorCode]codeInfo{
	CodeAuthExpired:       {CategoryAuth, "token expired", http.StatusUnauthorized},
	CodeInvalidEncoding:   {CategoryEncoding, "request param format error", http.StatusBadRequest},
	CodeInvalidPath:       {CategoryPath, "request error: invalid path", http.StatusBadRequest},
	CodePathNotFound:      {CategoryPath, "request error: directory doesn't exist", http.StatusNotFound},
	CodeNotADirectory:     {CategoryPath, "request error: not a directory", http.StatusBadRequest},
	CodeInvalidRange:      {CategoryQuery, "request error: invalid range, expected start-end", http.StatusBadRequest},
	CodeInvalidOrdering:   {CategoryQuery, "request error: invalid ordering", http.StatusBadRequest},
	CodeTransferFailed:    {CategoryTransfer, "transfer failed", http.StatusInternalServerError},
	CodeFileNotFound:      {CategoryTransfer, "file not found", http.StatusNotFound},
	CodeRepositoryFailure: {CategoryRepository, "metadata repository failure", http.StatusInternalServerError},
	CodeRateLimited:       {CategoryTransport, "too many requests", http.StatusTooManyRequests},
}

// Valid reports whether c is a member of the closed code set.
func (c ErrorCode) Valid() bool {
	_, ok := codeTable[c]
	return ok
}

// Category returns the layer the code belongs to.
func (c ErrorCode) Category() Category {
	return codeTable[c].category
}

// Message returns the stable human-readable text for the code.
func (c ErrorCode) Message() string {
	if info, ok := codeTable[c]; ok {
		return info.message
	}
	return "internal error"
}

// HTTPStatus returns the HTTP status the code is served with.
func (c ErrorCode) HTTPStatus() int {
	if info, ok := codeTable[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Error is the typed failure returned by every disk operation.
type Error struct {
	Code ErrorCode

	// Message is safe to show to clients. Defaults to Code.Message().
	Message string

	// Field names the offending request parameter, if any ("path", "filename", "limit").
	Field string

	// Stage is the transfer stage the operation failed from. Zero outside transfers.
	Stage Stage

	// Err is the underlying cause. It is logged, never sent to clients.
	Err error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.PublicMessage()
	if e.Stage != 0 {
		msg += " (stage " + e.Stage.String() + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PublicMessage is the client-facing message, naming the field when set.
func (e *Error) PublicMessage() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code.Message()
	}
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	return msg
}

func newError(code ErrorCode, field string, cause error) *Error {
	return &Error{Code: code, Field: field, Err: cause}
}

func errorf(code ErrorCode, field, format string, args ...any) *Error {
	return &Error{Code: code, Field: field, Err: fmt.Errorf(format, args...)}
}

// atStage tags err with stage if it is an *Error without one.
func atStage(err error, stage Stage) error {
	var de *Error
	if errors.As(err, &de) && de.Stage == 0 {
		de.Stage = stage
	}
	return err
}

// CodeOf extracts the ErrorCode from err. ok is false if err carries none.
func CodeOf(err error) (code ErrorCode, ok bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

// AsError converts err into an *Error, using fallback for errors that
// carry no code.
func AsError(err error, fallback ErrorCode) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return newError(fallback, "", err)
}
