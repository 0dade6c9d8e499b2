package metadata

import (
	"errors"
	"fmt"
)

// StoreError represents an error returned by a Repository.
//
// Service code inspects Code to decide how the failure is reported to
// clients; the message and path are for logs.
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the logical path related to the error (if applicable)
	Path string

	// Err is the underlying driver error, if any
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ErrorCode represents the category of a repository error.
type ErrorCode int

const (
	// ErrNotFound indicates the requested entry doesn't exist
	ErrNotFound ErrorCode = iota

	// ErrInvalidArgument indicates invalid parameters were provided
	// Examples: empty name, empty owner, negative offset
	ErrInvalidArgument

	// ErrIOError indicates the backing store failed
	ErrIOError

	// ErrClosed indicates the repository was used after Close
	ErrClosed
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not found"
	case ErrInvalidArgument:
		return "invalid argument"
	case ErrIOError:
		return "i/o error"
	case ErrClosed:
		return "closed"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// NewIOError wraps a backend failure.
func NewIOError(message, path string, err error) *StoreError {
	return &StoreError{Code: ErrIOError, Message: message, Path: path, Err: err}
}

// NewInvalidArgument reports a rejected argument.
func NewInvalidArgument(message string) *StoreError {
	return &StoreError{Code: ErrInvalidArgument, Message: message}
}

// IsCode reports whether err is a *StoreError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Code == code
}

// ValidateForSave checks the caller-supplied fields of an entry before it is stored.
func ValidateForSave(entry *FileEntry) error {
	switch {
	case entry == nil:
		return NewInvalidArgument("entry is nil")
	case entry.Owner == "":
		return NewInvalidArgument("entry owner is empty")
	case entry.Name == "":
		return NewInvalidArgument("entry name is empty")
	case entry.Size < 0:
		return NewInvalidArgument("entry size is negative")
	}
	return nil
}

// ValidateWindow checks QuerySlice arguments.
func ValidateWindow(offset, count int) error {
	if offset < 0 {
		return NewInvalidArgument("offset is negative")
	}
	if count < 0 {
		return NewInvalidArgument("count is negative")
	}
	return nil
}
