package models

import (
	"errors"
	"fmt"
)

// Kind classifies an error the way the router and cron runner need to
// route it: to an HTTP status, to a recovery decision, or to a log line.
// A structured Kind resolves spec's open question about the manual-execute
// endpoint favoring message substring matching — here the kind itself
// tells the caller whether it is a 404 or something else.
type Kind string

const (
	KindInvalidRequest     Kind = "INVALID_REQUEST"
	KindCannotOpenPage     Kind = "CANNOT_OPEN_PAGE"
	KindBrowserCrash       Kind = "BROWSER_CRASH"
	KindPageCorrupted      Kind = "PAGE_CORRUPTED"
	KindHealthCheckFailed  Kind = "HEALTH_CHECK_FAILED"
	KindRecoveryFailed     Kind = "RECOVERY_FAILED"
	KindImagePipelineError Kind = "IMAGE_PIPELINE_ERROR"
	KindNetworkError       Kind = "NETWORK_ERROR"
	KindStorageError       Kind = "STORAGE_ERROR"
	KindNotFound           Kind = "NOT_FOUND"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// Error is the single internal error type carrying a routing Kind.
// It implements error and supports wrapping via Unwrap so callers can
// still errors.Is/As against the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	// StatusCode is the upstream HTTP status observed, when Kind is
	// KindCannotOpenPage. 0 means a network-level failure (no response).
	StatusCode int
	// Path is the page path that failed to open, when relevant.
	Path string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps a Kind to the status code an HTTP caller should see,
// per the documented error-kind table.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidRequest:
		return 400
	case KindCannotOpenPage:
		return 404
	case KindNotFound:
		return 404
	case KindBrowserCrash, KindRecoveryFailed, KindHealthCheckFailed:
		return 503
	case KindPageCorrupted:
		return 503
	case KindImagePipelineError, KindStorageError, KindInternal:
		return 500
	default:
		return 500
	}
}

// New creates an Error of the given kind.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NewCannotOpenPage builds a KindCannotOpenPage error carrying the
// upstream HTTP status (0 for a network-level failure) and the path
// that could not be opened.
func NewCannotOpenPage(path string, statusCode int, err error) *Error {
	return &Error{
		Kind:       KindCannotOpenPage,
		Message:    fmt.Sprintf("Cannot open page: %s (%d)", path, statusCode),
		Err:        err,
		StatusCode: statusCode,
		Path:       path,
	}
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
