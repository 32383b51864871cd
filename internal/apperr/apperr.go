// Package apperr carries the error kinds the service layer is allowed
// to return. The API layer maps each kind to a fixed HTTP status so
// storage errors never leak to callers.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindUnauthorized
	KindConflict
	KindUpstreamUnavailable
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindBadRequest:
		return "bad_request"
	default:
		return "internal"
	}
}

// Error is a kind-tagged error with a caller-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error            { return New(KindNotFound, message) }
func Forbidden(message string) *Error           { return New(KindForbidden, message) }
func Unauthorized(message string) *Error        { return New(KindUnauthorized, message) }
func Conflict(message string) *Error            { return New(KindConflict, message) }
func UpstreamUnavailable(message string) *Error { return New(KindUpstreamUnavailable, message) }
func BadRequest(message string) *Error          { return New(KindBadRequest, message) }

// KindOf extracts the kind from err, KindUnknown if untagged.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
