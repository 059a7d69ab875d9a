package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies failures crossing a handler boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindBadRequest
	KindConflict
	KindDependencyMissing
	KindProcessingFailed
	KindIO
	KindFormat
	KindTemplateNotFound
	KindTimeout
	KindTooManyRequests
)

var kindNames = map[Kind]string{
	KindInternal:          "InternalError",
	KindUnauthorized:      "Unauthorized",
	KindForbidden:         "Forbidden",
	KindNotFound:          "NotFound",
	KindBadRequest:        "BadRequest",
	KindConflict:          "Conflict",
	KindDependencyMissing: "DependencyMissing",
	KindProcessingFailed:  "ProcessingFailed",
	KindIO:                "IOError",
	KindFormat:            "FormatError",
	KindTemplateNotFound:  "TemplateNotFound",
	KindTimeout:           "Timeout",
	KindTooManyRequests:   "TooManyRequests",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the single error type handlers translate into HTTP responses.
type Error struct {
	Kind    Kind
	Message string
	// Field names the offending request field for BadRequest.
	Field string
	// Detail carries diagnostic text such as captured stderr.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrTimeout) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrBadRequest        = &Error{Kind: KindBadRequest}
	ErrDependencyMissing = &Error{Kind: KindDependencyMissing}
	ErrProcessingFailed  = &Error{Kind: KindProcessingFailed}
	ErrIO                = &Error{Kind: KindIO}
	ErrFormat            = &Error{Kind: KindFormat}
	ErrTemplateNotFound  = &Error{Kind: KindTemplateNotFound}
	ErrTimeout           = &Error{Kind: KindTimeout}
)

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

func TooManyRequests(msg string) *Error { return &Error{Kind: KindTooManyRequests, Message: msg} }

// BadRequest reports an invalid or missing request field.
func BadRequest(field, msg string) *Error {
	return &Error{Kind: KindBadRequest, Field: field, Message: msg}
}

// MissingField is the BadRequest for an absent required field.
func MissingField(field string) *Error {
	return BadRequest(field, field+" is required")
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the first *Error in err's chain, wrapping anything else as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
