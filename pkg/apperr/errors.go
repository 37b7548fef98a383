package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindConflict
	KindExpired
	KindInvalidSignature
	KindConfiguration
)

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrValidation       = &Error{Kind: KindValidation}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrExpired          = &Error{Kind: KindExpired}
	ErrInvalidSignature = &Error{Kind: KindInvalidSignature}
	ErrConfiguration    = &Error{Kind: KindConfiguration}
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can test with the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(message string) error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Expired(format string, args ...interface{}) error {
	return &Error{Kind: KindExpired, Message: fmt.Sprintf(format, args...)}
}

func InvalidSignature(message string) error {
	return &Error{Kind: KindInvalidSignature, Message: message}
}

func Configuration(format string, args ...interface{}) error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps err to an HTTP status code and a stable error code.
// Invalid signatures are reported as validation failures.
func HTTPStatus(err error) (int, string) {
	switch KindOf(err) {
	case KindValidation, KindInvalidSignature:
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR"
	case KindUnauthorized:
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case KindNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case KindConflict:
		return http.StatusConflict, "CONFLICT"
	case KindExpired:
		return http.StatusConflict, "EXPIRED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// PublicMessage returns the message safe to show to a client.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal && e.Kind != KindConfiguration {
		return e.Message
	}
	return "internal server error"
}
