package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	NotFound
	InvalidInput
	InvalidInterval
	OverlapConflict
	Forbidden
	Unauthenticated
	DuplicateKey
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case InvalidInput:
		return "invalid_input"
	case InvalidInterval:
		return "invalid_interval"
	case OverlapConflict:
		return "overlap_conflict"
	case Forbidden:
		return "forbidden"
	case Unauthenticated:
		return "unauthenticated"
	case DuplicateKey:
		return "duplicate_key"
	default:
		return "internal"
	}
}

// Error is the only error type handlers turn into a client response.
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

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFoundf(format string, args ...any) *Error { return New(NotFound, format, args...) }

func Invalidf(format string, args ...any) *Error { return New(InvalidInput, format, args...) }

func Forbiddenf(format string, args ...any) *Error { return New(Forbidden, format, args...) }

func Duplicatef(format string, args ...any) *Error { return New(DuplicateKey, format, args...) }

func Unauthenticatedf(format string, args ...any) *Error {
	return New(Unauthenticated, format, args...)
}

// KindOf reports Internal for anything that is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message is safe to show to clients; internal details are hidden.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != Internal {
		return appErr.Message
	}
	return "Internal server error"
}

func StatusCode(err error) int {
	switch KindOf(err) {
	case NotFound:
		return http.StatusNotFound
	case InvalidInput, InvalidInterval, OverlapConflict, DuplicateKey:
		return http.StatusBadRequest
	case Forbidden:
		return http.StatusForbidden
	case Unauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
