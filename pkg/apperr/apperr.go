// Package apperr is the storefront error taxonomy. Repositories and services
// log the underlying failure where it happens and return an *Error whose Kind
// tells the HTTP layer how to present it.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure by who has to act on it.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is bad input; Fields holds per-field messages.
	KindValidation
	// KindNotFound is a lookup of a row or object that does not exist.
	KindNotFound
	// KindBackend is a database or change-feed failure.
	KindBackend
	// KindStorage is an object-storage upload/delete/list failure.
	KindStorage
	// KindAuth is a credential or session failure. The message never says which part was wrong.
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindBackend:
		return "backend"
	case KindStorage:
		return "storage"
	case KindAuth:
		return "auth"
	}
	return "unknown"
}

// Error is a normalized error carrying its Kind and the operation that failed.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a KindValidation error from a field → message map.
func Validation(op string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: "validation failed", Fields: fields}
}

// Invalid builds a KindValidation error with a single message.
func Invalid(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

func NotFound(op, message string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

func Backend(op string, err error) *Error {
	return &Error{Kind: KindBackend, Op: op, Message: "backend request failed", Err: err}
}

func Storage(op, message string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, Message: message, Err: err}
}

func Auth(op string) *Error {
	return &Error{Kind: KindAuth, Op: op, Message: "invalid credentials"}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given Kind.
func Is(err error, k Kind) bool { return err != nil && KindOf(err) == k }

// FieldsOf returns the per-field messages of a validation error, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// Public returns the message safe to show a client for err.
func Public(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Internal Server Error"
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String()
}

// HTTPStatus maps err onto a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	case KindBackend, KindStorage:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
