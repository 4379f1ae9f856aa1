// Package apperr defines the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation and HTTP status mapping.
type Kind string

// Error kinds.
const (
	Authentication Kind = "authentication"
	ExternalAPI    Kind = "external_api"
	BadRequest     Kind = "bad_request"
	NotFound       Kind = "not_found"
	Forbidden      Kind = "forbidden"
	Database       Kind = "database"
	BusinessLogic  Kind = "business_logic"
)

// Error wraps an underlying failure with a kind and, for third-party
// failures, the provider name and upstream HTTP status.
type Error struct {
	Kind     Kind
	Provider string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Provider != "" && e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d): %v", e.Kind, e.Provider, e.Status, e.Err)
	case e.Provider != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Provider, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error of the given kind.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Newf creates an Error of the given kind from a format string.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// External creates an ExternalAPI error annotated with the provider
// name and the upstream HTTP status.
func External(provider string, status int, err error) *Error {
	return &Error{Kind: ExternalAPI, Provider: provider, Status: status, Err: err}
}

// Auth creates an Authentication error for the given provider.
func Auth(provider string, err error) *Error {
	return &Error{Kind: Authentication, Provider: provider, Err: err}
}

// KindOf returns the kind of err, or BusinessLogic when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return BusinessLogic
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to the response status used by the API layer.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case BadRequest:
		return http.StatusBadRequest
	case Authentication:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case ExternalAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
