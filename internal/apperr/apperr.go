// Package apperr defines the error kinds shared by the request handlers,
// the poll cycle and the storage layer.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrStorage          = errors.New("storage error")
	ErrFeedFetch        = errors.New("feed fetch error")
	ErrDispatch         = errors.New("dispatch error")
)

// Error attaches a kind and the failing operation to an underlying cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

// Is reports whether target is the error's kind.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports a missing or malformed request field.
func Validation(op, msg string) error {
	return &Error{Kind: ErrValidation, Op: op, Err: errors.New(msg)}
}

// Storage wraps a persistence failure.
func Storage(op string, err error) error {
	return &Error{Kind: ErrStorage, Op: op, Err: err}
}

// FeedFetch wraps a failure to obtain the event batch.
func FeedFetch(op string, err error) error {
	return &Error{Kind: ErrFeedFetch, Op: op, Err: err}
}

// Dispatch wraps a push delivery failure.
func Dispatch(op string, err error) error {
	return &Error{Kind: ErrDispatch, Op: op, Err: err}
}

// HTTPStatus maps an error to the status code returned to callers.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}
