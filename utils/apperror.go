package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures surfaced by the feed core.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindValidation is an input or programmer error. Never retried.
	KindValidation
	// KindNotFound means the requested entity does not exist.
	KindNotFound
	// KindDatabase is a backend failure: a batch returned nothing or the call failed.
	KindDatabase
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "notFound"
	case KindDatabase:
		return "database"
	default:
		return "unknown"
	}
}

// AppError carries a kind, the failing operation and an optional cause.
type AppError struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func NewValidationError(op, msg string) error {
	return &AppError{Kind: KindValidation, Op: op, Message: msg}
}

func NewNotFoundError(op, msg string) error {
	return &AppError{Kind: KindNotFound, Op: op, Message: msg}
}

func NewDatabaseError(op string, err error) error {
	msg := "backend operation failed"
	if err == nil {
		msg = "backend returned no result"
	}
	return &AppError{Kind: KindDatabase, Op: op, Message: msg, Err: err}
}

// KindOf returns the kind of the first AppError in err's chain.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to the response status handlers should use.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindDatabase:
		return http.StatusServiceUnavailable
	case KindUnknown:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
