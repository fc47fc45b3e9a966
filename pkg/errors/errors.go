package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	// Details carries the structured payload of a Detailed cause, filled in by FromError.
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Detailed is implemented by domain errors whose fields are safe to show to clients.
type Detailed interface {
	ErrorDetails() interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		cause := e.Err.Error()
		// Messages built from their cause already carry it.
		if cause == "" || strings.Contains(e.Message, cause) {
			return e.Message
		}
		return fmt.Sprintf("%s: %s", e.Message, cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound          = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict          = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation        = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal          = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrInvalidRange      = New("INVALID_RANGE", http.StatusBadRequest, "end time must be after start time")
	ErrScheduleConflict  = New("SCHEDULE_CONFLICT", http.StatusConflict, "schedule conflict")
	ErrWeightExceeded    = New("WEIGHT_EXCEEDED", http.StatusBadRequest, "subject weight exceeds 100%")
	ErrPersistence       = New("PERSISTENCE_ERROR", http.StatusInternalServerError, "failed to persist changes")
	ErrUnsupportedFormat = New("UNSUPPORTED_FORMAT", http.StatusBadRequest, "unsupported export format")
	ErrCacheMiss         = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
	}
	var detailed Detailed
	if e.Details == nil && errors.As(e.Err, &detailed) {
		clone := *e
		clone.Details = detailed.ErrorDetails()
		return &clone
	}
	return e
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
