package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Sentinel errors for error classification
var (
	ErrBadRequest          = errors.New(http.StatusText(http.StatusBadRequest))
	ErrInternalServerError = errors.New(http.StatusText(http.StatusInternalServerError))
)

// Error represents a structured API error response
type Error struct {
	cause    error  // The original error, for the access log
	message  string // Safe client-facing message
	httpCode int    // HTTP status code, also rendered as the API error code
}

// HTTPCode returns the HTTP status code for this error
func (e *Error) HTTPCode() int {
	return e.httpCode
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.message
}

// Unwrap returns the underlying cause for error unwrapping
func (e *Error) Unwrap() error {
	return e.cause
}

// Is implements error checking for sentinel errors
func (e *Error) Is(target error) bool {
	return errors.Is(e.cause, target)
}

// Cause returns the original error for logging purposes
func (e *Error) Cause() error {
	return e.cause
}

// MarshalJSON implements json.Marshaler interface
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"code":    e.httpCode,
		"message": e.message,
	})
}

// Constructor functions for different error types

// BadRequest reports invalid query or path parameters
func BadRequest(cause error) *Error {
	return &Error{
		cause:    cause,
		message:  cause.Error(), // validation messages carry no internals
		httpCode: http.StatusBadRequest,
	}
}

// InternalServerError keeps the cause for the access log only
func InternalServerError(cause error) *Error {
	return &Error{
		cause:    cause,
		message:  http.StatusText(http.StatusInternalServerError), // Never expose store or driver errors
		httpCode: http.StatusInternalServerError,
	}
}

// NotFound reports an archived scan or other resource that does not exist
func NotFound(cause error) *Error {
	return &Error{
		cause:    cause,
		message:  cause.Error(), // names only the missing resource
		httpCode: http.StatusNotFound,
	}
}

// Wrap transforms any error into a safe API error.
// If the error is already an API error, it is returned unchanged.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}

	// Don't double-wrap API errors
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	// Handlers map known misses to NotFound first; anything else
	// reaching this point is a store failure
	return InternalServerError(err)
}
