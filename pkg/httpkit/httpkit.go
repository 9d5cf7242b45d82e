// Package httpkit holds the handler plumbing of the archive API
package httpkit

import (
	"context"
	"encoding/json"
	"net/http"
)

// HTTPError is an error that knows its status code and keeps the internal
// cause apart from what the client sees
type HTTPError interface {
	HTTPCode() int
	Cause() error
	error
}

var (
	jsonContentType = []string{"application/json; charset=utf-8"}
	nosniff         = []string{"nosniff"}
)

// HandlerFunc returns the handler that writes the response, or nil when it
// already wrote one. Errors reported through JsonError reach the logging middleware.
type HandlerFunc func(http.ResponseWriter, *http.Request) http.HandlerFunc

func (h HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r = r.WithContext(WithErrorTracking(r.Context()))
	if respond := h(w, r); respond != nil {
		respond(w, r)
	}
}

// JSON responds 200 with data encoded as JSON
func JSON(data any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, data)
	}
}

// JsonError records err for the middleware and responds with its status code
func JsonError(err HTTPError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetError(r.Context(), err)
		writeJSON(w, err.HTTPCode(), err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	h := w.Header()
	if len(h["Content-Type"]) == 0 {
		h["Content-Type"] = jsonContentType
	}
	if len(h["X-Content-Type-Options"]) == 0 {
		h["X-Content-Type-Options"] = nosniff
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorKey struct{}

type errorSlot struct {
	err error
}

// WithErrorTracking gives ctx a slot for the request error; an existing slot is kept
func WithErrorTracking(ctx context.Context) context.Context {
	if _, ok := ctx.Value(errorKey{}).(*errorSlot); ok {
		return ctx
	}
	return context.WithValue(ctx, errorKey{}, &errorSlot{})
}

// SetError stores err in the request slot, if there is one
func SetError(ctx context.Context, err error) {
	if slot, ok := ctx.Value(errorKey{}).(*errorSlot); ok {
		slot.err = err
	}
}

// Error returns the request error, if any
func Error(ctx context.Context) error {
	if slot, ok := ctx.Value(errorKey{}).(*errorSlot); ok {
		return slot.err
	}
	return nil
}
