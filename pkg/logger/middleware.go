package logger

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/screwyprof/sortition/pkg/httpkit"
)

// statusRecorder captures what the handler wrote
type statusRecorder struct {
	http.ResponseWriter
	status   int
	bytesOut int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytesOut += n
	return n, err
}

// NewMiddleware logs one "HTTP" record per request: info for success,
// warn for client errors, error for server errors
func NewMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// handlers not wrapped in httpkit.HandlerFunc still report their errors
			r = r.WithContext(httpkit.WithErrorTracking(r.Context()))

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("query", r.URL.RawQuery),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes_in", max(0, int(r.ContentLength))),
				slog.Int("bytes_out", rec.bytesOut),
			}
			if err := httpkit.Error(r.Context()); err != nil {
				attrs = append(attrs, slog.String("error", errorMessage(err)))
			}

			log.LogAttrs(r.Context(), levelFor(rec.status), "HTTP", attrs...)
		})
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// errorMessage prefers the internal cause over the public message
func errorMessage(err error) string {
	if httpErr, ok := err.(httpkit.HTTPError); ok && httpErr.Cause() != nil {
		return httpErr.Cause().Error()
	}
	return err.Error()
}
