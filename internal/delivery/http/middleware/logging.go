package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder captures the status code and bytes written.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (n int, err error) {
	n, err = w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

type logFieldsKey struct{}

// logFields collects attributes added while the request is served. A request
// is handled on one goroutine, so no locking.
type logFields struct {
	args []any
}

// AddLogFields attaches key/value pairs, e.g. "cart_session" or "booking_id",
// to the request line written by LoggingMiddleware. Outside a logged request it does nothing.
func AddLogFields(ctx context.Context, args ...any) {
	if f, ok := ctx.Value(logFieldsKey{}).(*logFields); ok {
		f.args = append(f.args, args...)
	}
}

// LoggingMiddleware logs each request with method, path, status, duration and
// any booking or cart session the handlers identified. Server errors are logged at error level.
// It does not log request or response bodies.
func LoggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		fields := &logFields{}
		ctx := context.WithValue(r.Context(), logFieldsKey{}, fields)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		args := append([]any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.written,
			"duration_ms", time.Since(start).Milliseconds(),
		}, fields.args...)
		logger.Log(ctx, level, "request", args...)
	})
}
