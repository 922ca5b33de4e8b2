package logging

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ritzau/aip-explorer/pkg/metrics"
)

// RequestIDMiddleware tags each request with an X-Request-ID, logs its start
// and outcome, and records request metrics by route template.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		path := routeTemplate(r)

		start := time.Now()
		DebugContext(ctx, "request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remoteAddr", r.RemoteAddr,
		)

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		status := strconv.Itoa(wrapped.statusCode)
		metrics.RequestDuration.WithLabelValues(r.Method, path, status).Observe(duration.Seconds())
		metrics.RequestsTotal.WithLabelValues(r.Method, path, status).Inc()

		switch {
		case wrapped.statusCode >= 500:
			ErrorContext(ctx, "request failed",
				"method", r.Method, "path", r.URL.Path,
				"status", wrapped.statusCode, "durationMs", duration.Milliseconds())
		case wrapped.statusCode >= 400:
			WarnContext(ctx, "request rejected",
				"method", r.Method, "path", r.URL.Path,
				"status", wrapped.statusCode, "durationMs", duration.Milliseconds())
		default:
			InfoContext(ctx, "request completed",
				"method", r.Method, "path", r.URL.Path,
				"status", wrapped.statusCode, "durationMs", duration.Milliseconds())
		}
	})
}

// routeTemplate keeps metric labels bounded: /api/favourites/{index} rather than every index
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "other"
}

// responseWriter captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the wrapper
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
