package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sp3dr4/shortin/internal/pkg/logging"
)

// TraceHeader carries the trace ID in both directions.
const TraceHeader = "X-Trace-Id"

// quietRequest reports requests that are logged at debug level only: probes and assets.
func quietRequest(r *http.Request) bool {
	switch r.URL.Path {
	case "/health", "/ready", "/favicon.ico", "/manifest.json":
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/static/")
}

// LoggingMiddleware puts a request-scoped logger and trace ID into the context and logs each
// request once it completes. The trace ID is taken from TraceHeader when the caller sent one.
func LoggingMiddleware(baseLogger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			if reqID := middleware.GetReqID(ctx); reqID != "" {
				ctx = logging.WithRequestID(ctx, reqID)
			}

			traceID := r.Header.Get(TraceHeader)
			if traceID == "" {
				traceID = logging.GenerateTraceID()
			}
			ctx = logging.WithTraceID(ctx, traceID)
			w.Header().Set(TraceHeader, traceID)

			requestLogger := logging.NewRequestLogger(ctx, baseLogger)
			ctx = logging.WithLogger(ctx, requestLogger)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case quietRequest(r):
				level = slog.LevelDebug
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1e3),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if rctx := chi.RouteContext(ctx); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					attrs = append(attrs, slog.String("route", pattern))
				}
				if code := rctx.URLParam("code"); code != "" {
					attrs = append(attrs, slog.String("short_code", code))
				}
			}

			requestLogger.LogAttrs(ctx, level, "Request completed", attrs...)
		})
	}
}
