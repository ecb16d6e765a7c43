package http

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/shortin/internal/pkg/logging"
)

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel string
		wantCode  string
	}{
		{name: "api lookup", path: "/api/abc123", status: http.StatusOK, wantLevel: "INFO", wantCode: "abc123"},
		{name: "server error", path: "/api/boom", status: http.StatusInternalServerError, wantLevel: "ERROR", wantCode: "boom"},
		{name: "health probe", path: "/health", status: http.StatusOK, wantLevel: "DEBUG"},
		{name: "static asset", path: "/static/style.css", status: http.StatusOK, wantLevel: "DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := logging.New(&buf, "debug", "json")

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(LoggingMiddleware(logger))
			handler := func(w http.ResponseWriter, r *http.Request) {
				assert.NotEmpty(t, logging.TraceIDFromContext(r.Context()))
				w.WriteHeader(tt.status)
			}
			r.Get("/api/{code}", handler)
			r.Get("/health", handler)
			r.Get("/static/*", handler)

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rr.Code)

			var entries []map[string]any
			scanner := bufio.NewScanner(&buf)
			for scanner.Scan() {
				var entry map[string]any
				require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
				entries = append(entries, entry)
			}
			require.Len(t, entries, 1)

			entry := entries[0]
			assert.Equal(t, "Request completed", entry["msg"])
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, float64(tt.status), entry["status_code"])
			assert.Equal(t, rr.Header().Get(TraceHeader), entry["trace_id"])
			assert.NotEmpty(t, entry["request_id"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, entry["short_code"])
				assert.Equal(t, "/api/{code}", entry["route"])
			}
		})
	}
}
