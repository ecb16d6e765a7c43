package http

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/shortin/config"
	"github.com/sp3dr4/shortin/internal/application"
	"github.com/sp3dr4/shortin/internal/infrastructure/memory"
	"github.com/sp3dr4/shortin/internal/infrastructure/upstream"
	"github.com/sp3dr4/shortin/internal/pkg/metrics"
	"github.com/sp3dr4/shortin/internal/qrcode"
	"github.com/sp3dr4/shortin/internal/web"
)

const linkJSON = `{"id":"1","url":"https://example.com","shortCode":"abc123","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z","count":3}`

type upstreamRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeLinkAPI stands in for the external link API.
type fakeLinkAPI struct {
	mu       sync.Mutex
	requests []upstreamRequest
	handler  http.HandlerFunc
}

func (f *fakeLinkAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, upstreamRequest{Method: r.Method, Path: r.URL.EscapedPath(), Body: string(body)})
	f.mu.Unlock()
	r.Body = io.NopCloser(bytes.NewReader(body))
	f.handler(w, r)
}

func (f *fakeLinkAPI) last() upstreamRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeLinkAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func jsonResponder(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func testConfig(apiEndpoint string) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: "8080"},
		Upstream: config.UpstreamConfig{APIEndpoint: apiEndpoint, Timeout: 2 * time.Second},
		App: config.AppConfig{
			ShortCodeLength: 6,
			RedirectDelay:   2 * time.Second,
			CopyResetDelay:  2 * time.Second,
		},
		Cache:   config.CacheConfig{Type: "memory", TTL: time.Minute},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics", Namespace: "test", Subsystem: "http"},
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, cfg *config.Config) chi.Router {
	t.Helper()

	logger := discardLogger()
	registry, err := metrics.NewPrometheusRegistry(cfg.Metrics)
	require.NoError(t, err)

	client := upstream.NewClient(cfg.Upstream.APIEndpoint, cfg.Upstream.Timeout, logger)
	links := application.NewLinkService(client, memory.NewCache(), cfg.Cache.TTL, registry, logger)
	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	handlers := NewHandlers(links, renderer, qrcode.NewRenderer(), registry, cfg.App)
	return NewRouter(handlers, logger, cfg, registry)
}

func newFakeLinkAPI(t *testing.T, handler http.HandlerFunc) (*fakeLinkAPI, string) {
	t.Helper()
	api := &fakeLinkAPI{handler: handler}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	return api, server.URL
}

func unreachableEndpoint(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()
	return addr
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestProxy_UnreachableUpstream(t *testing.T) {
	router := newTestRouter(t, testConfig(unreachableEndpoint(t)))

	tests := []struct {
		method  string
		target  string
		body    string
		wantMsg string
	}{
		{http.MethodPost, "/api/shorten", `{"url":"https://example.com"}`, "Failed to shorten URL"},
		{http.MethodGet, "/api/abc123", "", "Failed to fetch URL"},
		{http.MethodGet, "/api/abc123/stats", "", "Failed to fetch stats"},
		{http.MethodPut, "/api/abc123", `{"url":"https://example.org"}`, "Failed to update URL"},
		{http.MethodDelete, "/api/abc123", "", "Failed to delete URL"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rr := serve(router, tt.method, tt.target, tt.body)

			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.JSONEq(t, `{"error":"`+tt.wantMsg+`"}`, rr.Body.String())
		})
	}
}

func TestProxy_PassThrough(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		target       string
		body         string
		upstream     http.HandlerFunc
		wantStatus   int
		wantBody     string
		wantUpstream upstreamRequest
	}{
		{
			name:         "shorten created",
			method:       http.MethodPost,
			target:       "/api/shorten",
			body:         `{"url":"https://example.com","shortCodeInput":"abc123"}`,
			upstream:     jsonResponder(http.StatusCreated, linkJSON),
			wantStatus:   http.StatusCreated,
			wantBody:     linkJSON,
			wantUpstream: upstreamRequest{Method: http.MethodPost, Path: "/shorten", Body: `{"url":"https://example.com","shortCodeInput":"abc123"}`},
		},
		{
			name:         "shorten rejected",
			method:       http.MethodPost,
			target:       "/api/shorten",
			body:         `{"url":"nope"}`,
			upstream:     jsonResponder(http.StatusBadRequest, `{"error":"Invalid URL"}`),
			wantStatus:   http.StatusBadRequest,
			wantBody:     `{"error":"Invalid URL"}`,
			wantUpstream: upstreamRequest{Method: http.MethodPost, Path: "/shorten", Body: `{"url":"nope"}`},
		},
		{
			name:         "lookup not found",
			method:       http.MethodGet,
			target:       "/api/zzz",
			upstream:     jsonResponder(http.StatusNotFound, `{"error":"URL not found"}`),
			wantStatus:   http.StatusNotFound,
			wantBody:     `{"error":"URL not found"}`,
			wantUpstream: upstreamRequest{Method: http.MethodGet, Path: "/zzz"},
		},
		{
			name:         "stats",
			method:       http.MethodGet,
			target:       "/api/abc123/stats",
			upstream:     jsonResponder(http.StatusOK, `{"shortCode":"abc123","count":3}`),
			wantStatus:   http.StatusOK,
			wantBody:     `{"shortCode":"abc123","count":3}`,
			wantUpstream: upstreamRequest{Method: http.MethodGet, Path: "/abc123/stats"},
		},
		{
			name:         "update",
			method:       http.MethodPut,
			target:       "/api/abc123",
			body:         `{"url":"https://example.org"}`,
			upstream:     jsonResponder(http.StatusOK, linkJSON),
			wantStatus:   http.StatusOK,
			wantBody:     linkJSON,
			wantUpstream: upstreamRequest{Method: http.MethodPut, Path: "/abc123", Body: `{"url":"https://example.org"}`},
		},
		{
			name:   "delete without content",
			method: http.MethodDelete,
			target: "/api/abc123",
			upstream: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			wantStatus:   http.StatusNoContent,
			wantUpstream: upstreamRequest{Method: http.MethodDelete, Path: "/abc123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, endpoint := newFakeLinkAPI(t, tt.upstream)
			router := newTestRouter(t, testConfig(endpoint))

			rr := serve(router, tt.method, tt.target, tt.body)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rr.Body.String())
			} else {
				assert.Empty(t, rr.Body.String())
			}
			assert.Equal(t, tt.wantUpstream, api.last())
		})
	}
}

func TestProxy_InvalidBodies(t *testing.T) {
	api, endpoint := newFakeLinkAPI(t, jsonResponder(http.StatusOK, linkJSON))
	router := newTestRouter(t, testConfig(endpoint))

	rr := serve(router, http.MethodPost, "/api/shorten", `{"url":`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Failed to shorten URL"}`, rr.Body.String())

	rr = serve(router, http.MethodPut, "/api/abc123", `not json`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Failed to update URL"}`, rr.Body.String())

	assert.Equal(t, 0, api.count(), "invalid bodies must not reach the link API")
}

func TestProxy_MistypedJSONReachesUpstream(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		target   string
		body     string
		wantPath string
	}{
		{name: "shorten with numeric url", method: http.MethodPost, target: "/api/shorten", body: `{"url":123}`, wantPath: "/shorten"},
		{name: "update with array url", method: http.MethodPut, target: "/api/abc123", body: `{"url":["x"]}`, wantPath: "/abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, endpoint := newFakeLinkAPI(t, jsonResponder(http.StatusBadRequest, `{"error":"url must be a string"}`))
			router := newTestRouter(t, testConfig(endpoint))

			rr := serve(router, tt.method, tt.target, tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, `{"error":"url must be a string"}`, rr.Body.String())
			require.Equal(t, 1, api.count())
			assert.Equal(t, upstreamRequest{Method: tt.method, Path: tt.wantPath, Body: tt.body}, api.last())
		})
	}
}

func TestProxy_NonJSONUpstream(t *testing.T) {
	_, endpoint := newFakeLinkAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>502 Bad Gateway</html>")
	})
	router := newTestRouter(t, testConfig(endpoint))

	rr := serve(router, http.MethodGet, "/api/abc123", "")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch URL"}`, rr.Body.String())
}

func TestProxy_LookupIsCached(t *testing.T) {
	api, endpoint := newFakeLinkAPI(t, func(w http.ResponseWriter, r *http.Request) {
		jsonResponder(http.StatusOK, linkJSON)(w, r)
	})
	router := newTestRouter(t, testConfig(endpoint))

	for range 3 {
		rr := serve(router, http.MethodGet, "/api/abc123", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, linkJSON, rr.Body.String())
	}
	assert.Equal(t, 1, api.count())

	rr := serve(router, http.MethodDelete, "/api/abc123", "")
	require.Equal(t, http.StatusOK, rr.Code)

	serve(router, http.MethodGet, "/api/abc123", "")
	assert.Equal(t, 3, api.count())
}

func TestHandlers_HealthAndReady(t *testing.T) {
	_, endpoint := newFakeLinkAPI(t, jsonResponder(http.StatusOK, linkJSON))

	tests := []struct {
		name         string
		endpoint     string
		wantStatus   string
		wantUpstream string
	}{
		{name: "link api reachable", endpoint: endpoint, wantStatus: "ready", wantUpstream: "healthy"},
		{name: "link api unreachable", endpoint: unreachableEndpoint(t), wantStatus: "degraded", wantUpstream: "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, testConfig(tt.endpoint))

			rr := serve(router, http.MethodGet, "/health", "")
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "OK", rr.Body.String())

			rr = serve(router, http.MethodGet, "/ready", "")
			assert.Equal(t, http.StatusOK, rr.Code)
			var body ReadyResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantUpstream, body.Upstream)
			assert.NotEmpty(t, body.Timestamp)
		})
	}
}

func TestHandlers_TraceID(t *testing.T) {
	router := newTestRouter(t, testConfig(unreachableEndpoint(t)))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(TraceHeader, "trace-from-client")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, "trace-from-client", rr.Header().Get(TraceHeader))

	rr = serve(router, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rr.Header().Get(TraceHeader))
}

func TestPages_Index(t *testing.T) {
	router := newTestRouter(t, testConfig(unreachableEndpoint(t)))

	rr := serve(router, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	assert.Contains(t, body, "<title>Shortin - URL Shortener</title>")
	assert.Contains(t, body, `id="shorten-form-container"`)
	assert.Contains(t, body, "URL Shortener")
}

func TestPages_RedirectPage(t *testing.T) {
	router := newTestRouter(t, testConfig(unreachableEndpoint(t)))

	rr := serve(router, http.MethodGet, "/abc123", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `id="redirect-container"`)
	assert.Contains(t, body, `data-code="abc123"`)
	assert.Contains(t, body, `data-delay="2000"`)
}

func postForm(router http.Handler, values url.Values, host string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if host != "" {
		req.Host = host
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestPages_FormSubmit(t *testing.T) {
	t.Run("success with qr", func(t *testing.T) {
		api, endpoint := newFakeLinkAPI(t, jsonResponder(http.StatusCreated, linkJSON))
		router := newTestRouter(t, testConfig(endpoint))

		rr := postForm(router, url.Values{
			"url":            {"https://example.com"},
			"shortCodeInput": {"abc123"},
			"action":         {ActionShorten},
			"qr":             {"1"},
		}, "short.example")

		assert.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, `href="http://short.example/abc123"`)
		assert.Contains(t, body, `src="data:image/png;base64,`)
		assert.Contains(t, body, `download="qrcode-abc123.png"`)
		assert.JSONEq(t, `{"url":"https://example.com","shortCodeInput":"abc123"}`, api.last().Body)
	})

	t.Run("warning is shown", func(t *testing.T) {
		_, endpoint := newFakeLinkAPI(t, jsonResponder(http.StatusOK,
			`{"id":"1","url":"https://example.com","shortCode":"old999","warning":"URL already shortened"}`))
		router := newTestRouter(t, testConfig(endpoint))

		rr := postForm(router, url.Values{"url": {"https://example.com"}}, "")

		assert.Contains(t, rr.Body.String(), "URL already shortened")
		assert.NotContains(t, rr.Body.String(), `class="qr-code"`)
	})

	t.Run("upstream error is rendered in the form", func(t *testing.T) {
		_, endpoint := newFakeLinkAPI(t, jsonResponder(http.StatusConflict, `{"error":"Short code already in use"}`))
		router := newTestRouter(t, testConfig(endpoint))

		rr := postForm(router, url.Values{"url": {"https://example.com"}, "shortCodeInput": {"taken"}}, "")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `role="alert">Short code already in use</div>`)
		assert.Contains(t, rr.Body.String(), `value="taken"`)
	})

	t.Run("unreachable upstream falls back to a generic message", func(t *testing.T) {
		cfg := testConfig(unreachableEndpoint(t))
		router := newTestRouter(t, cfg)

		rr := postForm(router, url.Values{"url": {"https://example.com"}}, "")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `role="alert">Failed to shorten URL</div>`)
	})

	t.Run("suggest fills the code without submitting", func(t *testing.T) {
		api, endpoint := newFakeLinkAPI(t, jsonResponder(http.StatusCreated, linkJSON))
		router := newTestRouter(t, testConfig(endpoint))

		rr := postForm(router, url.Values{"url": {"https://example.com"}, "action": {ActionSuggest}}, "")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Regexp(t, `id="shortCodeInput" name="shortCodeInput" pattern="[^"]+" maxlength="64" value="[a-zA-Z0-9]{6}"`, rr.Body.String())
		assert.Equal(t, 0, api.count())
	})

	t.Run("public url overrides the request host", func(t *testing.T) {
		_, endpoint := newFakeLinkAPI(t, jsonResponder(http.StatusCreated, linkJSON))
		cfg := testConfig(endpoint)
		cfg.App.PublicURL = "https://sho.rt/"
		router := newTestRouter(t, cfg)

		rr := postForm(router, url.Values{"url": {"https://example.com"}}, "internal:8080")

		assert.Contains(t, rr.Body.String(), `href="https://sho.rt/abc123"`)
	})
}

func TestPages_QRDownload(t *testing.T) {
	api, endpoint := newFakeLinkAPI(t, jsonResponder(http.StatusOK, linkJSON))
	router := newTestRouter(t, testConfig(endpoint))

	req := httptest.NewRequest(http.MethodGet, "/qr/abc123.png", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Host = "short.example"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="qrcode-abc123.png"`, rr.Header().Get("Content-Disposition"))

	img, err := png.Decode(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, 256+2*20, img.Bounds().Dx())
	assert.Equal(t, upstreamRequest{Method: http.MethodGet, Path: "/abc123"}, api.last())
}

func TestPages_QRDownload_Failures(t *testing.T) {
	_, notFound := newFakeLinkAPI(t, jsonResponder(http.StatusNotFound, `{"error":"URL not found"}`))

	tests := []struct {
		name       string
		endpoint   string
		wantStatus int
	}{
		{name: "unknown code", endpoint: notFound, wantStatus: http.StatusNotFound},
		{name: "link api unreachable", endpoint: unreachableEndpoint(t), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, testConfig(tt.endpoint))

			rr := serve(router, http.MethodGet, "/qr/nope42.png", "")

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.NotEqual(t, "image/png", rr.Header().Get("Content-Type"))
		})
	}
}

func TestRouter_StaticAndMetrics(t *testing.T) {
	router := newTestRouter(t, testConfig(unreachableEndpoint(t)))

	for _, target := range []string{"/static/style.css", "/static/main.js", "/static/redirect.js", "/favicon.ico", "/manifest.json"} {
		rr := serve(router, http.MethodGet, target, "")
		assert.Equal(t, http.StatusOK, rr.Code, target)
	}

	serve(router, http.MethodGet, "/abc123", "")
	rr := serve(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "test_http_redirect_pages_served_total 1")
	assert.Contains(t, rr.Body.String(), `path="/{code}"`)
}
