package web

import (
	"bytes"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/shortin/internal/domain"
	"github.com/sp3dr4/shortin/internal/form"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	return r
}

func TestRenderIndex_Shell(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newRenderer(t).RenderIndex(&buf, IndexPage{CopyResetDelay: 2 * time.Second}))
	html := buf.String()

	for _, want := range []string{
		`<html lang="en">`,
		`<title>Shortin - URL Shortener</title>`,
		`href="#main-content"`,
		`Skip to main content`,
		`<header`,
		`<main role="main" id="main-content">`,
		`<article`,
		`<footer`,
		`URL Shortener`,
		`id="shorten-form-container"`,
		`data-copy-reset-delay="2000"`,
		`<script type="module" src="/static/main.js">`,
	} {
		assert.Contains(t, html, want)
	}
	assert.NotContains(t, html, `class="result"`)
	assert.NotContains(t, html, `role="alert"`)
}

func TestRenderIndex_States(t *testing.T) {
	link := &domain.ShortenedLink{ID: "1", URL: "https://example.com/long", ShortCode: "abc123", Count: 4}

	tests := []struct {
		name    string
		page    IndexPage
		want    []string
		notWant []string
	}{
		{
			name: "error",
			page: IndexPage{State: form.State{URL: "https://x.example", Error: "Invalid URL"}},
			want: []string{`role="alert">Invalid URL</div>`, `value="https://x.example"`},
		},
		{
			name: "success with warning",
			page: IndexPage{
				State:    form.State{Result: link, Warning: "URL already shortened"},
				ShortURL: "https://s.example/abc123",
			},
			want: []string{
				`URL already shortened`,
				`href="https://s.example/abc123"`,
				`data-copy="https://s.example/abc123"`,
				`https://example.com/long`,
			},
			notWant: []string{`class="qr-code"`},
		},
		{
			name: "qr shown",
			page: IndexPage{
				State: form.State{
					Result:        link,
					ShowQRCode:    true,
					QRCodeDataURL: "data:image/png;base64,iVBORw0KGgo=",
				},
				ShortURL: "https://s.example/abc123",
				WantQR:   true,
			},
			want: []string{
				`src="data:image/png;base64,iVBORw0KGgo="`,
				`href="/qr/abc123.png"`,
				`download="qrcode-abc123.png"`,
				` checked`,
			},
		},
		{
			name: "copy feedback is left to the browser",
			page: IndexPage{
				State:    form.State{Result: link, Copied: true},
				ShortURL: "https://s.example/abc123",
			},
			want:    []string{`data-copy="https://s.example/abc123">Copy</button>`},
			notWant: []string{`Copied!`},
		},
		{
			name:    "user input is escaped",
			page:    IndexPage{State: form.State{Error: `<script>alert(1)</script>`}},
			want:    []string{`&lt;script&gt;alert(1)&lt;/script&gt;`},
			notWant: []string{`<script>alert(1)</script>`},
		},
	}

	r := newRenderer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, r.RenderIndex(&buf, tt.page))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
			for _, notWant := range tt.notWant {
				assert.NotContains(t, buf.String(), notWant)
			}
		})
	}
}

func TestRenderRedirect(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newRenderer(t).RenderRedirect(&buf, RedirectPage{Code: "abc123", Delay: 2 * time.Second}))
	html := buf.String()

	assert.Contains(t, html, `id="redirect-container"`)
	assert.Contains(t, html, `data-code="abc123"`)
	assert.Contains(t, html, `data-delay="2000"`)
	assert.Contains(t, html, `src="/static/redirect.js"`)
	assert.Contains(t, html, `<title>Redirecting - Shortin</title>`)
	assert.NotContains(t, html, `id="shorten-form-container"`)
}

func TestStatic(t *testing.T) {
	for _, name := range []string{"style.css", "main.js", "redirect.js", "favicon.ico", "manifest.json"} {
		_, err := fs.Stat(Static(), name)
		assert.NoError(t, err, name)
	}

	rr := httptest.NewRecorder()
	http.StripPrefix("/static/", StaticHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/css")

	rr = httptest.NewRecorder()
	ServeAsset("manifest.json").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/manifest.json", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"short_name": "Shortin"`)
}
