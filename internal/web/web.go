// Package web renders the server-side pages and serves the embedded static assets.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/sp3dr4/shortin/internal/form"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// IndexPage is the data behind the shorten form page.
type IndexPage struct {
	State          form.State
	ShortURL       string
	WantQR         bool
	CopyResetDelay time.Duration
}

// QRCodeDataURL marks the rendered QR data URL as safe for an img src.
func (p IndexPage) QRCodeDataURL() template.URL {
	return template.URL(p.State.QRCodeDataURL)
}

func (p IndexPage) CopyResetDelayMS() int64 {
	return p.CopyResetDelay.Milliseconds()
}

func (p IndexPage) DownloadName() string {
	if p.State.Result == nil {
		return ""
	}
	return form.DownloadFilename(p.State.Result.ShortCode)
}

// RedirectPage is the data behind the redirect landing page.
type RedirectPage struct {
	Code  string
	Delay time.Duration
}

func (p RedirectPage) DelayMS() int64 {
	return p.Delay.Milliseconds()
}

type Renderer struct {
	index    *template.Template
	redirect *template.Template
}

func NewRenderer() (*Renderer, error) {
	layout, err := template.ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	index, err := page(layout, "templates/index.html")
	if err != nil {
		return nil, err
	}
	redirect, err := page(layout, "templates/redirect.html")
	if err != nil {
		return nil, err
	}

	return &Renderer{index: index, redirect: redirect}, nil
}

func page(layout *template.Template, name string) (*template.Template, error) {
	t, err := layout.Clone()
	if err != nil {
		return nil, fmt.Errorf("clone layout for %s: %w", name, err)
	}
	if _, err := t.ParseFS(templateFS, name); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return t, nil
}

// RenderIndex writes the shorten form page. The page is rendered into a buffer first so a
// template error never leaves a half-written response.
func (r *Renderer) RenderIndex(w io.Writer, data IndexPage) error {
	return render(w, r.index, data)
}

func (r *Renderer) RenderRedirect(w io.Writer, data RedirectPage) error {
	return render(w, r.redirect, data)
}

func render(w io.Writer, t *template.Template, data any) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", t.Name(), err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Static returns the embedded static asset tree rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The directory is embedded at build time.
		panic(err)
	}
	return sub
}

// StaticHandler serves the embedded assets. Mount it with the URL prefix stripped.
func StaticHandler() http.Handler {
	return http.FileServerFS(Static())
}

// ServeAsset serves a single embedded asset, such as favicon.ico, at an arbitrary path.
func ServeAsset(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, Static(), name)
	}
}
