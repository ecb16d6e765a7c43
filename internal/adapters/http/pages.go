package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sp3dr4/shortin/internal/domain"
	"github.com/sp3dr4/shortin/internal/form"
	"github.com/sp3dr4/shortin/internal/pkg/logging"
	"github.com/sp3dr4/shortin/internal/shortcode"
	"github.com/sp3dr4/shortin/internal/web"
)

// Form actions posted by the no-script form.
const (
	ActionShorten = "shorten"
	ActionSuggest = "suggest"
)

// origin is the scheme and host short URLs are built on.
func (h *Handlers) origin(r *http.Request) string {
	if h.app.PublicURL != "" {
		return strings.TrimRight(h.app.PublicURL, "/")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + r.Host
}

func (h *Handlers) newSession(logger *slog.Logger) *form.Session {
	return form.NewSession(h.links, h.qr,
		form.WithLogger(logger),
		form.WithCopyResetDelay(h.app.CopyResetDelay),
	)
}

func (h *Handlers) renderIndex(w http.ResponseWriter, r *http.Request, page web.IndexPage) {
	page.CopyResetDelay = h.app.CopyResetDelay

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.RenderIndex(w, page); err != nil {
		logging.FromContext(r.Context()).Error("Failed to render index page", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// HandleIndex renders the empty shorten form.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, r, web.IndexPage{})
}

// HandleFormSubmit drives a form session from a plain form post so the page works without
// scripts. Upstream failures are shown in the form, never as a 5xx.
func (h *Handlers) HandleFormSubmit(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		logger.Warn("Failed to parse form", "error", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	session := h.newSession(logger)
	defer session.Close()

	session.Dispatch(form.EditURL{Text: strings.TrimSpace(r.PostForm.Get("url"))})
	session.Dispatch(form.EditShortCode{Text: strings.TrimSpace(r.PostForm.Get("shortCodeInput"))})
	wantQR := r.PostForm.Get("qr") != ""

	origin := h.origin(r)
	switch r.PostForm.Get("action") {
	case ActionSuggest:
		session.Dispatch(form.EditShortCode{Text: shortcode.Generate(h.app.ShortCodeLength)})
	default:
		state := session.Submit(r.Context())
		if state.Succeeded() {
			logger.Info("Shortened link", "short_code", state.Result.ShortCode, "url", state.Result.URL)
			if wantQR {
				if err := session.GenerateQR(r.Context(), origin); err != nil {
					logger.Warn("QR code not generated", "error", err)
				}
				if session.State().QRCodeDataURL != "" {
					h.metrics.IncQRCodesGenerated()
				}
			}
		}
	}

	state := session.State()
	page := web.IndexPage{State: state, WantQR: wantQR}
	if state.Result != nil {
		page.ShortURL = form.JoinShortURL(origin, state.Result.ShortCode)
	}
	h.renderIndex(w, r, page)
}

// HandleRedirectPage renders the landing page that resolves a short code in the browser.
func (h *Handlers) HandleRedirectPage(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.RenderRedirect(w, web.RedirectPage{Code: code, Delay: h.app.RedirectDelay}); err != nil {
		logging.FromContext(r.Context()).Error("Failed to render redirect page", "short_code", code, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.metrics.IncRedirectPagesServed()
}

// HandleQRDownload serves the QR card for a short code as a PNG attachment. Only codes the
// link API knows get a card.
//
//	@Summary		Download a QR code
//	@Description	QR code of the short URL with the URL printed below it
//	@Tags			links
//	@Produce		png
//	@Param			code	path	string	true	"Short code"
//	@Success		200		{file}	binary	"PNG image"
//	@Failure		404		"Unknown short code"
//	@Failure		500		"QR code could not be rendered"
//	@Router			/qr/{code}.png [get]
func (h *Handlers) HandleQRDownload(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	ctx := logging.With(r.Context(), "short_code", code)
	logger := logging.FromContext(ctx)

	resp, err := h.links.Lookup(ctx, code)
	switch {
	case err != nil:
		logger.Error("Short code lookup failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	case resp.StatusCode == http.StatusNotFound:
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	case !resp.OK():
		logger.Warn("Short code lookup rejected", "status", resp.StatusCode)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	session := h.newSession(logger)
	defer session.Close()
	session.Dispatch(form.SubmitSuccess{Link: domain.ShortenedLink{ShortCode: code}})

	name, png, err := session.DownloadQR(ctx, h.origin(r))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.metrics.IncQRCodesGenerated()
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
