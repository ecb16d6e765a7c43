package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sp3dr4/shortin/internal/domain"
	"github.com/sp3dr4/shortin/internal/pkg/logging"
)

// Messages returned when the link API cannot be reached or answers with something that is
// not JSON.
const (
	MsgShortenFailed = "Failed to shorten URL"
	MsgFetchFailed   = "Failed to fetch URL"
	MsgStatsFailed   = "Failed to fetch stats"
	MsgUpdateFailed  = "Failed to update URL"
	MsgDeleteFailed  = "Failed to delete URL"
)

// maxRequestBody bounds proxied request bodies.
const maxRequestBody = 64 << 10

type upstreamCall func(ctx context.Context) (*domain.APIResponse, error)

// proxy runs call and forwards its answer. Any failure becomes a 500 with failMsg.
func (h *Handlers) proxy(w http.ResponseWriter, r *http.Request, failMsg string, call upstreamCall) {
	resp, err := call(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("Proxy request failed", "message", failMsg, "error", err)
		respondWithError(w, http.StatusInternalServerError, failMsg)
		return
	}
	respondWithUpstream(w, resp)
}

// errBodyNotJSON marks a request body that is not a JSON document.
var errBodyNotJSON = errors.New("request body is not JSON")

// readJSONBody reads the request body and checks that it is well-formed JSON. Field names and
// types are the link API's business, so the raw bytes are forwarded untouched.
func readJSONBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if !json.Valid(body) {
		return nil, errBodyNotJSON
	}
	return body, nil
}

// HandleShorten proxies link creation.
//
//	@Summary		Create a short URL
//	@Description	Forwards the request to the link API and returns its answer verbatim
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			request	body		domain.ShortenRequest	true	"URL to shorten"
//	@Success		201		{object}	domain.ShortenResult	"Created"
//	@Success		200		{object}	domain.ShortenResult	"Existing link reused"
//	@Failure		400		{object}	ErrorResponse			"Rejected by the link API"
//	@Failure		500		{object}	ErrorResponse			"Failed to shorten URL"
//	@Router			/api/shorten [post]
func (h *Handlers) HandleShorten(w http.ResponseWriter, r *http.Request) {
	body, err := readJSONBody(w, r)
	if err != nil {
		logging.FromContext(r.Context()).Warn("Invalid shorten request", "error", err)
		respondWithError(w, http.StatusInternalServerError, MsgShortenFailed)
		return
	}

	h.proxy(w, r, MsgShortenFailed, func(ctx context.Context) (*domain.APIResponse, error) {
		return h.links.Shorten(ctx, body)
	})
}

// HandleLookup proxies a link lookup.
//
//	@Summary		Get a short link
//	@Tags			links
//	@Produce		json
//	@Param			code	path		string					true	"Short code"
//	@Success		200		{object}	domain.ShortenedLink	"Link"
//	@Failure		404		{object}	ErrorResponse			"Not found"
//	@Failure		500		{object}	ErrorResponse			"Failed to fetch URL"
//	@Router			/api/{code} [get]
func (h *Handlers) HandleLookup(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	h.proxy(w, r, MsgFetchFailed, func(ctx context.Context) (*domain.APIResponse, error) {
		return h.links.Lookup(ctx, code)
	})
}

// HandleStats proxies link statistics.
//
//	@Summary		Get short link statistics
//	@Tags			links
//	@Produce		json
//	@Param			code	path		string			true	"Short code"
//	@Success		200		{object}	object			"Statistics as returned by the link API"
//	@Failure		404		{object}	ErrorResponse	"Not found"
//	@Failure		500		{object}	ErrorResponse	"Failed to fetch stats"
//	@Router			/api/{code}/stats [get]
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	h.proxy(w, r, MsgStatsFailed, func(ctx context.Context) (*domain.APIResponse, error) {
		return h.links.Stats(ctx, code)
	})
}

// HandleUpdate proxies a destination change.
//
//	@Summary		Update a short link
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			code	path		string					true	"Short code"
//	@Param			request	body		domain.UpdateRequest	true	"New destination"
//	@Success		200		{object}	domain.ShortenedLink	"Updated"
//	@Failure		404		{object}	ErrorResponse			"Not found"
//	@Failure		500		{object}	ErrorResponse			"Failed to update URL"
//	@Router			/api/{code} [put]
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	body, err := readJSONBody(w, r)
	if err != nil {
		logging.FromContext(r.Context()).Warn("Invalid update request", "short_code", code, "error", err)
		respondWithError(w, http.StatusInternalServerError, MsgUpdateFailed)
		return
	}

	h.proxy(w, r, MsgUpdateFailed, func(ctx context.Context) (*domain.APIResponse, error) {
		return h.links.Update(ctx, code, body)
	})
}

// HandleDelete proxies link deletion.
//
//	@Summary		Delete a short link
//	@Tags			links
//	@Produce		json
//	@Param			code	path	string	true	"Short code"
//	@Success		200		"Deleted"
//	@Success		204		"Deleted"
//	@Failure		404		{object}	ErrorResponse	"Not found"
//	@Failure		500		{object}	ErrorResponse	"Failed to delete URL"
//	@Router			/api/{code} [delete]
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	h.proxy(w, r, MsgDeleteFailed, func(ctx context.Context) (*domain.APIResponse, error) {
		return h.links.Delete(ctx, code)
	})
}
