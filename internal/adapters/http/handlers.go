package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sp3dr4/shortin/config"
	"github.com/sp3dr4/shortin/internal/application"
	"github.com/sp3dr4/shortin/internal/domain"
	"github.com/sp3dr4/shortin/internal/pkg/logging"
	"github.com/sp3dr4/shortin/internal/pkg/metrics"
	"github.com/sp3dr4/shortin/internal/qrcode"
	"github.com/sp3dr4/shortin/internal/web"
)

type Handlers struct {
	links    *application.LinkService
	renderer *web.Renderer
	qr       *qrcode.Renderer
	metrics  metrics.Registry
	app      config.AppConfig
}

func NewHandlers(links *application.LinkService, renderer *web.Renderer, qr *qrcode.Renderer, registry metrics.Registry, app config.AppConfig) *Handlers {
	return &Handlers{
		links:    links,
		renderer: renderer,
		qr:       qr,
		metrics:  registry,
		app:      app,
	}
}

// HandleHealth handles the health check endpoint.
//
//	@Summary		Health check endpoint
//	@Description	Check if the service is running
//	@Tags			health
//	@Produce		plain
//	@Success		200	{string}	string	"OK"
//	@Router			/health [get]
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// ReadyResponse is the readiness report. Status is "degraded" when the link API cannot be
// reached.
type ReadyResponse struct {
	Status    string `json:"status" example:"ready"`
	Upstream  string `json:"upstream" example:"healthy"`
	Timestamp string `json:"timestamp"`
}

// HandleReady handles the readiness check endpoint.
//
//	@Summary		Readiness check endpoint
//	@Description	Check if the service is ready to serve requests. The cache must answer; an unreachable link API only degrades the status.
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	ReadyResponse	"Service is ready or degraded"
//	@Failure		503	{object}	ErrorResponse	"Service is not ready"
//	@Router			/ready [get]
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	logger := logging.FromContext(ctx)

	if err := h.links.Ready(ctx); err != nil {
		logger.Error("Readiness check failed", "error", err)
		respondWithError(w, http.StatusServiceUnavailable, "Service not ready: cache unavailable")
		return
	}

	resp := ReadyResponse{Status: "ready", Upstream: "healthy"}
	if err := h.links.UpstreamReachable(ctx); err != nil {
		logger.Warn("Link API unreachable", "error", err)
		resp.Status = "degraded"
		resp.Upstream = "unhealthy"
	}
	resp.Timestamp = time.Now().Format(time.RFC3339)

	respondWithJSON(w, http.StatusOK, resp)
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error" example:"Failed to shorten URL"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, domain.ErrorBody{Error: message})
}

// respondWithUpstream forwards an upstream answer verbatim.
func respondWithUpstream(w http.ResponseWriter, resp *domain.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}
