package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpswagger "github.com/swaggo/http-swagger"

	"github.com/sp3dr4/shortin/config"
	"github.com/sp3dr4/shortin/internal/pkg/metrics"
	"github.com/sp3dr4/shortin/internal/web"
)

func NewRouter(handlers *Handlers, logger *slog.Logger, cfg *config.Config, metricsRegistry metrics.Registry) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger))
	r.Use(metrics.PrometheusMiddleware(metricsRegistry, cfg.Metrics.Path))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5, "text/html", "text/css", "text/javascript", "application/javascript", "application/json"))

	r.Get("/health", handlers.HandleHealth)
	r.Get("/ready", handlers.HandleReady)

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, metricsRegistry.GetHandler())
	}

	r.Get("/swagger/*", httpswagger.Handler(
		httpswagger.URL("/swagger/doc.json"),
	))
	r.Get("/redoc", handleRedoc)

	r.Handle("/static/*", http.StripPrefix("/static/", web.StaticHandler()))
	r.Get("/favicon.ico", web.ServeAsset("favicon.ico"))
	r.Get("/manifest.json", web.ServeAsset("manifest.json"))

	r.Route("/api", func(r chi.Router) {
		r.Post("/shorten", handlers.HandleShorten)
		r.Get("/{code}", handlers.HandleLookup)
		r.Put("/{code}", handlers.HandleUpdate)
		r.Delete("/{code}", handlers.HandleDelete)
		r.Get("/{code}/stats", handlers.HandleStats)
	})

	r.Get("/qr/{code}.png", handlers.HandleQRDownload)

	r.Get("/", handlers.HandleIndex)
	r.Post("/", handlers.HandleFormSubmit)
	r.Get("/{code}", handlers.HandleRedirectPage)

	return r
}

func handleRedoc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	redocHTML := `<!DOCTYPE html>
<html>
<head>
    <title>Shortin API Documentation - Redoc</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body {
            margin: 0;
            padding: 0;
        }
    </style>
</head>
<body>
    <redoc spec-url='/swagger/doc.json'></redoc>
    <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`
	_, _ = w.Write([]byte(redocHTML))
}
