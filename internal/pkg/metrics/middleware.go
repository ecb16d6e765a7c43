package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// MetricsPath is the default path for the metrics endpoint
const MetricsPath = "/metrics"

// PrometheusMiddleware records request count, latency and in-flight gauge per route pattern.
// Scrapes of metricsPath (MetricsPath when empty) are not recorded.
func PrometheusMiddleware(registry Registry, metricsPath string) func(http.Handler) http.Handler {
	if metricsPath == "" {
		metricsPath = MetricsPath
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == metricsPath {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			registry.IncHTTPRequestsInFlight()
			defer registry.DecHTTPRequestsInFlight()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			// Route pattern is only known once chi has matched the request.
			registry.RecordHTTPRequest(r.Method, GetRoutePath(r), FormatStatusCode(status), time.Since(start).Seconds())
		})
	}
}
