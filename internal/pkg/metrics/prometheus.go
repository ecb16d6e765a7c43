package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sp3dr4/shortin/config"
)

// PrometheusRegistry implements the Registry interface using Prometheus metrics
type PrometheusRegistry struct {
	registry *prometheus.Registry
	config   config.MetricsConfig

	// HTTP Metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Upstream and cache
	upstreamRequestsTotal   *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec
	cacheLookupsTotal       *prometheus.CounterVec

	// Business Metrics
	linksShortenedTotal      prometheus.Counter
	qrCodesGeneratedTotal    prometheus.Counter
	redirectPagesServedTotal prometheus.Counter
}

// NewPrometheusRegistry creates a new Prometheus metrics registry
func NewPrometheusRegistry(cfg config.MetricsConfig) (Registry, error) {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelPath, LabelStatusCode},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelPath, LabelStatusCode},
	)

	httpRequestsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	upstreamRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "upstream_requests_total",
			Help:      "Total number of calls to the link API",
		},
		[]string{LabelOperation, LabelStatus},
	)

	upstreamRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "upstream_request_duration_seconds",
			Help:      "Link API call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelOperation},
	)

	cacheLookupsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cache_lookups_total",
			Help:      "Total number of link lookup cache reads",
		},
		[]string{LabelCacheStatus},
	)

	linksShortenedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "links_shortened_total",
			Help:      "Total number of successful shorten calls",
		},
	)

	qrCodesGeneratedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "qr_codes_generated_total",
			Help:      "Total number of QR codes rendered server-side",
		},
	)

	redirectPagesServedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "redirect_pages_served_total",
			Help:      "Total number of redirect pages rendered",
		},
	)

	// Register all metrics
	metricsCollectors := []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDuration,
		httpRequestsInFlight,
		upstreamRequestsTotal,
		upstreamRequestDuration,
		cacheLookupsTotal,
		linksShortenedTotal,
		qrCodesGeneratedTotal,
		redirectPagesServedTotal,
	}

	for _, collector := range metricsCollectors {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	// Register Go runtime metrics if enabled
	if cfg.CollectRuntime {
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	return &PrometheusRegistry{
		registry:                 registry,
		config:                   cfg,
		httpRequestsTotal:        httpRequestsTotal,
		httpRequestDuration:      httpRequestDuration,
		httpRequestsInFlight:     httpRequestsInFlight,
		upstreamRequestsTotal:    upstreamRequestsTotal,
		upstreamRequestDuration:  upstreamRequestDuration,
		cacheLookupsTotal:        cacheLookupsTotal,
		linksShortenedTotal:      linksShortenedTotal,
		qrCodesGeneratedTotal:    qrCodesGeneratedTotal,
		redirectPagesServedTotal: redirectPagesServedTotal,
	}, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration
func (p *PrometheusRegistry) RecordHTTPRequest(method, path, statusCode string, duration float64) {
	labels := prometheus.Labels{
		LabelMethod:     method,
		LabelPath:       path,
		LabelStatusCode: statusCode,
	}
	p.httpRequestsTotal.With(labels).Inc()
	p.httpRequestDuration.With(labels).Observe(duration)
}

// IncHTTPRequestsInFlight increments the in-flight HTTP requests counter
func (p *PrometheusRegistry) IncHTTPRequestsInFlight() {
	p.httpRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight decrements the in-flight HTTP requests counter
func (p *PrometheusRegistry) DecHTTPRequestsInFlight() {
	p.httpRequestsInFlight.Dec()
}

// RecordUpstreamRequest records a link API call. status is the HTTP status code or StatusError.
func (p *PrometheusRegistry) RecordUpstreamRequest(operation, status string, duration float64) {
	p.upstreamRequestsTotal.With(prometheus.Labels{
		LabelOperation: operation,
		LabelStatus:    status,
	}).Inc()
	p.upstreamRequestDuration.With(prometheus.Labels{LabelOperation: operation}).Observe(duration)
}

func (p *PrometheusRegistry) RecordCacheLookup(hit bool) {
	status := CacheMiss
	if hit {
		status = CacheHit
	}
	p.cacheLookupsTotal.With(prometheus.Labels{LabelCacheStatus: status}).Inc()
}

func (p *PrometheusRegistry) IncLinksShortened() {
	p.linksShortenedTotal.Inc()
}

func (p *PrometheusRegistry) IncQRCodesGenerated() {
	p.qrCodesGeneratedTotal.Inc()
}

func (p *PrometheusRegistry) IncRedirectPagesServed() {
	p.redirectPagesServedTotal.Inc()
}

// GetRegistry returns the underlying Prometheus registry
func (p *PrometheusRegistry) GetRegistry() *prometheus.Registry {
	return p.registry
}

// GetHandler returns an HTTP handler for the metrics endpoint
func (p *PrometheusRegistry) GetHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
