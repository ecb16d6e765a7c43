package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry defines the interface for metrics collection
type Registry interface {
	// HTTP Metrics
	RecordHTTPRequest(method, path, statusCode string, duration float64)
	IncHTTPRequestsInFlight()
	DecHTTPRequestsInFlight()

	// Upstream API calls, labelled by proxy operation (shorten, lookup, stats, update, delete)
	RecordUpstreamRequest(operation, status string, duration float64)

	// Cache lookups on the link lookup path
	RecordCacheLookup(hit bool)

	// Business Metrics
	IncLinksShortened()
	IncQRCodesGenerated()
	IncRedirectPagesServed()

	// Prometheus-specific methods
	GetRegistry() *prometheus.Registry
	GetHandler() http.Handler
}

// NoOpRegistry provides a no-op implementation for when metrics are disabled
type NoOpRegistry struct{}

func NewNoOpRegistry() Registry {
	return &NoOpRegistry{}
}

func (n *NoOpRegistry) RecordHTTPRequest(method, path, statusCode string, duration float64) {}
func (n *NoOpRegistry) IncHTTPRequestsInFlight()                                            {}
func (n *NoOpRegistry) DecHTTPRequestsInFlight()                                            {}
func (n *NoOpRegistry) RecordUpstreamRequest(operation, status string, duration float64)    {}
func (n *NoOpRegistry) RecordCacheLookup(hit bool)                                          {}
func (n *NoOpRegistry) IncLinksShortened()                                                  {}
func (n *NoOpRegistry) IncQRCodesGenerated()                                                {}
func (n *NoOpRegistry) IncRedirectPagesServed()                                             {}
func (n *NoOpRegistry) GetRegistry() *prometheus.Registry                                   { return nil }
func (n *NoOpRegistry) GetHandler() http.Handler                                            { return nil }

// Common label names as constants
const (
	LabelMethod      = "method"
	LabelPath        = "path"
	LabelStatusCode  = "status_code"
	LabelOperation   = "operation"
	LabelStatus      = "status"
	LabelCacheStatus = "cache_status"
)

// Values for LabelStatus on upstream calls and LabelCacheStatus on lookups.
const (
	StatusError = "error"
	CacheHit    = "hit"
	CacheMiss   = "miss"
)
