// Package upstream talks to the external link API that owns all link data.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sp3dr4/shortin/internal/domain"
	"github.com/sp3dr4/shortin/internal/pkg/logging"
)

// MaxBodySize bounds how much of an upstream response is read.
const MaxBodySize = 1 << 20

const TraceHeader = "X-Trace-Id"

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Do sends body (nil for none) to path and returns the status and raw body. An empty body is
// allowed; anything else must be valid JSON so it can be forwarded as such.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (*domain.APIResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if traceID := logging.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set(TraceHeader, traceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Upstream request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		c.logger.Error("Failed to read upstream response", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnavailable, err)
	}
	if len(data) > MaxBodySize {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrInvalidUpstreamBody, MaxBodySize)
	}
	if len(bytes.TrimSpace(data)) > 0 && !json.Valid(data) {
		c.logger.Warn("Upstream returned a non-JSON body",
			"method", method, "path", path, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", domain.ErrInvalidUpstreamBody, resp.StatusCode)
	}

	c.logger.Debug("Upstream request completed", "method", method, "path", path, "status", resp.StatusCode)

	return &domain.APIResponse{StatusCode: resp.StatusCode, Body: data}, nil
}

// Ping reports whether the API answers at all. Any HTTP response counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	resp.Body.Close()
	return nil
}
