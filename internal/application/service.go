package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sp3dr4/shortin/internal/domain"
	"github.com/sp3dr4/shortin/internal/pkg/metrics"
)

// Proxy operations, used as the metrics label for upstream calls.
const (
	OpShorten = "shorten"
	OpLookup  = "lookup"
	OpStats   = "stats"
	OpUpdate  = "update"
	OpDelete  = "delete"
)

// LinkService forwards link operations to the external API. Lookups are cached; updates and
// deletes invalidate the cached entry when the API accepts them.
type LinkService struct {
	api     domain.UpstreamAPI
	cache   domain.Cache
	ttl     time.Duration
	metrics metrics.Registry
	logger  *slog.Logger
}

func NewLinkService(api domain.UpstreamAPI, cache domain.Cache, ttl time.Duration, registry metrics.Registry, logger *slog.Logger) *LinkService {
	return &LinkService{
		api:     api,
		cache:   cache,
		ttl:     ttl,
		metrics: registry,
		logger:  logger,
	}
}

func (s *LinkService) call(ctx context.Context, op, method, path string, body []byte) (*domain.APIResponse, error) {
	start := time.Now()
	resp, err := s.api.Do(ctx, method, path, body)
	duration := time.Since(start).Seconds()

	if err != nil {
		s.metrics.RecordUpstreamRequest(op, metrics.StatusError, duration)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.RecordUpstreamRequest(op, metrics.GetStatusCodeClass(resp.StatusCode), duration)
	return resp, nil
}

func codePath(code string) string {
	return "/" + url.PathEscape(code)
}

// Shorten forwards a create request body as is.
func (s *LinkService) Shorten(ctx context.Context, body []byte) (*domain.APIResponse, error) {
	resp, err := s.call(ctx, OpShorten, http.MethodPost, "/shorten", body)
	if err != nil {
		return nil, err
	}
	if resp.OK() {
		s.metrics.IncLinksShortened()
	}
	return resp, nil
}

// Lookup returns the link for code, from the cache when possible. Only 200 answers are cached.
// Cache failures are logged and treated as misses.
func (s *LinkService) Lookup(ctx context.Context, code string) (*domain.APIResponse, error) {
	cached, err := s.cache.Get(ctx, code)
	if err != nil {
		s.logger.Warn("Cache read failed", "short_code", code, "error", err)
	}
	if cached != nil {
		s.metrics.RecordCacheLookup(true)
		return &domain.APIResponse{StatusCode: http.StatusOK, Body: cached}, nil
	}
	s.metrics.RecordCacheLookup(false)

	resp, err := s.call(ctx, OpLookup, http.MethodGet, codePath(code), nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusOK && len(resp.Body) > 0 {
		if err := s.cache.Set(ctx, code, resp.Body, s.ttl); err != nil {
			s.logger.Warn("Cache write failed", "short_code", code, "error", err)
		}
	}
	return resp, nil
}

// Stats is never cached.
func (s *LinkService) Stats(ctx context.Context, code string) (*domain.APIResponse, error) {
	return s.call(ctx, OpStats, http.MethodGet, codePath(code)+"/stats", nil)
}

func (s *LinkService) Update(ctx context.Context, code string, body []byte) (*domain.APIResponse, error) {
	resp, err := s.call(ctx, OpUpdate, http.MethodPut, codePath(code), body)
	if err != nil {
		return nil, err
	}
	if resp.OK() {
		s.invalidate(ctx, code)
	}
	return resp, nil
}

func (s *LinkService) Delete(ctx context.Context, code string) (*domain.APIResponse, error) {
	resp, err := s.call(ctx, OpDelete, http.MethodDelete, codePath(code), nil)
	if err != nil {
		return nil, err
	}
	if resp.OK() {
		s.invalidate(ctx, code)
	}
	return resp, nil
}

func (s *LinkService) invalidate(ctx context.Context, code string) {
	if err := s.cache.Delete(ctx, code); err != nil {
		s.logger.Warn("Cache invalidation failed", "short_code", code, "error", err)
	}
}

// ShortenLink is the typed form of Shorten. Non-2xx answers become *domain.APIError carrying
// the API's error message.
func (s *LinkService) ShortenLink(ctx context.Context, req domain.ShortenRequest) (*domain.ShortenResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode shorten request: %w", err)
	}

	resp, err := s.Shorten(ctx, body)
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		var errBody domain.ErrorBody
		_ = json.Unmarshal(resp.Body, &errBody)
		return nil, &domain.APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	var result domain.ShortenResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidUpstreamBody, err)
	}
	if result.ShortCode == "" {
		return nil, fmt.Errorf("%w: missing shortCode", domain.ErrInvalidUpstreamBody)
	}
	return &result, nil
}

// Ready reports whether the lookup cache is usable.
func (s *LinkService) Ready(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

// UpstreamReachable reports whether the link API answers. An unreachable API leaves the
// service degraded rather than unready: pages still render and proxy routes answer 500.
func (s *LinkService) UpstreamReachable(ctx context.Context) error {
	return s.api.Ping(ctx)
}
