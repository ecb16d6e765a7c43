package domain

import (
	"context"
	"fmt"
)

// APIResponse is an upstream response kept byte-for-byte so it can be forwarded verbatim.
type APIResponse struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the upstream answered with a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// UpstreamAPI sends a request to the external link API. Implementations return an error
// wrapping ErrUpstreamUnavailable on transport failure and ErrInvalidUpstreamBody when the
// response cannot be forwarded as JSON.
type UpstreamAPI interface {
	Do(ctx context.Context, method, path string, body []byte) (*APIResponse, error)
	// Ping reports whether the API is reachable at all.
	Ping(ctx context.Context) error
}

// APIError is a non-2xx answer from the external API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream responded with status %d: %s", e.StatusCode, e.Message)
}
