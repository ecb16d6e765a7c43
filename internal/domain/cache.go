package domain

import (
	"context"
	"time"
)

// Cache stores upstream lookup bodies keyed by short code.
type Cache interface {
	// Get returns the cached body for a short code, or nil on a miss
	Get(ctx context.Context, shortCode string) ([]byte, error)

	// Set stores a body with the specified TTL
	Set(ctx context.Context, shortCode string, body []byte, ttl time.Duration) error

	// Delete removes a short code from the cache
	Delete(ctx context.Context, shortCode string) error

	// Ping checks if the cache is available
	Ping(ctx context.Context) error

	Close() error
}
