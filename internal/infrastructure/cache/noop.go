package cache

import (
	"context"
	"time"
)

// NoOpCache backs cache.type "none": every lookup misses, so every GET /api/{code} reaches the
// link API. It is always ready.
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (*NoOpCache) Get(context.Context, string) ([]byte, error)              { return nil, nil }
func (*NoOpCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NoOpCache) Delete(context.Context, string) error                     { return nil }
func (*NoOpCache) Ping(context.Context) error                               { return nil }
func (*NoOpCache) Close() error                                             { return nil }
