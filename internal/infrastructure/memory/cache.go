package memory

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	body      []byte
	expiresAt time.Time
}

// Cache is an in-process lookup cache. Entries expire lazily on read and are swept on write.
type Cache struct {
	entries map[string]entry
	mu      sync.RWMutex
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (c *Cache) Get(_ context.Context, shortCode string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[shortCode]
	if !ok || c.expired(e) {
		return nil, nil
	}

	// Callers may hold on to the slice; never hand out the stored one.
	out := make([]byte, len(e.body))
	copy(out, e.body)
	return out, nil
}

// Set stores body for ttl. A non-positive ttl keeps the entry until it is deleted.
func (c *Cache) Set(_ context.Context, shortCode string, body []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweep()

	e := entry{body: append([]byte(nil), body...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[shortCode] = e
	return nil
}

func (c *Cache) Delete(_ context.Context, shortCode string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, shortCode)
	return nil
}

func (c *Cache) Ping(_ context.Context) error {
	return nil
}

func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}

// sweep drops expired entries. Callers hold the write lock.
func (c *Cache) sweep() {
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
		}
	}
}
