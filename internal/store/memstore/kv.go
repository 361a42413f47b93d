package memstore

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Revocations is an in-memory services.RevocationStore
type Revocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewRevocations creates an empty revocation list
func NewRevocations() *Revocations {
	return &Revocations{revoked: make(map[string]time.Time), now: time.Now}
}

// Revoke marks tokenID revoked and reports whether it was not revoked before
func (r *Revocations) Revoke(_ context.Context, tokenID string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if exp, ok := r.revoked[tokenID]; ok && r.now().Before(exp) {
		return false, nil
	}
	r.revoked[tokenID] = r.now().Add(ttl)
	return true, nil
}

// Cache is an in-memory response cache with a fixed TTL
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	gen     int64
	clears  int
	now     func() time.Time
}

// NewCache creates an empty cache
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, entries: make(map[string]entry), now: time.Now}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: append([]byte{}, value...), expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *Cache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
	c.gen++
	c.clears++
	return nil
}

func (c *Cache) Generation(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

// Len returns the number of live entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clears returns how many times Clear was called
func (c *Cache) Clears() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clears
}
