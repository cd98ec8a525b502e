package secrets

import (
	"sync"
	"time"
)

const defaultCacheSize = 16

// CacheConfig controls how long resolved credentials are reused.
// A zero TTL disables caching; MaxSize defaults to 16 entries.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	MaxSize int
}

type cacheEntry struct {
	value   string
	expires time.Time
}

// Cache holds resolved secrets for a fixed TTL so the relay does not hit
// the provider chain on every request.
type Cache struct {
	ttl     time.Duration
	maxSize int // zero when caching is off

	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewCache(cfg CacheConfig) *Cache {
	c := &Cache{ttl: cfg.TTL, entries: map[string]cacheEntry{}, now: time.Now}
	if cfg.Enabled && cfg.TTL > 0 {
		c.maxSize = cfg.MaxSize
		if c.maxSize <= 0 {
			c.maxSize = defaultCacheSize
		}
	}
	return c
}

// Get returns a live entry. Expired entries are dropped on access.
func (c *Cache) Get(key string) (string, bool) {
	if c.maxSize == 0 {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		return "", false
	}
	return e.value, true
}

// Set stores value for the configured TTL. Adding a new key to a full
// cache first drops expired entries and then, if needed, the entry
// closest to expiry.
func (c *Cache) Set(key, value string) {
	if c.maxSize == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxSize {
		c.makeRoom(now)
	}
	c.entries[key] = cacheEntry{value: value, expires: now.Add(c.ttl)}
}

func (c *Cache) makeRoom(now time.Time) {
	var victim string
	var soonest time.Time
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
			continue
		}
		if victim == "" || e.expires.Before(soonest) {
			victim, soonest = k, e.expires
		}
	}
	if len(c.entries) >= c.maxSize {
		delete(c.entries, victim)
	}
}

// Clear forgets every entry, e.g. after a credential file changes.
func (c *Cache) Clear() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
