package cache

import (
	"encoding/json"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a process-local TTL store for read-endpoint responses. It is
// always best-effort: callers must never fail the underlying operation on a
// cache problem.
type Cache struct {
	store      *gocache.Cache
	defaultTTL time.Duration
}

// New builds a cache with the given default TTL and janitor sweep interval.
func New(defaultTTL, checkPeriod time.Duration) *Cache {
	return &Cache{
		store:      gocache.New(defaultTTL, checkPeriod),
		defaultTTL: defaultTTL,
	}
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.store.Get(key)
}

// Set stores value under key. A zero ttl falls back to the default.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.store.Set(key, value, ttl)
}

func (c *Cache) Del(key string) {
	c.store.Delete(key)
}

// DelPattern removes every live entry whose key contains pattern as a plain
// substring and reports how many were dropped.
func (c *Cache) DelPattern(pattern string) int {
	n := 0
	for key := range c.store.Items() {
		if strings.Contains(key, pattern) {
			c.store.Delete(key)
			n++
		}
	}
	return n
}

func (c *Cache) Flush() {
	c.store.Flush()
}

func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// Key derives a deterministic cache key from a route prefix and request
// parameters. json.Marshal sorts map keys, so identical logical requests
// collide to the same key regardless of parameter order.
func Key(prefix string, params map[string]string) string {
	if len(params) == 0 {
		return prefix + ":{}"
	}
	b, err := json.Marshal(params)
	if err != nil {
		return prefix + ":{}"
	}
	return prefix + ":" + string(b)
}
