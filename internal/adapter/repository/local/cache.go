// Package local provides in-process adapters used when Redis is disabled.
package local

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/iho/gofinance/internal/usecase"
)

// Cache implements usecase.Cache in process memory.
type Cache struct {
	store *gocache.Cache
}

// NewCache creates a Cache whose entries default to ttl and are swept
// every cleanup interval.
func NewCache(ttl, cleanup time.Duration) *Cache {
	return &Cache{store: gocache.New(ttl, cleanup)}
}

// Get returns a copy of the cached value, or usecase.ErrCacheMiss.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, usecase.ErrCacheMiss
	}
	b := v.([]byte)
	return append([]byte(nil), b...), nil
}

// Set stores a copy of value. A zero ttl uses the default expiration.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

// Delete removes keys.
func (c *Cache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.store.Delete(key)
	}
	return nil
}

// Len is the number of entries, including expired ones not yet swept.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}
