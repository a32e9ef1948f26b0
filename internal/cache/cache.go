// Package cache memoizes display results by recognized LaTeX.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/njchilds90/formsolve/internal/format"
)

// Key derives the cache key for a LaTeX string.
func Key(latex string) string {
	hash := sha256.Sum256([]byte(latex))
	return "formsolve:v1:" + hex.EncodeToString(hash[:])
}

// Cache is an in-memory result cache safe for concurrent use.
type Cache struct {
	cache *gocache.Cache
}

func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{cache: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *Cache) Get(latex string) (format.DisplayResult, bool) {
	if val, found := c.cache.Get(Key(latex)); found {
		return val.(format.DisplayResult), true
	}
	return format.DisplayResult{}, false
}

// Set stores r under latex with the default TTL.
func (c *Cache) Set(latex string, r format.DisplayResult) {
	c.cache.SetDefault(Key(latex), r)
}

// GetOrCompute returns the cached result for latex, computing and storing
// it on a miss. The second return reports a hit.
func (c *Cache) GetOrCompute(latex string, compute func(string) format.DisplayResult) (format.DisplayResult, bool) {
	if r, ok := c.Get(latex); ok {
		return r, true
	}
	r := compute(latex)
	c.Set(latex, r)
	return r, false
}

func (c *Cache) Len() int { return c.cache.ItemCount() }

func (c *Cache) Clear() { c.cache.Flush() }
