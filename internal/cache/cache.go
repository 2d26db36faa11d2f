// Package cache memoizes encoded layer responses. Layers are a pure function of
// the read-only dataset and the selection, so entries never go stale.
package cache

import (
	"sync"
)

// Key identifies one encoded layer response.
type Key struct {
	Phase    string
	Selected string
	CRS      int
}

// LayerCache caches encoded GeoJSON by selection, so repeated phase switches
// skip recomputation and encoding.
type LayerCache struct {
	m       sync.Mutex
	entries map[Key][]byte
	limit   int

	Hits   SafeCounter
	Misses SafeCounter
}

// NewLayerCache creates a cache holding at most limit entries. A limit of zero
// or less means unbounded.
func NewLayerCache(limit int) *LayerCache {
	return &LayerCache{
		entries: make(map[Key][]byte),
		limit:   limit,
	}
}

func (c *LayerCache) Get(k Key) ([]byte, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if b, ok := c.entries[k]; ok {
		c.Hits.Inc()
		return b, true
	}
	c.Misses.Inc()
	return nil, false
}

// Put stores b. When the cache is full the whole cache is dropped first;
// the key space is small enough that eviction order does not matter.
func (c *LayerCache) Put(k Key, b []byte) {
	c.m.Lock()
	defer c.m.Unlock()
	if _, ok := c.entries[k]; !ok && c.limit > 0 && len(c.entries) >= c.limit {
		c.entries = make(map[Key][]byte)
	}
	c.entries[k] = b
}

// GetOrCompute returns the cached bytes for k or stores the result of compute.
// hit reports whether compute was skipped. Errors are not cached.
func (c *LayerCache) GetOrCompute(k Key, compute func() ([]byte, error)) (b []byte, hit bool, err error) {
	if b, ok := c.Get(k); ok {
		return b, true, nil
	}
	b, err = compute()
	if err != nil {
		return nil, false, err
	}
	c.Put(k, b)
	return b, false, nil
}

func (c *LayerCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.entries)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
