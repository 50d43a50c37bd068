package suggest

import (
	"math"
	"sync"

	"github.com/charmbracelet/log"
)

// ResultCache is a small LRU cache of index lookups keyed by bucket and
// normalized keywords. Typing "@jo", "@joh", "@john" and back again hits it
// on the way back.
type ResultCache struct {
	entries     map[string][]Entry
	accessTime  map[string]int64
	accessCount int64
	hits        int
	misses      int
	maxEntries  int
	mu          sync.Mutex
}

// NewResultCache creates a cache holding at most maxEntries lookups. A
// non-positive size disables caching.
func NewResultCache(maxEntries int) *ResultCache {
	return &ResultCache{
		entries:    make(map[string][]Entry),
		accessTime: make(map[string]int64),
		maxEntries: maxEntries,
	}
}

func cacheKey(bucket, keywords string) string {
	return bucket + "\x00" + normalizeKey(keywords)
}

// Get returns the cached lookup for bucket and keywords.
func (c *ResultCache) Get(bucket, keywords string) ([]Entry, bool) {
	if c == nil || c.maxEntries <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(bucket, keywords)
	entries, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.accessTime[key] = c.nextAccessTime()
	return entries, true
}

// Put stores a lookup, evicting the least recently used one when full.
func (c *ResultCache) Put(bucket, keywords string, entries []Entry) {
	if c == nil || c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(bucket, keywords)
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLRU()
	}
	c.entries[key] = entries
	c.accessTime[key] = c.nextAccessTime()
}

// InvalidateBucket drops every lookup for bucket.
func (c *ResultCache) InvalidateBucket(bucket string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := bucket + "\x00"
	dropped := 0
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
			delete(c.accessTime, key)
			dropped++
		}
	}
	log.Debugf("Invalidated %d cached lookups for bucket %s", dropped, bucket)
}

// Stats returns cache statistics.
func (c *ResultCache) Stats() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]int{
		"cacheEntries": len(c.entries),
		"maxEntries":   c.maxEntries,
		"cacheHits":    c.hits,
		"cacheMisses":  c.misses,
	}
}

func (c *ResultCache) nextAccessTime() int64 {
	c.accessCount++
	return c.accessCount
}

func (c *ResultCache) evictLRU() {
	var oldestKey string
	var oldestTime int64 = math.MaxInt64

	for key, t := range c.accessTime {
		if t < oldestTime {
			oldestTime = t
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		delete(c.accessTime, oldestKey)
	}
}
