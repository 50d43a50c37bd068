package suggest

import (
	"sort"
	"sync"

	"github.com/bastiangx/mentionserve/pkg/query"
	"github.com/charmbracelet/log"
)

// IndexReceiver answers query tokens from one Index per bucket. Each bucket is
// searched on its own goroutine and the listener is called from there, so
// hosts must serialise what the listener does.
type IndexReceiver struct {
	indexes map[string]*Index
	cache   *ResultCache
	limit   int
	queries int
	mu      sync.RWMutex
	wg      sync.WaitGroup
}

// NewIndexReceiver creates a receiver returning at most limit suggestions per
// bucket, with an LRU cache of cacheSize lookups. The limit is fixed since
// cached lookups are cut to it.
func NewIndexReceiver(limit, cacheSize int) *IndexReceiver {
	return &IndexReceiver{
		indexes: make(map[string]*Index),
		cache:   NewResultCache(cacheSize),
		limit:   limit,
	}
}

// SetIndex adds or replaces the index for its bucket.
func (r *IndexReceiver) SetIndex(ix *Index) {
	r.mu.Lock()
	r.indexes[ix.Bucket()] = ix
	r.cache.InvalidateBucket(ix.Bucket())
	r.mu.Unlock()
	log.Debugf("Bucket %s now has %d entries", ix.Bucket(), ix.Len())
}

// RemoveIndex drops a bucket.
func (r *IndexReceiver) RemoveIndex(bucket string) {
	r.mu.Lock()
	delete(r.indexes, bucket)
	r.cache.InvalidateBucket(bucket)
	r.mu.Unlock()
}

// Index returns the index of bucket.
func (r *IndexReceiver) Index(bucket string) (*Index, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ix, ok := r.indexes[bucket]
	return ix, ok
}

// Buckets returns the bucket names in alphabetical order.
func (r *IndexReceiver) Buckets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.indexes))
	for name := range r.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OnQueryReceived implements Receiver.
func (r *IndexReceiver) OnQueryReceived(token query.QueryToken, listener ResultListener) []string {
	r.mu.Lock()
	r.queries++
	indexes := make(map[string]*Index, len(r.indexes))
	for name, ix := range r.indexes {
		indexes[name] = ix
	}
	r.mu.Unlock()

	buckets := make([]string, 0, len(indexes))
	for name := range indexes {
		buckets = append(buckets, name)
	}
	sort.Strings(buckets)

	keywords := token.Keywords()
	for _, bucket := range buckets {
		r.wg.Add(1)
		go func(bucket string, ix *Index) {
			defer r.wg.Done()
			entries := r.lookup(ix, keywords)
			suggestions := make([]Suggestible, len(entries))
			for i, e := range entries {
				suggestions[i] = e
			}
			listener.OnReceiveSuggestionsResult(bucket, NewResult(token, suggestions))
		}(bucket, indexes[bucket])
	}
	log.Debugf("Dispatched %q to %d buckets", token.TokenString(), len(buckets))
	return buckets
}

func (r *IndexReceiver) lookup(ix *Index, keywords string) []Entry {
	if entries, ok := r.cache.Get(ix.Bucket(), keywords); ok {
		return entries
	}
	entries := ix.Search(keywords, r.limit)

	// Only cache lookups made on the bucket's current index. A search that
	// outlived SetIndex or RemoveIndex must not refill the cache.
	r.mu.RLock()
	if r.indexes[ix.Bucket()] == ix {
		r.cache.Put(ix.Bucket(), keywords, entries)
	}
	r.mu.RUnlock()
	return entries
}

// Wait blocks until every dispatched lookup has called its listener.
func (r *IndexReceiver) Wait() {
	r.wg.Wait()
}

// Stats returns statistics about the receiver and its cache.
func (r *IndexReceiver) Stats() map[string]int {
	r.mu.RLock()
	stats := map[string]int{
		"buckets": len(r.indexes),
		"queries": r.queries,
	}
	total := 0
	for _, ix := range r.indexes {
		total += ix.Len()
	}
	r.mu.RUnlock()

	stats["entries"] = total
	for k, v := range r.cache.Stats() {
		stats[k] = v
	}
	return stats
}
