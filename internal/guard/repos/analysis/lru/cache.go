package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/linkfence/linkfence/internal/guard/domain"
	"github.com/linkfence/linkfence/internal/guard/repos/analysis"
)

// resultCache is an LRU-backed implementation of analysis.ResultCache.
// It tracks basic metrics: hits, misses, and evictions.
type resultCache struct {
	lru       *lru.Cache[string, domain.AnalysisResult]
	hits      uint64
	misses    uint64
	evictions uint64
}

// disabledCache is a no-op ResultCache used when size <= 0.
type disabledCache struct{}

// New creates a new ResultCache with the given capacity. If size <= 0, a
// disabled no-op cache is returned that always misses and tracks no metrics.
func New(size int) (analysis.ResultCache, error) {
	if size <= 0 {
		return &disabledCache{}, nil
	}

	var rc resultCache
	// Use NewWithEvict to observe evictions, including Purge-induced ones.
	cache, err := lru.NewWithEvict(size, func(_ string, _ domain.AnalysisResult) {
		atomic.AddUint64(&rc.evictions, 1)
	})
	if err != nil {
		return nil, err
	}
	rc.lru = cache
	return &rc, nil
}

// Get looks up a result by key. When found, increments hits; otherwise increments misses.
func (c *resultCache) Get(key string) (domain.AnalysisResult, bool) {
	if val, ok := c.lru.Get(key); ok {
		atomic.AddUint64(&c.hits, 1)
		return val, true
	}
	atomic.AddUint64(&c.misses, 1)
	var zero domain.AnalysisResult
	return zero, false
}

// Put stores a result by key.
func (c *resultCache) Put(key string, r domain.AnalysisResult) {
	c.lru.Add(key, r)
}

// Len returns the number of entries in the cache.
func (c *resultCache) Len() int { return c.lru.Len() }

// Purge clears all entries. Evictions are counted via the eviction callback.
func (c *resultCache) Purge() { c.lru.Purge() }

// Stats returns cumulative hit/miss/eviction counters.
func (c *resultCache) Stats() (hits, misses, evictions uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses), atomic.LoadUint64(&c.evictions)
}

// disabledCache implementation

func (d *disabledCache) Get(string) (domain.AnalysisResult, bool) {
	var zero domain.AnalysisResult
	return zero, false
}

func (d *disabledCache) Put(string, domain.AnalysisResult) {}

func (d *disabledCache) Len() int { return 0 }

func (d *disabledCache) Purge() {}

func (d *disabledCache) Stats() (uint64, uint64, uint64) { return 0, 0, 0 }

var _ analysis.ResultCache = (*resultCache)(nil)
var _ analysis.ResultCache = (*disabledCache)(nil)
