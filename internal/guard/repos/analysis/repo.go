package analysis

import (
	"github.com/linkfence/linkfence/internal/guard/common/urlnorm"
	"github.com/linkfence/linkfence/internal/guard/domain"
)

// repository implements Repository by composing a ResultCache and a Scorer.
// Reads apply a cache → scorer pipeline; misses are computed and stored.
type repository struct {
	cache  ResultCache
	scorer Scorer
}

// NewRepository constructs a Repository.
func NewRepository(scorer Scorer, cache ResultCache) Repository {
	return &repository{scorer: scorer, cache: cache}
}

// GetOrCompute returns the analysis result for rawURL, serving from cache
// when possible. Concurrent misses on the same key may both compute; the
// scorer is pure, so both arrive at the same result, and insertion is
// atomic per key. Entries are only ever displaced by LRU eviction.
func (r *repository) GetOrCompute(rawURL string) domain.AnalysisResult {
	key, _ := urlnorm.Normalize(rawURL)
	if res, ok := r.cache.Get(key); ok {
		return res
	}
	res := r.scorer.Analyze(rawURL)
	r.cache.Put(key, res)
	return res
}

// RepoStats returns cache counters and the current entry count.
func (r *repository) RepoStats() RepoStats {
	hits, misses, evictions := r.cache.Stats()
	return RepoStats{
		Hits:      hits,
		Misses:    misses,
		Evictions: evictions,
		Entries:   r.cache.Len(),
	}
}
