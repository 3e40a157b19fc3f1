package analysis

import "github.com/linkfence/linkfence/internal/guard/domain"

// ResultCache caches analysis results by normalized URL with basic metrics.
type ResultCache interface {
	Get(key string) (domain.AnalysisResult, bool)
	Put(key string, r domain.AnalysisResult)
	Len() int
	Purge()
	Stats() (hits, misses, evictions uint64)
}

// Scorer computes an AnalysisResult for a raw URL. Implementations must be
// pure and deterministic so that duplicate computation under concurrent
// misses is harmless.
type Scorer interface {
	Analyze(rawURL string) domain.AnalysisResult
}

// RepoStats exposes repository-level cache counters.
type RepoStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
}

// Repository is the composition layer that wires cache → scorer.
type Repository interface {
	GetOrCompute(rawURL string) domain.AnalysisResult
	RepoStats() RepoStats
}
