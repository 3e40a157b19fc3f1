package analysis

import (
	"testing"
	"time"

	"github.com/linkfence/linkfence/internal/guard/domain"
)

// stubCache is an in-memory ResultCache for exercising the repository.
type stubCache struct {
	entries map[string]domain.AnalysisResult
	hits    uint64
	misses  uint64
	puts    int
}

func newStubCache() *stubCache {
	return &stubCache{entries: map[string]domain.AnalysisResult{}}
}

func (s *stubCache) Get(key string) (domain.AnalysisResult, bool) {
	r, ok := s.entries[key]
	if ok {
		s.hits++
	} else {
		s.misses++
	}
	return r, ok
}

func (s *stubCache) Put(key string, r domain.AnalysisResult) {
	s.puts++
	s.entries[key] = r
}

func (s *stubCache) Len() int { return len(s.entries) }

func (s *stubCache) Purge() { s.entries = map[string]domain.AnalysisResult{} }

func (s *stubCache) Stats() (uint64, uint64, uint64) { return s.hits, s.misses, 0 }

// neverCache misses on every lookup and stores nothing, like the disabled cache.
type neverCache struct{}

func (neverCache) Get(string) (domain.AnalysisResult, bool) { return domain.AnalysisResult{}, false }
func (neverCache) Put(string, domain.AnalysisResult)        {}
func (neverCache) Len() int                                 { return 0 }
func (neverCache) Purge()                                   {}
func (neverCache) Stats() (uint64, uint64, uint64)          { return 0, 0, 0 }

// countingScorer counts Analyze invocations and returns a fixed match.
type countingScorer struct {
	calls int
}

func (c *countingScorer) Analyze(rawURL string) domain.AnalysisResult {
	c.calls++
	return domain.AnalysisResult{
		URLNormalized: rawURL,
		Confidence:    0.95,
		MatchedRule:   "stub-rule",
		ComputedAt:    time.Unix(1700000000, 0),
	}
}

func TestRepository_MissComputesAndStores(t *testing.T) {
	cache := newStubCache()
	scorer := &countingScorer{}
	repo := NewRepository(scorer, cache)

	got := repo.GetOrCompute("https://example.com/a")
	if got.MatchedRule != "stub-rule" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if scorer.calls != 1 {
		t.Fatalf("scorer calls = %d, want 1", scorer.calls)
	}
	if cache.puts != 1 {
		t.Fatalf("cache puts = %d, want 1", cache.puts)
	}
}

func TestRepository_HitSkipsScorer(t *testing.T) {
	cache := newStubCache()
	scorer := &countingScorer{}
	repo := NewRepository(scorer, cache)

	first := repo.GetOrCompute("https://example.com/a")
	second := repo.GetOrCompute("https://example.com/a")

	if scorer.calls != 1 {
		t.Fatalf("scorer calls = %d, want 1 (second lookup must be served from cache)", scorer.calls)
	}
	if first != second {
		t.Fatalf("cached result differs: %+v vs %+v", first, second)
	}
}

func TestRepository_NormalizedKeySharedAcrossVariants(t *testing.T) {
	cache := newStubCache()
	scorer := &countingScorer{}
	repo := NewRepository(scorer, cache)

	repo.GetOrCompute("HTTPS://EXAMPLE.COM/a")
	repo.GetOrCompute("https://example.com/a#fragment")
	repo.GetOrCompute("  https://example.com/a  ")

	if scorer.calls != 1 {
		t.Fatalf("scorer calls = %d, want 1 (variants normalize to the same key)", scorer.calls)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache entries = %d, want 1", cache.Len())
	}
}

func TestRepository_DisabledCacheAlwaysRecomputes(t *testing.T) {
	scorer := &countingScorer{}
	repo := NewRepository(scorer, neverCache{})

	repo.GetOrCompute("https://example.com/a")
	repo.GetOrCompute("https://example.com/a")

	if scorer.calls != 2 {
		t.Fatalf("scorer calls = %d, want 2 with caching disabled", scorer.calls)
	}
}

func TestRepository_RepoStats(t *testing.T) {
	cache := newStubCache()
	scorer := &countingScorer{}
	repo := NewRepository(scorer, cache)

	repo.GetOrCompute("https://example.com/a") // miss
	repo.GetOrCompute("https://example.com/a") // hit
	repo.GetOrCompute("https://example.com/b") // miss

	stats := repo.RepoStats()
	if stats.Hits != 1 || stats.Misses != 2 {
		t.Fatalf("stats = %+v, want hits=1 misses=2", stats)
	}
	if stats.Entries != 2 {
		t.Fatalf("entries = %d, want 2", stats.Entries)
	}
}
