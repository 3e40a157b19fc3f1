package firewall

import "github.com/linkfence/linkfence/internal/guard/domain"

// Analysis provides cached URL classification.
type Analysis interface {
	GetOrCompute(rawURL string) domain.AnalysisResult
}

// BlockLog records verdicts for blocked links and exposes the retained trail.
type BlockLog interface {
	Append(v domain.Verdict)
	Snapshot() []domain.Verdict
	SiteCounts() map[string]int
}
