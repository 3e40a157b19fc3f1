package domain

import (
	"fmt"
	"time"
)

// AnalysisResult represents the outcome of classifying a URL against the
// signature rule list. Pure value type, no external dependencies.
type AnalysisResult struct {
	URLNormalized string    // canonical form the rules were matched against
	Confidence    float64   // 0.0 when no rule matched
	MatchedRule   string    // label of the first matching rule, empty when none matched
	Reason        string    // human-readable explanation of the score
	ComputedAt    time.Time // when the classification ran
}

// NewAnalysisResult constructs an AnalysisResult and validates its fields.
func NewAnalysisResult(urlNormalized string, confidence float64, matchedRule, reason string, computedAt time.Time) (AnalysisResult, error) {
	r := AnalysisResult{
		URLNormalized: urlNormalized,
		Confidence:    confidence,
		MatchedRule:   matchedRule,
		Reason:        reason,
		ComputedAt:    computedAt,
	}
	if err := r.Validate(); err != nil {
		return AnalysisResult{}, err
	}
	return r, nil
}

// Validate checks the AnalysisResult for supported values.
func (r AnalysisResult) Validate() error {
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence must be within [0, 1]: %v", r.Confidence)
	}
	if r.ComputedAt.IsZero() {
		return fmt.Errorf("result computedAt must be set")
	}
	return nil
}

// Matched reports whether any signature rule matched.
func (r AnalysisResult) Matched() bool { return r.MatchedRule != "" }
