// Package detector scores URLs against an ordered bait-signature list.
package detector

import (
	"fmt"
	"strings"

	"github.com/linkfence/linkfence/internal/guard/common/clock"
	"github.com/linkfence/linkfence/internal/guard/common/urlnorm"
	"github.com/linkfence/linkfence/internal/guard/domain"
)

// Detector classifies URLs against a signature rule list fixed at
// construction. Analyze is pure and deterministic: the first matching rule
// wins, ties broken by list order. Changing the rule set means constructing
// a new Detector.
type Detector struct {
	rules    []domain.SignatureRule
	patterns []string // case-folded patterns, same order as rules
	clk      clock.Clock
}

// New constructs a Detector from an ordered rule list. Every rule is
// validated; an empty list is legal and matches nothing. A nil clock
// defaults to the real clock.
func New(rules []domain.SignatureRule, clk clock.Clock) (*Detector, error) {
	if clk == nil {
		clk = clock.RealClock{}
	}
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("invalid signature rule at index %d: %w", i, err)
		}
	}

	d := &Detector{
		rules:    make([]domain.SignatureRule, len(rules)),
		patterns: make([]string, len(rules)),
		clk:      clk,
	}
	copy(d.rules, rules)
	for i, r := range rules {
		d.patterns[i] = strings.ToLower(r.Pattern)
	}
	return d, nil
}

// Analyze classifies rawURL against the signature list. It never returns an
// error and never panics: unparsable input scores 0.0 with reason
// "unparsable". Matching is a case-insensitive substring test on the
// normalized URL.
func (d *Detector) Analyze(rawURL string) domain.AnalysisResult {
	normalized, ok := urlnorm.Normalize(rawURL)
	now := d.clk.Now()

	if !ok {
		return domain.AnalysisResult{
			URLNormalized: normalized,
			Confidence:    0.0,
			Reason:        "unparsable",
			ComputedAt:    now,
		}
	}

	candidate := strings.ToLower(normalized)
	for i, pattern := range d.patterns {
		if strings.Contains(candidate, pattern) {
			rule := d.rules[i]
			return domain.AnalysisResult{
				URLNormalized: normalized,
				Confidence:    rule.Confidence,
				MatchedRule:   rule.Label,
				Reason:        fmt.Sprintf("matched signature: %s", rule.Label),
				ComputedAt:    now,
			}
		}
	}

	return domain.AnalysisResult{
		URLNormalized: normalized,
		Confidence:    0.0,
		Reason:        "no signature matched",
		ComputedAt:    now,
	}
}

// Size returns the number of rules the detector matches against.
func (d *Detector) Size() int { return len(d.rules) }
