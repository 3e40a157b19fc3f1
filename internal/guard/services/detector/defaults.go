package detector

import "github.com/linkfence/linkfence/internal/guard/domain"

// Default confidences for the built-in bait list: exact signatures score
// high, broad keyword heuristics lower.
const (
	DefaultSignatureConfidence = 0.95
	HeuristicConfidence        = 0.70
)

// heuristicLabel groups the keyword rules under one label, so verdicts
// report which class of rule fired rather than the keyword itself.
const heuristicLabel = "heuristic-keywords"

// DefaultSignatures returns the built-in ordered bait-signature list used
// when no rules file is configured. Exact signatures come first; the broad
// keyword heuristics follow so they only apply when nothing exact matched.
func DefaultSignatures() []domain.SignatureRule {
	exact := []string{
		"dQw4w9WgXcQ",
		"rickroll",
		"rick-roll",
		"never-gonna-give-you-up",
		"rick_astley",
		"youtu.be/dQw4w9WgXcQ",
		"youtube.com/watch?v=dQw4w9WgXcQ",
		"youtube.com/embed/dQw4w9WgXcQ",
		"tiktok.com/@rickastley",
	}
	keywords := []string{"rick", "astley", "never gonna"}

	rules := make([]domain.SignatureRule, 0, len(exact)+len(keywords))
	for _, p := range exact {
		rules = append(rules, domain.SignatureRule{
			Pattern:    p,
			Confidence: DefaultSignatureConfidence,
			Label:      p,
		})
	}
	for _, kw := range keywords {
		rules = append(rules, domain.SignatureRule{
			Pattern:    kw,
			Confidence: HeuristicConfidence,
			Label:      heuristicLabel,
		})
	}
	return rules
}
