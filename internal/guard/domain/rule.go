package domain

import (
	"fmt"
	"strings"
)

// SignatureRule is one element of the ordered bait-signature list.
//
// Notes:
// - Pattern is matched as a case-insensitive substring of the normalized URL.
// - List order is significant: the first matching rule wins.
// - Label identifies the rule in verdicts and logs.
type SignatureRule struct {
	Pattern    string  `koanf:"pattern" json:"pattern"`
	Confidence float64 `koanf:"confidence" json:"confidence"`
	Label      string  `koanf:"label" json:"label"`
}

// NewSignatureRule constructs a SignatureRule and validates its fields.
func NewSignatureRule(pattern string, confidence float64, label string) (SignatureRule, error) {
	r := SignatureRule{
		Pattern:    strings.TrimSpace(pattern),
		Confidence: confidence,
		Label:      strings.TrimSpace(label),
	}
	if err := r.Validate(); err != nil {
		return SignatureRule{}, err
	}
	return r, nil
}

// Validate checks the SignatureRule for required fields and supported values.
func (r SignatureRule) Validate() error {
	if r.Pattern == "" {
		return fmt.Errorf("rule pattern must not be empty")
	}
	if r.Label == "" {
		return fmt.Errorf("rule label must not be empty")
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("rule confidence must be within [0, 1]: %v", r.Confidence)
	}
	return nil
}
