package domain

import (
	"fmt"
	"strings"
)

// Decision is the firewall's verdict on a single link-open event.
type Decision uint8

const (
	// DecisionAllow lets the link pass unremarked.
	DecisionAllow Decision = iota
	// DecisionBlock marks the link as bait; it is recorded in the block history.
	DecisionBlock
)

// String returns a stable string representation of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "ALLOW"
	case DecisionBlock:
		return "BLOCK"
	default:
		return fmt.Sprintf("Decision(%d)", d)
	}
}

// ParseDecision converts a string into a Decision.
// Accepts: "allow", "block" (case-insensitive).
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow":
		return DecisionAllow, nil
	case "block":
		return DecisionBlock, nil
	default:
		return 0, fmt.Errorf("unsupported Decision: %q", s)
	}
}

// IsValid returns true if the Decision is one of the supported values.
func (d Decision) IsValid() bool {
	return d == DecisionAllow || d == DecisionBlock
}
