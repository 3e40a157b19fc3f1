package domain

import "fmt"

// Verdict couples a link-open event with its analysis result and the
// firewall's decision. Verdicts for blocked links are retained in the
// block history.
type Verdict struct {
	Event    LinkOpenEvent
	Result   AnalysisResult
	Decision Decision
	Reason   string
}

// NewVerdict constructs a Verdict and validates its fields.
func NewVerdict(event LinkOpenEvent, result AnalysisResult, decision Decision, reason string) (Verdict, error) {
	v := Verdict{
		Event:    event,
		Result:   result,
		Decision: decision,
		Reason:   reason,
	}
	if err := v.Validate(); err != nil {
		return Verdict{}, err
	}
	return v, nil
}

// Validate checks the Verdict and its nested values.
func (v Verdict) Validate() error {
	if err := v.Event.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}
	if err := v.Result.Validate(); err != nil {
		return fmt.Errorf("invalid result: %w", err)
	}
	if !v.Decision.IsValid() {
		return fmt.Errorf("unsupported Decision: %d", v.Decision)
	}
	return nil
}

// Blocked is a convenience accessor.
func (v Verdict) Blocked() bool { return v.Decision == DecisionBlock }
