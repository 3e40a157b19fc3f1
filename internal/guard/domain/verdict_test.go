package domain

import (
	"testing"
	"time"
)

func validEvent(t *testing.T) LinkOpenEvent {
	t.Helper()
	e, err := NewLinkOpenEvent("https://youtu.be/dQw4w9WgXcQ", time.Now(), 512)
	if err != nil {
		t.Fatalf("fixture event: %v", err)
	}
	return e
}

func validResult(t *testing.T, confidence float64, rule string) AnalysisResult {
	t.Helper()
	r, err := NewAnalysisResult("https://youtu.be/dqw4w9wgxcq", confidence, rule, "", time.Now())
	if err != nil {
		t.Fatalf("fixture result: %v", err)
	}
	return r
}

func TestNewVerdict_Valid(t *testing.T) {
	v, err := NewVerdict(validEvent(t), validResult(t, 0.95, "rickroll-short-link"), DecisionBlock, "confidence above threshold")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Blocked() {
		t.Errorf("Blocked() = false, want true")
	}
	if v.Reason != "confidence above threshold" {
		t.Errorf("Reason = %q", v.Reason)
	}
}

func TestNewVerdict_Allow(t *testing.T) {
	v, err := NewVerdict(validEvent(t), validResult(t, 0.0, ""), DecisionAllow, "no signature matched")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Blocked() {
		t.Errorf("Blocked() = true, want false")
	}
}

func TestNewVerdict_Invalid(t *testing.T) {
	event := validEvent(t)
	result := validResult(t, 0.5, "r")

	_, err := NewVerdict(LinkOpenEvent{}, result, DecisionAllow, "")
	if err == nil {
		t.Errorf("expected error for invalid event")
	}

	_, err = NewVerdict(event, AnalysisResult{Confidence: 2.0}, DecisionAllow, "")
	if err == nil {
		t.Errorf("expected error for invalid result")
	}

	_, err = NewVerdict(event, result, Decision(9), "")
	if err == nil {
		t.Errorf("expected error for unsupported decision")
	}
}
