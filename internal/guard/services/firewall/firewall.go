// Package firewall turns link-open events into allow/block verdicts.
package firewall

import (
	"fmt"

	"github.com/linkfence/linkfence/internal/guard/common/log"
	"github.com/linkfence/linkfence/internal/guard/common/urlnorm"
	"github.com/linkfence/linkfence/internal/guard/domain"
)

// Firewall evaluates link-open events against the analysis pipeline and
// records blocked attempts. Safe for concurrent use: the block log append
// is the only shared mutation and the log serializes it.
type Firewall struct {
	analysis  Analysis
	history   BlockLog
	threshold float64
	logger    log.Logger
}

// Options configure a Firewall.
type Options struct {
	Analysis  Analysis
	History   BlockLog
	Threshold float64    // block when confidence >= Threshold
	Logger    log.Logger // nil uses the package global
}

// New constructs a Firewall.
func New(opts Options) *Firewall {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Firewall{
		analysis:  opts.Analysis,
		history:   opts.History,
		threshold: opts.Threshold,
		logger:    logger,
	}
}

// Evaluate scores the event's URL and returns a verdict. A blocked verdict
// is appended to the block log and logged; evaluation has no other side
// effects.
func (f *Firewall) Evaluate(event domain.LinkOpenEvent) domain.Verdict {
	result := f.analysis.GetOrCompute(event.URL)

	verdict := domain.Verdict{
		Event:  event,
		Result: result,
	}
	if result.Confidence >= f.threshold {
		verdict.Decision = domain.DecisionBlock
		verdict.Reason = fmt.Sprintf("confidence %.2f >= threshold %.2f: %s", result.Confidence, f.threshold, result.Reason)
	} else {
		verdict.Decision = domain.DecisionAllow
		verdict.Reason = fmt.Sprintf("confidence %.2f < threshold %.2f", result.Confidence, f.threshold)
	}

	if verdict.Blocked() {
		f.history.Append(verdict)
		f.logger.Warn(map[string]any{
			"url":        event.URL,
			"site":       urlnorm.Site(event.URL),
			"rule":       result.MatchedRule,
			"confidence": result.Confidence,
		}, "blocked bait link")
	}
	return verdict
}

// History returns the retained block verdicts, oldest first.
func (f *Firewall) History() []domain.Verdict {
	return f.history.Snapshot()
}

// SiteCounts returns blocked-verdict tallies per registrable site.
func (f *Firewall) SiteCounts() map[string]int {
	return f.history.SiteCounts()
}

// Threshold returns the configured block threshold.
func (f *Firewall) Threshold() float64 { return f.threshold }
