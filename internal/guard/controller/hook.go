// Package controller connects the event dispatcher to the firewall. It
// replaces annotation-driven hook discovery with one explicit registration
// call made during startup.
package controller

import (
	"fmt"

	"github.com/linkfence/linkfence/internal/guard/common/log"
	"github.com/linkfence/linkfence/internal/guard/common/urlnorm"
	"github.com/linkfence/linkfence/internal/guard/domain"
	"github.com/linkfence/linkfence/internal/guard/services/dispatch"
)

// Bus is the subscription surface of the event dispatcher.
type Bus interface {
	Subscribe(h dispatch.Handler) (string, error)
}

// Evaluator produces a verdict for one link event.
type Evaluator interface {
	Evaluate(event domain.LinkOpenEvent) domain.Verdict
}

// VerdictFunc receives verdicts selected by Options.
type VerdictFunc func(domain.Verdict)

// Options tunes the registered hook. The zero value logs every verdict and
// forwards only blocked ones to OnVerdict.
type Options struct {
	// OnVerdict, when set, is called with every blocked verdict, and with
	// allowed verdicts too when IncludeAllowed is set. A panic inside the
	// callback is contained and logged.
	OnVerdict VerdictFunc

	// IncludeAllowed forwards ALLOW verdicts to OnVerdict as well.
	IncludeAllowed bool

	// Logger defaults to the package-global logger.
	Logger log.Logger
}

// RegisterLinkHook subscribes a handler that runs every published link event
// through the firewall and logs the verdict, blocked at info and allowed at
// debug. It returns the subscription token so the caller can unsubscribe.
func RegisterLinkHook(bus Bus, fw Evaluator, opts Options) (string, error) {
	if bus == nil {
		return "", fmt.Errorf("link hook requires a bus")
	}
	if fw == nil {
		return "", fmt.Errorf("link hook requires an evaluator")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}

	handler := func(event domain.LinkOpenEvent) {
		verdict := fw.Evaluate(event)

		if verdict.Blocked() {
			logger.Info(map[string]any{
				"url":        event.URL,
				"site":       urlnorm.Site(event.URL),
				"rule":       verdict.Result.MatchedRule,
				"confidence": verdict.Result.Confidence,
			}, "blocked rickroll attempt")
		} else {
			logger.Debug(map[string]any{
				"url":        event.URL,
				"confidence": verdict.Result.Confidence,
			}, "allowed link")
		}

		if opts.OnVerdict == nil {
			return
		}
		if !verdict.Blocked() && !opts.IncludeAllowed {
			return
		}
		invokeCallback(logger, opts.OnVerdict, verdict)
	}

	token, err := bus.Subscribe(handler)
	if err != nil {
		return "", fmt.Errorf("registering link hook: %w", err)
	}
	return token, nil
}

// invokeCallback shields the subscription from a panicking callback.
func invokeCallback(logger log.Logger, fn VerdictFunc, v domain.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(map[string]any{
				"url":   v.Event.URL,
				"panic": fmt.Sprintf("%v", r),
			}, "link hook callback failed")
		}
	}()
	fn(v)
}
