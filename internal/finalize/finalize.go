package finalize

import (
	"strings"

	"github.com/danielpatrickdp/turn-governor/internal/contract"
	"github.com/danielpatrickdp/turn-governor/internal/lexicon"
)

// Reasons a finalization fails.
const (
	ReasonEmpty          = "empty_after_strip"
	ReasonMissingClosing = "missing_agency_closing"
	ReasonFallback       = "fallback_substituted"
)

// Result is the user-facing text. When Passed is false, Text is the safety fallback.
type Result struct {
	Text   string `json:"text"`
	Passed bool   `json:"finalize_passed"`
	Reason string `json:"reason,omitempty"`
}

// Finalize strips internal delimiters and, with inBandAssist, requires the last
// non-empty line to end with one of the agency closings.
func Finalize(text string, inBandAssist bool) Result {
	out := strings.TrimSpace(contract.Strip(text))
	if out == "" {
		return Result{Text: lexicon.SafetyFallback, Reason: ReasonEmpty}
	}
	if inBandAssist && !lexicon.EndsWithClosing(out) {
		return Result{Text: lexicon.SafetyFallback, Reason: ReasonMissingClosing}
	}
	return Result{Text: out, Passed: true}
}
