package policy

import (
	"strings"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/lexicon"
	"github.com/danielpatrickdp/turn-governor/internal/signals"
)

// #region readiness

// Readiness blends state confidence with how settled the arousal state is.
// A heuristic gate for interpretive depth, not a measured quantity.
func Readiness(st decision.State) float64 {
	factor := 0.2
	switch st.Arousal {
	case decision.Regulated:
		factor = 1.0
	case decision.Activated:
		factor = 0.6
	}
	return 0.6*st.Confidence + 0.4*factor
}

// #endregion readiness

// #region loop

// LoopDetected reports a repetition loop: the current turn reads as circular,
// or at least minRepeats of the last window user turns overlap it heavily.
func LoopDetected(text string, history []decision.Message, circular float64, cfg Config) bool {
	if circular >= cfg.LoopCircular {
		return true
	}
	cur := signals.ContentWords(text)
	if len(cur) == 0 {
		return false
	}
	repeats, seen := 0, 0
	for i := len(history) - 1; i >= 0 && seen < cfg.LoopWindow; i-- {
		if history[i].Role != decision.RoleUser {
			continue
		}
		seen++
		if signals.Jaccard(cur, signals.ContentWords(history[i].Content)) >= cfg.LoopOverlap {
			repeats++
		}
	}
	return repeats >= cfg.LoopMinRepeats
}

// #endregion loop

// #region post-insight

// DeliveredInsight reports whether an assistant message carries an interpretive insight.
func DeliveredInsight(content string) bool {
	for _, s := range lexicon.Split(content) {
		if lexicon.IsInsight(s) {
			return true
		}
	}
	return false
}

// Distressed reports whether a user message carries distress markers or push-back.
func Distressed(text string) bool {
	lower := lexicon.Normalize(text)
	if lexicon.Any(lower, lexicon.PushBack) {
		return true
	}
	for _, f := range lexicon.DistressFamilies {
		if lexicon.Any(lower, lexicon.Markers[f]) {
			return true
		}
	}
	return false
}

// PostInsightDistress reports distress in text immediately after an assistant
// message that delivered insight.
func PostInsightDistress(text string, history []decision.Message) bool {
	if len(history) == 0 {
		return false
	}
	last := history[len(history)-1]
	if last.Role != decision.RoleAssistant {
		return false
	}
	return DeliveredInsight(last.Content) && Distressed(text)
}

// #endregion post-insight

// #region fallbacks

// FallbackCount counts fixed fallback replies among the last window assistant messages.
func FallbackCount(history []decision.Message, window int) int {
	n, seen := 0, 0
	for i := len(history) - 1; i >= 0 && seen < window; i-- {
		if history[i].Role != decision.RoleAssistant {
			continue
		}
		seen++
		if lexicon.IsFallbackText(strings.TrimSpace(history[i].Content)) {
			n++
		}
	}
	return n
}

// #endregion fallbacks
