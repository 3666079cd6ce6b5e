package intent

// #region imports
import (
	"strings"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/lexicon"
)

// #endregion

// #region tables

type table struct {
	intent  decision.PrimaryIntent
	phrases []string
}

// tables is ordered by tie-break precedence: on equal hit counts the earlier entry wins.
var tables = []table{
	{decision.IntentSomatic, lexicon.IntentSomatic},
	{decision.IntentEmotion, lexicon.IntentEmotion},
	{decision.IntentIdentity, lexicon.IntentIdentity},
	{decision.IntentRelationship, lexicon.IntentRelationship},
	{decision.IntentVisibility, lexicon.IntentVisibility},
	{decision.IntentMeaning, lexicon.IntentMeaning},
	{decision.IntentTask, lexicon.IntentTask},
}

// #endregion

// #region classify

// Classify maps a user message to one primary intent plus secondary tags via
// keyword heuristics. No model call. prev carries the previous user turn's
// intent for follow-up inheritance.
func Classify(text string, prev ...decision.Intent) decision.Intent {
	lower := lexicon.Normalize(strings.TrimSpace(text))
	words := strings.Fields(lower)

	var secondary []string
	if lexicon.Any(lower, lexicon.DirectnessRequests) {
		secondary = append(secondary, decision.TagDirectnessRequest)
	}
	if lexicon.Any(lower, lexicon.ExecutionRequests) {
		secondary = append(secondary, decision.TagExecutionRequest)
	}
	if strings.Contains(lower, "?") {
		secondary = append(secondary, decision.TagQuestion)
	}

	// Crisis language wins outright.
	if lexicon.Any(lower, lexicon.Crisis) {
		return decision.Intent{Primary: decision.IntentCrisis, Secondary: append(secondary, hitIntents(lower, "")...)}
	}

	primary, best := decision.IntentTask, 0
	for _, t := range tables {
		if n := lexicon.Count(lower, t.phrases); n > best {
			primary, best = t.intent, n
		}
	}

	// Context inheritance: short follow-ups with no hits of their own keep the previous topic.
	if best == 0 && len(prev) > 0 && len(words) <= 8 && isFollowUp(lower) {
		if p := prev[0].Primary; p != "" && p != decision.IntentCrisis {
			primary = p
		}
	}

	return decision.Intent{
		Primary:   primary,
		Secondary: append(secondary, hitIntents(lower, primary)...),
	}
}

// hitIntents lists every intent other than skip that has at least one hit, in table order.
func hitIntents(lower string, skip decision.PrimaryIntent) []string {
	var out []string
	for _, t := range tables {
		if t.intent == skip {
			continue
		}
		if lexicon.Any(lower, t.phrases) {
			out = append(out, string(t.intent))
		}
	}
	return out
}

// #endregion

// #region follow-up-detection

func isFollowUp(lower string) bool {
	for _, fw := range lexicon.FollowUpOpeners {
		if strings.HasPrefix(lower, fw+" ") || strings.HasPrefix(lower, fw+"?") || lower == fw {
			return true
		}
	}
	// Bare question prompts ("?", "why?", "how so?")
	if strings.HasSuffix(lower, "?") && len(strings.Fields(lower)) <= 3 {
		return true
	}
	return false
}

// #endregion
