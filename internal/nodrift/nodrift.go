package nodrift

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/lexicon"
)

// #region validator
// Validator is the last check on compiled text. It never repairs: a response
// either passes unchanged or is replaced by the fallback line.
type Validator struct {
	config Config
}

// New creates a validator with the given configuration.
func New(config Config) *Validator {
	return &Validator{config: config}
}

// Evaluate runs every hard veto against text under the decision's policy.
func (v *Validator) Evaluate(text string, d decision.Decision) Verdict {
	var vetoes []VetoSignal
	trimmed := strings.TrimSpace(text)
	p := d.Routing.Policy.Clamp()

	// 1. Empty output
	if trimmed == "" {
		vetoes = append(vetoes, VetoSignal{Type: VetoEmpty, Reason: "output is empty"})
	}

	// 2. Internal vocabulary
	if leaks := lexicon.Leaks(trimmed); len(leaks) > 0 {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoLeak,
			Reason: fmt.Sprintf("internal terms present: %s", strings.Join(leaks, ", ")),
		})
	}

	// 3. Structured output leaking through
	if jsonShaped(trimmed) {
		vetoes = append(vetoes, VetoSignal{Type: VetoJSON, Reason: "output is JSON-shaped"})
	}

	// 4. Question budget
	if n := strings.Count(trimmed, "?"); n > p.QuestionsAllowed {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoQuestionBudget,
			Reason: fmt.Sprintf("%d questions exceed budget %d", n, p.QuestionsAllowed),
		})
	}

	sentences := lexicon.Split(trimmed)

	// 5. Insight delivered to a fragile state
	if d.State.Arousal.Fragile() && anySentence(sentences, lexicon.IsInsight) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoFragileInsight,
			Reason: fmt.Sprintf("insight delivered while %s", d.State.Arousal),
		})
	}

	// 6. Why-questions outside the regulated state
	if d.State.Arousal != decision.Regulated && anySentence(sentences, lexicon.IsWhyQuestion) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoWhyQuestion,
			Reason: fmt.Sprintf("why-question while %s", d.State.Arousal),
		})
	}

	// 7. Somatic commands when the policy forbids them
	if !p.SomaticAllowed && lexicon.SomaticCommandPattern.MatchString(trimmed) {
		vetoes = append(vetoes, VetoSignal{Type: VetoSomatic, Reason: "somatic command while disallowed"})
	}

	if len(vetoes) > 0 {
		return Verdict{
			Action:  "block",
			Reason:  fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Blocked: true,
			Vetoes:  vetoes,
			Text:    v.config.Fallback,
		}
	}
	return Verdict{Action: "pass", Reason: "passed no-drift check", Text: text}
}

// #endregion validator

// #region helpers
func jsonShaped(s string) bool {
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return false
	}
	return json.Valid([]byte(s)) || strings.Contains(s, `":`)
}

func anySentence(sentences []string, pred func(string) bool) bool {
	for _, s := range sentences {
		if pred(s) {
			return true
		}
	}
	return false
}

// #endregion helpers
