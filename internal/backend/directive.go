package backend

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/turn-governor/internal/contract"
	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/lexicon"
)

// #region directive

// Directive returns the composition rules the policy imposes on the draft.
// Rules are ordered: output format first, then voice, then each policy field.
// They describe constraints only; the prompt wording around them is the caller's.
func Directive(d decision.Decision) []string {
	p := d.Routing.Policy.Clamp()
	var rules []string

	// Output format
	if d.Routing.Lead == decision.LeadN {
		rules = append(rules,
			fmt.Sprintf("Begin with %s containing one JSON object {\"focus\": string, \"steps\": [string], \"confidence\": 0-1}, closed by %s.",
				contract.NeuralOpen, contract.NeuralClose),
			fmt.Sprintf("Follow it with %s containing the reply in plain language, closed by %s.",
				contract.VeraOpen, contract.VeraClose))
	} else {
		rules = append(rules,
			fmt.Sprintf("Write only %s containing the reply in plain language, closed by %s. Emit no JSON.",
				contract.VeraOpen, contract.VeraClose))
	}

	// Voice
	if d.Routing.Lead == decision.LeadV {
		rules = append(rules, "Lead with warmth and steadiness before any content.")
	}

	switch p.Challenge {
	case decision.ChallengeNone:
		rules = append(rules, "Do not challenge, correct or push back.")
	case decision.ChallengeGentle:
		rules = append(rules, "Any challenge must be offered gently as a possibility.")
	case decision.ChallengeDirect:
		rules = append(rules, "Name the pattern plainly, once, without softening it.")
	}

	switch p.Pace {
	case decision.PaceSlow:
		rules = append(rules, "Use short, simple sentences. One idea per sentence.")
	case decision.PaceDirective:
		rules = append(rules, "Be brief and concrete. Prefer numbered next steps.")
	}

	switch p.Depth {
	case decision.DepthLight:
		rules = append(rules, "Stay with what the user said. Offer no interpretation.")
	case decision.DepthMedium:
		rules = append(rules, "Offer at most one interpretation, framed tentatively.")
	case decision.DepthDeep:
		rules = append(rules, "Interpretation is allowed, framed tentatively.")
	}

	if p.QuestionsAllowed == 0 {
		rules = append(rules, "Ask no questions.")
	} else {
		rules = append(rules, fmt.Sprintf("Ask at most %d question(s).", p.QuestionsAllowed))
	}
	if d.State.Arousal != decision.Regulated {
		rules = append(rules, "Do not ask why.")
	}
	if !p.SomaticAllowed {
		rules = append(rules, "Do not direct the user's body or breathing.")
	}

	switch p.MemoryUse {
	case decision.MemoryNone:
		rules = append(rules, "Do not refer to anything outside this message.")
	case decision.MemorySession:
		rules = append(rules, "Refer only to this conversation.")
	}

	rules = append(rules,
		"Never mention internal mechanics, labels or scoring.",
		"End with exactly one of: "+strings.Join(quoted(lexicon.AgencyClosings), " | "))
	return rules
}

func quoted(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = fmt.Sprintf("%q", l)
	}
	return out
}

// #endregion directive
