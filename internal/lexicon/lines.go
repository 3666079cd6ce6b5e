package lexicon

import "strings"

// #region fixed-lines

// AgencyClosings are the agency-preserving closing lines. The finalizer's
// in-band-assist check accepts exactly these.
var AgencyClosings = []string{
	"You can take this at whatever pace feels right.",
	"You get to decide what feels useful here.",
	"Whatever you choose next is yours to choose.",
}

// CompilerFallbacks replace a draft the compiler could not bring into compliance.
var CompilerFallbacks = []string{
	"Let's slow down and stay with what feels most important to you.",
	"I'm here with you, and we can take this one small step at a time.",
	"We can pause here and come back to this whenever you're ready.",
}

// SafetyFallback is the minimal line substituted by the no-drift check and the finalizer.
const SafetyFallback = "I'm here, and we can go as slowly as you need."

// NeutralWhy replaces a "why" question asked outside the regulated state.
const NeutralWhy = "It may help to look at what feels most present for you."

// #endregion fixed-lines

// #region recognizers

// IsClosing reports whether sentence is one of the agency closings.
func IsClosing(sentence string) bool {
	s := strings.TrimSpace(sentence)
	for _, c := range AgencyClosings {
		if s == c {
			return true
		}
	}
	return false
}

// EndsWithClosing reports whether the last non-empty line of text ends with an agency closing.
func EndsWithClosing(text string) bool {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		for _, c := range AgencyClosings {
			if strings.HasSuffix(line, c) {
				return true
			}
		}
		return false
	}
	return false
}

// IsFallbackText reports whether text is exactly one of the fixed fallback lines.
func IsFallbackText(text string) bool {
	s := strings.TrimSpace(text)
	if s == SafetyFallback {
		return true
	}
	for _, f := range CompilerFallbacks {
		if s == f {
			return true
		}
	}
	return false
}

// #endregion recognizers
