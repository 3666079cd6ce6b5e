package failure

import (
	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/policy"
)

// Apply returns a copy of d with the event's routing actions applied.
// Actions only restrict; text-level actions (fallback substitution, logging)
// are left to the caller.
func Apply(d decision.Decision, ev decision.FailureEvent) decision.Decision {
	out := d.Clone()
	if !ev.Triggered() {
		return out
	}
	p := &out.Routing.Policy
	for _, a := range ev.Actions {
		switch a {
		case ActionSessionLock:
			tier := p.Tier
			out.Routing = policy.Containment(policy.RuleFallbackLock)
			out.Routing.Policy.Tier = tier
			p = &out.Routing.Policy
		case ActionForceLeadV:
			out.Routing.Lead = decision.LeadV
			out.Routing.Support = []decision.Lead{}
		case ActionLockSafety:
			p.ModelOverride = decision.BackendSafety
		case ActionSuppressChallenge:
			p.Challenge = decision.ChallengeNone
		case ActionZeroQuestions:
			p.QuestionsAllowed = 0
		case ActionOneQuestion:
			p.QuestionsAllowed = min(p.QuestionsAllowed, 1)
		case ActionSlowPace:
			p.Pace = decision.PaceSlow
		case ActionLightDepth:
			p.Depth = decision.DepthLight
		case ActionNoMemory:
			p.MemoryUse = decision.MemoryNone
		case ActionDropLowBand:
			kept := []decision.CodeHit{}
			for _, c := range out.Codes {
				if c.Band != decision.B1 {
					kept = append(kept, c)
				}
			}
			out.Codes = kept
		}
	}
	p.Notes += ";failure:" + string(ev.Mode)
	*p = p.Clamp()
	return out
}

// Substitutes reports whether the event requires replacing the response text.
func Substitutes(ev decision.FailureEvent) bool {
	for _, a := range ev.Actions {
		if a == ActionSubstituteFallback {
			return true
		}
	}
	return false
}
