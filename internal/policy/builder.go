package policy

import (
	"strings"

	"github.com/danielpatrickdp/turn-governor/internal/band"
	"github.com/danielpatrickdp/turn-governor/internal/decision"
)

// #region builder

// Builder derives the per-turn routing and policy. It holds no session state.
type Builder struct {
	config Config
}

// NewBuilder creates a Builder.
func NewBuilder(config Config) *Builder {
	return &Builder{config: config}
}

// Build runs the waterfall. The first matching rule wins; tier adjustments follow.
func (b *Builder) Build(in Input) decision.Routing {
	r, containment := b.waterfall(in)
	if !containment {
		r = b.adjustTier(r, in)
	}
	r.Policy.Tier = in.Tier
	r.Policy = r.Policy.Clamp()
	return r
}

// Containment returns the most protective routing: VERA-led, no challenge,
// slow and light, no questions, no memory, safety backend.
func Containment(note string) decision.Routing {
	return decision.Routing{
		Lead:    decision.LeadV,
		Support: []decision.Lead{},
		Policy: decision.Policy{
			Challenge:        decision.ChallengeNone,
			Pace:             decision.PaceSlow,
			Depth:            decision.DepthLight,
			QuestionsAllowed: 0,
			SomaticAllowed:   false,
			MemoryUse:        decision.MemoryNone,
			ModelOverride:    decision.BackendSafety,
			Notes:            note,
		},
	}
}

// #endregion builder

// #region waterfall

func (b *Builder) waterfall(in Input) (decision.Routing, bool) {
	// 1. Crisis intent
	if in.Intent.Primary == decision.IntentCrisis {
		return Containment(RuleCrisis), true
	}

	// 2. Distress right after delivered insight
	if PostInsightDistress(in.Text, in.History) {
		return Containment(RulePostInsight), true
	}

	// 3. Repeated fallbacks lock the session to containment
	if FallbackCount(in.History, b.config.FallbackWindow) >= b.config.FallbackLockCount {
		return Containment(RuleFallbackLock), true
	}

	// 4. Low or ambiguous confidence
	maxCode := maxConfidence(in.Codes)
	if in.State.Confidence < b.config.LowConfidence ||
		(in.State.Has(decision.TagStateAmbiguous) && maxCode < b.config.AmbiguousCodeFloor) {
		r := Containment(RuleLowConfidence)
		r.Policy.QuestionsAllowed = 1
		return r, true
	}

	// 5. Fragile arousal
	if in.State.Arousal.Fragile() {
		return regulating(RuleFragile, true), false
	}

	// 6. Activated
	if in.State.Arousal == decision.Activated {
		r := cognitive(RuleActivated, decision.ChallengeNone, decision.PaceSlow, decision.DepthLight, 1)
		if band.HasTableBand(in.Codes, decision.B4) {
			r = regulating(RuleActivated, false)
		}
		return r, false
	}

	dominant := band.Dominant(in.Codes)
	switch dominant {
	// 7. Protective bands
	case decision.B3:
		r := regulating(RuleProtectiveBand, true)
		return r, false
	case decision.B2:
		r := cognitive(RuleProtectiveBand, decision.ChallengeNone, decision.PaceNormal, decision.DepthMedium, 1)
		return b.readinessGate(r, in.State), false

	// 8. Anticipation loop
	case decision.B5:
		r := b.gatedChallenge(RuleAnticipation, in, 1)
		return r, false

	// 9. Cognitive/strategic
	case decision.B1:
		r := b.gatedChallenge(RuleCognitive, in, 2)
		return b.readinessGate(r, in.State), false
	}

	// 10. Unknown band
	r := regulating(RuleUnknownBand, false)
	r.Support = []decision.Lead{decision.LeadN}
	r.Policy.ModelOverride = decision.BackendSafety
	return r, false
}

// gatedChallenge allows gentle challenge, escalating to direct challenge at a
// directive pace only on a detected loop or an explicit ask for directness.
func (b *Builder) gatedChallenge(note string, in Input, questions int) decision.Routing {
	r := cognitive(note, decision.ChallengeGentle, decision.PaceNormal, decision.DepthMedium, questions)
	loop := LoopDetected(in.Text, in.History, in.Circular, b.config)
	asked := in.Intent.HasTag(decision.TagDirectnessRequest)
	if loop || asked {
		r.Policy.Challenge = decision.ChallengeDirect
		r.Policy.Pace = decision.PaceDirective
		if loop {
			r.Policy.Notes += ";loop"
		}
		if asked {
			r.Policy.Notes += ";directness"
		}
	}
	return r
}

func (b *Builder) readinessGate(r decision.Routing, st decision.State) decision.Routing {
	if Readiness(st) < b.config.ReadinessGate {
		r.Policy.Depth = decision.DepthLight
		r.Policy.Notes += ";readiness_gate"
	}
	return r
}

func regulating(note string, somatic bool) decision.Routing {
	return decision.Routing{
		Lead:    decision.LeadV,
		Support: []decision.Lead{},
		Policy: decision.Policy{
			Challenge:        decision.ChallengeNone,
			Pace:             decision.PaceSlow,
			Depth:            decision.DepthLight,
			QuestionsAllowed: 1,
			SomaticAllowed:   somatic,
			Notes:            note,
		},
	}
}

func cognitive(note string, c decision.Challenge, p decision.Pace, d decision.Depth, questions int) decision.Routing {
	return decision.Routing{
		Lead:    decision.LeadN,
		Support: []decision.Lead{decision.LeadV},
		Policy: decision.Policy{
			Challenge:        c,
			Pace:             p,
			Depth:            d,
			QuestionsAllowed: questions,
			Notes:            note,
		},
	}
}

func maxConfidence(hits []decision.CodeHit) float64 {
	var best float64
	for _, h := range hits {
		if h.Confidence > best {
			best = h.Confidence
		}
	}
	return best
}

// #endregion waterfall

// #region tier

// adjustTier applies memory scope and the minor per-tier defaults.
func (b *Builder) adjustTier(r decision.Routing, in Input) decision.Routing {
	p := &r.Policy
	switch in.Tier {
	case decision.TierSanctuary:
		p.MemoryUse = decision.MemoryPersistent
		p.Pace = slower(p.Pace)
		if p.QuestionsAllowed > 1 {
			p.QuestionsAllowed = 1
		}
	case decision.TierBuild:
		p.MemoryUse = decision.MemoryPersistent
		if in.State.Arousal == decision.Regulated && p.Depth == decision.DepthLight && buildUpgradable(p.Notes) {
			p.Depth = decision.DepthMedium
		}
	default:
		p.MemoryUse = decision.MemorySession
	}
	if in.Tier != decision.TierFree && band.Dominant(in.Codes) == decision.B3 {
		p.MemoryUse = decision.MemoryProfile
	}
	return r
}

func buildUpgradable(notes string) bool {
	for _, rule := range []string{RuleAnticipation, RuleCognitive} {
		if strings.HasPrefix(notes, rule) {
			return true
		}
	}
	return false
}

func slower(p decision.Pace) decision.Pace {
	switch p {
	case decision.PaceDirective:
		return decision.PaceNormal
	default:
		return decision.PaceSlow
	}
}

// #endregion tier
