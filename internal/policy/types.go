package policy

import "github.com/danielpatrickdp/turn-governor/internal/decision"

// #region config

// Config holds the waterfall thresholds.
type Config struct {
	LowConfidence      float64 // rule 4: state confidence below this → containment
	AmbiguousCodeFloor float64 // rule 4: ambiguous state with max code confidence below this
	FallbackLockCount  int     // rule 3: fallback replies that lock the session
	FallbackWindow     int     // rule 3: assistant messages inspected
	ReadinessGate      float64 // readiness below this forces depth=light
	LoopCircular       float64
	LoopOverlap        float64
	LoopWindow         int
	LoopMinRepeats     int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		LowConfidence:      0.4,
		AmbiguousCodeFloor: 0.65,
		FallbackLockCount:  3,
		FallbackWindow:     5,
		ReadinessGate:      0.5,
		LoopCircular:       0.5,
		LoopOverlap:        0.5,
		LoopWindow:         4,
		LoopMinRepeats:     2,
	}
}

// #endregion config

// #region input

// Input bundles everything the waterfall reads for one turn.
type Input struct {
	Text     string
	History  []decision.Message
	Tier     decision.Tier
	Intent   decision.Intent
	State    decision.State
	Codes    []decision.CodeHit
	Circular float64 // circularity signal of the current turn
}

// Rule names recorded in Policy.Notes as "ruleN:name".
const (
	RuleCrisis         = "rule1:crisis"
	RulePostInsight    = "rule2:post_insight_distress"
	RuleFallbackLock   = "rule3:fallback_lock"
	RuleLowConfidence  = "rule4:low_confidence"
	RuleFragile        = "rule5:fragile_state"
	RuleActivated      = "rule6:activated"
	RuleProtectiveBand = "rule7:protective_band"
	RuleAnticipation   = "rule8:anticipation_band"
	RuleCognitive      = "rule9:cognitive_band"
	RuleUnknownBand    = "rule10:unknown_band"
)

// #endregion input
