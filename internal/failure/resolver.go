package failure

import (
	"fmt"

	"github.com/danielpatrickdp/turn-governor/internal/band"
	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/policy"
)

// #region config

// Config holds the thresholds the resolver shares with the policy waterfall.
type Config struct {
	LowConfidence      float64
	AmbiguousCodeFloor float64
	HighConfidence     float64
	FallbackLockCount  int
	FallbackWindow     int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	p := policy.DefaultConfig()
	return Config{
		LowConfidence:      p.LowConfidence,
		AmbiguousCodeFloor: p.AmbiguousCodeFloor,
		HighConfidence:     band.HighConfidence,
		FallbackLockCount:  p.FallbackLockCount,
		FallbackWindow:     p.FallbackWindow,
	}
}

// #endregion config

// #region actions

// Actions upstream composition applies for a failure mode.
const (
	ActionForceLeadV         = "force_lead_v"
	ActionLockSafety         = "lock_safety_backend"
	ActionSuppressChallenge  = "suppress_challenge"
	ActionZeroQuestions      = "zero_questions"
	ActionOneQuestion        = "cap_questions_1"
	ActionSlowPace           = "slow_pace"
	ActionLightDepth         = "light_depth"
	ActionNoMemory           = "no_memory"
	ActionDropLowBand        = "drop_low_band_codes"
	ActionSessionLock        = "session_lock"
	ActionSubstituteFallback = "substitute_fallback"
	ActionLogViolation       = "log_violation"
)

var actions = map[decision.FailureMode][]string{
	decision.FailureUserEscalation: {
		ActionForceLeadV, ActionLockSafety, ActionSuppressChallenge, ActionZeroQuestions,
		ActionSlowPace, ActionLightDepth, ActionNoMemory,
	},
	decision.FailurePostResponseDistress: {
		ActionForceLeadV, ActionLockSafety, ActionSuppressChallenge, ActionZeroQuestions,
		ActionSlowPace, ActionLightDepth,
	},
	decision.FailureStateUncertainty: {
		ActionForceLeadV, ActionSuppressChallenge, ActionOneQuestion, ActionLightDepth,
	},
	decision.FailureLayerDisagreement: {
		ActionSubstituteFallback, ActionLogViolation, ActionForceLeadV,
	},
	decision.FailureUnification: {
		ActionSubstituteFallback, ActionLockSafety,
	},
	decision.FailureOutputRisk: {
		ActionSubstituteFallback, ActionLockSafety, ActionForceLeadV,
	},
	decision.FailureRepeatedFallbacks: {
		ActionSessionLock, ActionForceLeadV, ActionLockSafety, ActionZeroQuestions,
	},
	decision.FailureCodeConflict: {
		ActionDropLowBand, ActionSuppressChallenge, ActionLockSafety,
	},
	decision.FailureSignalAmbiguity: {
		ActionSuppressChallenge, ActionLightDepth, ActionOneQuestion,
	},
}

// Actions returns a copy of the fixed action list for mode.
func Actions(mode decision.FailureMode) []string {
	return append([]string{}, actions[mode]...)
}

// #endregion actions

// #region input

// Input is the turn plus whatever downstream results exist. Before generation
// only the turn and decision are set.
type Input struct {
	Text     string
	History  []decision.Message
	Decision decision.Decision

	ContractErr     error
	CompilerBlocked bool
	NoDriftBlocked  bool
	BackendErr      error
}

// #endregion input

// #region resolve

// Resolver assigns at most one failure mode per turn.
type Resolver struct {
	config Config
}

// NewResolver creates a Resolver.
func NewResolver(config Config) *Resolver {
	return &Resolver{config: config}
}

type check struct {
	mode decision.FailureMode
	fn   func(r *Resolver, in Input) []string
}

// order is the priority order; the first check with triggers wins.
var order = []check{
	{decision.FailureUserEscalation, (*Resolver).userEscalation},
	{decision.FailurePostResponseDistress, (*Resolver).postResponseDistress},
	{decision.FailureStateUncertainty, (*Resolver).stateUncertainty},
	{decision.FailureLayerDisagreement, (*Resolver).layerDisagreement},
	{decision.FailureUnification, (*Resolver).unification},
	{decision.FailureOutputRisk, (*Resolver).outputRisk},
	{decision.FailureRepeatedFallbacks, (*Resolver).repeatedFallbacks},
	{decision.FailureCodeConflict, (*Resolver).codeConflict},
	{decision.FailureSignalAmbiguity, (*Resolver).signalAmbiguity},
}

// Resolve returns the highest-priority failure mode with its triggers and actions.
func (r *Resolver) Resolve(in Input) decision.FailureEvent {
	for _, c := range order {
		if triggers := c.fn(r, in); len(triggers) > 0 {
			return decision.FailureEvent{Mode: c.mode, Triggers: triggers, Actions: Actions(c.mode)}
		}
	}
	return decision.FailureEvent{Mode: decision.FailureNone, Triggers: []string{}, Actions: []string{}}
}

func (r *Resolver) userEscalation(in Input) []string {
	if in.Decision.Intent.Primary == decision.IntentCrisis {
		return []string{"intent:crisis"}
	}
	return nil
}

func (r *Resolver) postResponseDistress(in Input) []string {
	if policy.PostInsightDistress(in.Text, in.History) {
		return []string{"distress_after_insight"}
	}
	return nil
}

func (r *Resolver) stateUncertainty(in Input) []string {
	st := in.Decision.State
	var out []string
	if st.Confidence < r.config.LowConfidence {
		out = append(out, fmt.Sprintf("state_confidence:%.2f", st.Confidence))
	}
	if st.Has(decision.TagStateAmbiguous) && in.Decision.MaxCodeConfidence() < r.config.AmbiguousCodeFloor {
		out = append(out, decision.TagStateAmbiguous)
	}
	return out
}

func (r *Resolver) layerDisagreement(in Input) []string {
	if in.ContractErr != nil {
		return []string{"contract:" + in.ContractErr.Error()}
	}
	return nil
}

func (r *Resolver) unification(in Input) []string {
	if in.CompilerBlocked {
		return []string{"compiler_blocked"}
	}
	return nil
}

func (r *Resolver) outputRisk(in Input) []string {
	var out []string
	if in.NoDriftBlocked {
		out = append(out, "nodrift_blocked")
	}
	if in.BackendErr != nil {
		out = append(out, "backend:"+in.BackendErr.Error())
	}
	return out
}

func (r *Resolver) repeatedFallbacks(in Input) []string {
	if n := policy.FallbackCount(in.History, r.config.FallbackWindow); n >= r.config.FallbackLockCount {
		return []string{fmt.Sprintf("fallbacks:%d", n)}
	}
	return nil
}

func (r *Resolver) codeConflict(in Input) []string {
	var low, high []decision.Band
	for _, c := range in.Decision.Codes {
		if c.Confidence < r.config.HighConfidence {
			continue
		}
		switch c.Band {
		case decision.B1:
			low = append(low, c.Band)
		case decision.B2, decision.B3:
			high = append(high, c.Band)
		}
	}
	if len(low) > 0 && len(high) > 0 {
		return []string{fmt.Sprintf("codes:%s+%s", low[0], high[0])}
	}
	return nil
}

// signalAmbiguity fires on ambiguity that did not reach the uncertainty threshold.
func (r *Resolver) signalAmbiguity(in Input) []string {
	var out []string
	if in.Decision.State.Has(decision.TagStateAmbiguous) {
		out = append(out, decision.TagStateAmbiguous)
	}
	if len(in.Decision.Codes) > 0 && in.Decision.MaxCodeConfidence() < r.config.HighConfidence &&
		band.Dominant(in.Decision.Codes) != decision.B1 {
		out = append(out, "codes_below_high_confidence")
	}
	return out
}

// #endregion resolve
