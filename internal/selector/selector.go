package selector

import (
	"github.com/danielpatrickdp/turn-governor/internal/band"
	"github.com/danielpatrickdp/turn-governor/internal/decision"
)

// #region config

// Config maps backend profiles to concrete backend ids.
type Config struct {
	Models map[decision.Backend]string
}

// DefaultConfig returns the default profile → model mapping.
func DefaultConfig() Config {
	return Config{Models: map[decision.Backend]string{
		decision.BackendSafety:  "gemini-2.5-flash",
		decision.BackendGeneral: "gemini-2.5-flash",
		decision.BackendStrict:  "gemini-2.5-pro",
	}}
}

// #endregion config

// #region reasons

// Reasons recorded on the selection, one per waterfall step.
const (
	ReasonInvalid       = "invalid_decision"
	ReasonOverride      = "policy_override_safety"
	ReasonLeadV         = "lead_v"
	ReasonFragile       = "fragile_state"
	ReasonProtectedBand = "protective_band"
	ReasonNoChallenge   = "lead_n_no_challenge"
	ReasonGentle        = "lead_n_gentle"
	ReasonStrict        = "lead_n_direct_regulated_b1"
	ReasonDefault       = "safety_default"
)

// #endregion reasons

// #region select

// Selector maps a Decision to exactly one backend profile.
type Selector struct {
	config Config
}

// New creates a Selector.
func New(config Config) *Selector {
	return &Selector{config: config}
}

// Select runs the waterfall. d may be nil. Overrides other than safety are
// ignored; the strict profile is reachable only through step 7.
func (s *Selector) Select(d *decision.Decision) decision.ModelSelection {
	if !valid(d) {
		return s.pick(decision.BackendSafety, ReasonInvalid, true)
	}
	p := d.Routing.Policy
	arousal := d.State.Arousal

	switch {
	case p.ModelOverride == decision.BackendSafety:
		return s.pick(decision.BackendSafety, ReasonOverride, false)
	case d.Routing.Lead == decision.LeadV:
		return s.pick(decision.BackendSafety, ReasonLeadV, false)
	case arousal.Fragile():
		return s.pick(decision.BackendSafety, ReasonFragile, false)
	case band.Has(d.Codes, decision.B2, decision.B3):
		return s.pick(decision.BackendSafety, ReasonProtectedBand, false)
	case d.Routing.Lead == decision.LeadN && p.Challenge == decision.ChallengeNone:
		return s.pick(decision.BackendGeneral, ReasonNoChallenge, false)
	case d.Routing.Lead == decision.LeadN && p.Challenge == decision.ChallengeGentle:
		return s.pick(decision.BackendGeneral, ReasonGentle, false)
	case d.Routing.Lead == decision.LeadN && p.Challenge == decision.ChallengeDirect &&
		arousal == decision.Regulated && band.All(d.Codes, decision.B1):
		return s.pick(decision.BackendStrict, ReasonStrict, false)
	}
	return s.pick(decision.BackendSafety, ReasonDefault, true)
}

func (s *Selector) pick(profile decision.Backend, reason string, fallback bool) decision.ModelSelection {
	return decision.ModelSelection{
		Profile:        profile,
		Model:          s.config.Models[profile],
		Reason:         reason,
		SafetyFallback: fallback,
	}
}

func valid(d *decision.Decision) bool {
	if d == nil || !d.State.Arousal.Valid() {
		return false
	}
	switch d.Routing.Lead {
	case decision.LeadN, decision.LeadV:
	default:
		return false
	}
	return d.Routing.Policy.Challenge != ""
}

// #endregion select
