package codes

import (
	"math"

	"github.com/danielpatrickdp/turn-governor/internal/band"
	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/lexicon"
	"github.com/danielpatrickdp/turn-governor/internal/signals"
)

// #region rule

// Rule scores one adaptive code from a signal set and the inferred state.
type Rule struct {
	Code   int
	Family lexicon.Family
	// Favors gain the affinity bonus; Disfavors take the penalty.
	Favors    []decision.ArousalState
	Disfavors []decision.ArousalState
	// Boost adds rule-specific structural evidence once the family has hits.
	Boost func(s signals.Set) float64
}

var fragile = []decision.ArousalState{decision.Dysregulated, decision.Shutdown, decision.Dissociated}

// Score returns the 0-1 score of the rule. No family hits → 0.
func (r Rule) Score(s signals.Set, arousal decision.ArousalState, affinity float64) float64 {
	hits := s.Marker(r.Family)
	if hits == 0 {
		return 0
	}
	v := 0.35 + 0.22*float64(hits)
	if r.Boost != nil {
		v += r.Boost(s)
	}
	if contains(r.Favors, arousal) {
		v += affinity
	}
	if contains(r.Disfavors, arousal) {
		v -= affinity
	}
	return math.Max(0, math.Min(1, v))
}

// Hit builds the CodeHit for a score, with the band looked up from the table.
func (r Rule) Hit(confidence float64) decision.CodeHit {
	b, _ := band.Lookup(r.Code)
	return decision.CodeHit{Code: r.Code, Label: band.Label(r.Code), Band: b, Confidence: confidence}
}

func contains(states []decision.ArousalState, a decision.ArousalState) bool {
	for _, s := range states {
		if s == a {
			return true
		}
	}
	return false
}

// #endregion rule

// #region catalog

// Catalog is the fixed rule set, one per catalogued code.
var Catalog = []Rule{
	{
		Code: 101, Family: lexicon.Procrastination,
		Favors: []decision.ArousalState{decision.Regulated}, Disfavors: fragile,
		Boost: func(s signals.Set) float64 {
			if s.Circular >= 0.5 {
				return 0.05
			}
			return 0
		},
	},
	{Code: 102, Family: lexicon.Perfectionism, Favors: []decision.ArousalState{decision.Regulated}, Disfavors: fragile},
	{Code: 103, Family: lexicon.Overplanning, Favors: []decision.ArousalState{decision.Regulated}, Disfavors: fragile},

	{Code: 201, Family: lexicon.PeoplePleasing, Favors: []decision.ArousalState{decision.Regulated, decision.Activated}},
	{Code: 202, Family: lexicon.SelfCriticism, Favors: []decision.ArousalState{decision.Activated}},
	{Code: 203, Family: lexicon.Comparison, Favors: []decision.ArousalState{decision.Activated}},

	{Code: 301, Family: lexicon.SelfSilencing, Favors: []decision.ArousalState{decision.Shutdown}},
	{
		Code: 302, Family: lexicon.Freeze, Favors: []decision.ArousalState{decision.Shutdown},
		Boost: func(s signals.Set) float64 {
			if s.Marker(lexicon.Collapse) > 0 {
				return 0.1
			}
			return 0
		},
	},
	{
		Code: 303, Family: lexicon.Drift, Favors: []decision.ArousalState{decision.Dissociated},
		Boost: func(s signals.Set) float64 {
			if s.Marker(lexicon.Detachment) > 0 {
				return 0.1
			}
			return 0
		},
	},

	{
		Code: 401, Family: lexicon.Heat, Favors: []decision.ArousalState{decision.Activated},
		Boost: func(s signals.Set) float64 {
			return 0.1 * s.CapsRatio
		},
	},
	{Code: 402, Family: lexicon.Resentment, Favors: []decision.ArousalState{decision.Activated}},

	{
		Code: 501, Family: lexicon.Rehearsal, Favors: []decision.ArousalState{decision.Activated},
		Boost: func(s signals.Set) float64 {
			return 0.1 * s.Circular
		},
	},
	{
		Code: 502, Family: lexicon.Anticipation, Favors: []decision.ArousalState{decision.Activated},
		Boost: func(s signals.Set) float64 {
			if s.Marker(lexicon.Urgency) > 0 {
				return 0.05
			}
			return 0
		},
	},
}

// #endregion catalog
