package state

import (
	"math"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/lexicon"
	"github.com/danielpatrickdp/turn-governor/internal/signals"
)

// #region score

// Score computes independent 0-1 scores for all five states from one signal set.
func Score(s signals.Set) Scores {
	var out Scores
	out[decision.Regulated.Rank()] = scoreRegulated(s)
	out[decision.Activated.Rank()] = scoreActivated(s)
	out[decision.Dysregulated.Rank()] = scoreDysregulated(s)
	out[decision.Shutdown.Rank()] = scoreShutdown(s)
	out[decision.Dissociated.Rank()] = scoreDissociated(s)
	return out
}

// #endregion score

// #region per-state

func scoreRegulated(s signals.Set) float64 {
	distress := float64(s.Distress())
	v := 0.55 - 0.12*distress - 0.2*s.Fragmentation - 0.1*s.Circular
	if s.Words >= 6 && distress == 0 {
		v += 0.1
	}
	return clamp(v)
}

func scoreActivated(s signals.Set) float64 {
	excl := math.Min(float64(s.Exclamations), 3)
	v := 0.18*float64(s.Marker(lexicon.Urgency)) +
		0.12*float64(s.Marker(lexicon.Overwhelm)) +
		0.1*float64(s.Marker(lexicon.Anger)) +
		0.05*excl +
		0.15*s.TopicSwitch +
		0.1*s.CapsRatio +
		0.1*s.Circular
	return clamp(v)
}

func scoreDysregulated(s signals.Set) float64 {
	frag := 0.25 * s.Fragmentation
	if s.Distress() == 0 {
		frag /= 2
	}
	v := 0.3*float64(s.Marker(lexicon.Panic)) +
		0.2*float64(s.Marker(lexicon.Overwhelm)) +
		0.05*float64(s.Marker(lexicon.Urgency)) +
		0.1*s.Circular +
		frag
	return clamp(v)
}

func scoreShutdown(s signals.Set) float64 {
	collapse := s.Marker(lexicon.Collapse)
	v := 0.3 * float64(collapse)
	if s.Words <= 4 && s.Distress() > 0 {
		v += 0.1
	}
	if collapse > 0 {
		v += 0.15 * s.Fragmentation
	}
	return clamp(v)
}

func scoreDissociated(s signals.Set) float64 {
	detachment := s.Marker(lexicon.Detachment)
	v := 0.32 * float64(detachment)
	if detachment > 0 {
		v += 0.1 * s.Fragmentation
	}
	return clamp(v)
}

// #endregion per-state

// #region helpers

// clamp restricts v to [0, 1].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
