package state

import "github.com/danielpatrickdp/turn-governor/internal/decision"

// #region config

// Config holds the precedence and confidence knobs of state inference.
type Config struct {
	TieWindow         float64 // top two within this → the more fragile wins
	OverrideThreshold float64 // a score at or above this forces its state outright
	AmbiguityWindow   float64 // top two within this → confidence capped, state_ambiguous
	ConfidenceFloor   float64
	AmbiguousCap      float64
	HistoryWindow     int // user turns replayed for hysteresis
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TieWindow:         0.08,
		OverrideThreshold: 0.6,
		AmbiguityWindow:   0.05,
		ConfidenceFloor:   0.2,
		AmbiguousCap:      0.35,
		HistoryWindow:     12,
	}
}

// #endregion config

// #region scores

// Scores holds one 0-1 score per arousal state, indexed by fragility rank.
type Scores [5]float64

// Of returns the score for a.
func (s Scores) Of(a decision.ArousalState) float64 {
	r := a.Rank()
	if r < 0 {
		return 0
	}
	return s[r]
}

// Signal tags emitted alongside the marker family names.
const (
	TagTieBreak       = "tie_break"
	TagOverridePrefix = "override:"
	TagFragmentation  = "fragmentation"
	TagTopicSwitch    = "topic_switch"
	TagCircular       = "circular"
)

// #endregion scores
