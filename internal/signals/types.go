package signals

import "github.com/danielpatrickdp/turn-governor/internal/lexicon"

// #region extractor-interface

// Extractor abstracts signal extraction so scoring stages can be tested
// against hand-built signal sets.
type Extractor interface {
	Extract(text string, prior []string) Set
}

// #endregion extractor-interface

// #region set

// Set is the structural and lexical signal profile of one user message.
// Ratios are in [0, 1].
type Set struct {
	Markers       map[lexicon.Family]int
	Fragmentation float64 // share of fragment sentences, plus trailing-off ellipses
	TopicSwitch   float64 // explicit shift markers or an abrupt change from the prior turn
	Circular      float64 // looping phrasing or heavy overlap with the prior turn
	CapsRatio     float64 // share of all-caps words
	Words         int
	Sentences     int
	Exclamations  int
	Questions     int
}

// Marker returns the hit count of one family.
func (s Set) Marker(f lexicon.Family) int {
	if s.Markers == nil {
		return 0
	}
	return s.Markers[f]
}

// Distress returns urgency + overwhelm + panic + collapse + detachment hits.
func (s Set) Distress() int {
	n := 0
	for _, f := range lexicon.DistressFamilies {
		n += s.Marker(f)
	}
	return n
}

// #endregion set

// #region config

// Config holds tuning knobs for structural signals.
type Config struct {
	FragmentWords   int     // sentences at or below this word count are fragments
	EllipsisWeight  float64 // fragmentation added per trailing-off ellipsis
	ShiftWeight     float64 // topic switch added per explicit shift marker
	AbruptWeight    float64 // topic switch added when overlap with the prior turn collapses
	LoopWeight      float64 // circularity added per looping marker
	RepeatOverlap   float64 // Jaccard overlap with the prior turn that counts as circular
	MinContentWords int     // both turns need this many content words for overlap checks
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FragmentWords:   3,
		EllipsisWeight:  0.2,
		ShiftWeight:     0.5,
		AbruptWeight:    0.3,
		LoopWeight:      0.5,
		RepeatOverlap:   0.6,
		MinContentWords: 4,
	}
}

// #endregion config
