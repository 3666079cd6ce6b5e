package signals

import (
	"strings"
	"unicode"

	"github.com/danielpatrickdp/turn-governor/internal/lexicon"
)

// #region lexical

// Lexical extracts signals from phrase tables and sentence structure. No model call.
type Lexical struct {
	config Config
}

// NewLexical creates a Lexical extractor.
func NewLexical(config Config) *Lexical {
	return &Lexical{config: config}
}

// Extract computes the signal set for text. prior holds earlier user messages,
// oldest first; only the most recent one is compared against.
func (l *Lexical) Extract(text string, prior []string) Set {
	lower := lexicon.Normalize(text)
	sentences := lexicon.Split(text)

	markers := make(map[lexicon.Family]int, len(lexicon.Markers))
	for family, phrases := range lexicon.Markers {
		if n := lexicon.Count(lower, phrases); n > 0 {
			markers[family] = n
		}
	}

	var last string
	if len(prior) > 0 {
		last = prior[len(prior)-1]
	}

	return Set{
		Markers:       markers,
		Fragmentation: l.fragmentation(text, sentences),
		TopicSwitch:   l.topicSwitch(lower, text, last),
		Circular:      l.circular(lower, text, last),
		CapsRatio:     capsRatio(text),
		Words:         lexicon.Words(text),
		Sentences:     len(sentences),
		Exclamations:  strings.Count(text, "!"),
		Questions:     strings.Count(text, "?"),
	}
}

// #endregion lexical

// #region structure

// fragmentation is the share of fragment sentences when there are at least two,
// plus a weight per ellipsis.
func (l *Lexical) fragmentation(text string, sentences []string) float64 {
	var score float64
	if len(sentences) >= 2 {
		fragments := 0
		for _, s := range sentences {
			if lexicon.Words(s) <= l.config.FragmentWords {
				fragments++
			}
		}
		score = float64(fragments) / float64(len(sentences))
	}
	ellipses := strings.Count(text, "...") + strings.Count(text, "…")
	if ellipses > 2 {
		ellipses = 2
	}
	score += l.config.EllipsisWeight * float64(ellipses)
	return clamp(score)
}

func (l *Lexical) topicSwitch(lower, text, last string) float64 {
	score := l.config.ShiftWeight * float64(lexicon.Count(lower, lexicon.TopicShifts))
	if last != "" {
		cur, prev := ContentWords(text), ContentWords(last)
		if len(cur) >= l.config.MinContentWords && len(prev) >= l.config.MinContentWords && Jaccard(cur, prev) == 0 {
			score += l.config.AbruptWeight
		}
	}
	return clamp(score)
}

func (l *Lexical) circular(lower, text, last string) float64 {
	score := l.config.LoopWeight * float64(lexicon.Count(lower, lexicon.CircularMarkers))
	if repeatedWord(lower) {
		score += 0.25
	}
	if last != "" {
		cur, prev := ContentWords(text), ContentWords(last)
		if len(cur) >= l.config.MinContentWords && Jaccard(cur, prev) >= l.config.RepeatOverlap {
			score += l.config.LoopWeight
		}
	}
	return clamp(score)
}

// #endregion structure

// #region helpers

// repeatedWord reports whether any content word of four or more letters appears three times.
func repeatedWord(lower string) bool {
	counts := make(map[string]int)
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if len(w) < 4 || stopwords[w] {
			continue
		}
		counts[w]++
		if counts[w] >= 3 {
			return true
		}
	}
	return false
}

// capsRatio is the share of words of two or more letters written entirely in capitals.
func capsRatio(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	caps := 0
	for _, w := range words {
		letters, upper := 0, 0
		for _, r := range w {
			if unicode.IsLetter(r) {
				letters++
				if unicode.IsUpper(r) {
					upper++
				}
			}
		}
		if letters >= 2 && upper == letters && w != "OK" {
			caps++
		}
	}
	return float64(caps) / float64(len(words))
}

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
