package state

import (
	"math"
	"sort"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/lexicon"
	"github.com/danielpatrickdp/turn-governor/internal/signals"
)

// #region engine

// Engine infers the arousal state of a user turn. It holds no per-conversation state.
type Engine struct {
	extractor signals.Extractor
	config    Config
}

// NewEngine creates an Engine over the given signal extractor.
func NewEngine(extractor signals.Extractor, config Config) *Engine {
	return &Engine{extractor: extractor, config: config}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// #endregion engine

// #region infer

// Infer returns the state of text given the ordered history that precedes it.
// The previous turn's state is recomputed from history in one forward pass
// and bounds how far the current state may improve.
func (e *Engine) Infer(text string, history []decision.Message) decision.State {
	users := UserTurns(history)
	return e.Next(text, users, e.Timeline(users))
}

// Next infers the state of text from prior user turns and their already
// computed timeline, so callers that need the timeline score each turn once.
func (e *Engine) Next(text string, users []string, timeline []decision.State) decision.State {
	var prev *decision.State
	if len(timeline) > 0 {
		prev = &timeline[len(timeline)-1]
	}
	return e.step(text, users, prev)
}

// Timeline replays the last HistoryWindow user turns oldest first, applying
// hysteresis between consecutive turns. Each turn is scored once.
func (e *Engine) Timeline(users []string) []decision.State {
	start := 0
	if e.config.HistoryWindow > 0 && len(users) > e.config.HistoryWindow {
		start = len(users) - e.config.HistoryWindow
	}
	out := make([]decision.State, 0, len(users)-start)
	var prev *decision.State
	for i := start; i < len(users); i++ {
		st := e.step(users[i], users[:i], prev)
		out = append(out, st)
		prev = &out[len(out)-1]
	}
	return out
}

func (e *Engine) step(text string, prior []string, prev *decision.State) decision.State {
	set := e.extractor.Extract(text, prior)
	scores := Score(set)
	st := e.Resolve(scores)
	st.Signals = append(signalTags(set), st.Signals...)
	if prev != nil {
		st = e.hysteresis(st, scores, prev.Arousal)
	}
	return st
}

// UserTurns returns the contents of the user messages in history, oldest first.
func UserTurns(history []decision.Message) []string {
	var out []string
	for _, m := range history {
		if m.Role == decision.RoleUser {
			out = append(out, m.Content)
		}
	}
	return out
}

// #endregion infer

// #region resolve

// Resolve picks the winning state from scores: overrides first in precedence
// order, then the top score with fragile-first tie-breaking inside TieWindow.
func (e *Engine) Resolve(scores Scores) decision.State {
	order := []int{0, 1, 2, 3, 4}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		return a > b
	})
	top, second := order[0], order[1]
	margin := scores[top] - scores[second]

	var tags []string
	winner := -1
	for rank := len(scores) - 1; rank > 0; rank-- {
		if scores[rank] >= e.config.OverrideThreshold {
			winner = rank
			tags = append(tags, TagOverridePrefix+string(decision.StateAtRank(rank)))
			break
		}
	}
	if winner < 0 {
		winner = top
		if margin < e.config.TieWindow && second > top {
			winner = second
			tags = append(tags, TagTieBreak)
		}
	}

	confidence := scores[winner]
	if margin < e.config.AmbiguityWindow {
		confidence = math.Min(confidence, e.config.AmbiguousCap)
		tags = append(tags, decision.TagStateAmbiguous)
	}
	confidence = math.Max(confidence, e.config.ConfidenceFloor)

	return decision.State{
		Arousal:    decision.StateAtRank(winner),
		Confidence: clamp(confidence),
		Signals:    tags,
	}
}

// hysteresis forbids improving by more than one fragility step from prev.
func (e *Engine) hysteresis(st decision.State, scores Scores, prev decision.ArousalState) decision.State {
	pr, cr := prev.Rank(), st.Arousal.Rank()
	if pr-cr <= 1 {
		return st
	}
	bounded := pr - 1
	st.Arousal = decision.StateAtRank(bounded)
	st.Confidence = clamp(math.Max(scores[bounded], e.config.ConfidenceFloor))
	st.Signals = append(st.Signals, decision.TagDecayClamp)
	return st
}

func signalTags(set signals.Set) []string {
	var tags []string
	for _, f := range lexicon.DistressFamilies {
		if set.Marker(f) > 0 {
			tags = append(tags, string(f))
		}
	}
	if set.Marker(lexicon.Anger) > 0 {
		tags = append(tags, string(lexicon.Anger))
	}
	if set.Fragmentation >= 0.5 {
		tags = append(tags, TagFragmentation)
	}
	if set.TopicSwitch >= 0.5 {
		tags = append(tags, TagTopicSwitch)
	}
	if set.Circular >= 0.5 {
		tags = append(tags, TagCircular)
	}
	return tags
}

// #endregion resolve
