package compiler

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/turn-governor/internal/contract"
	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/lexicon"
)

// #region config

// Caps bound the sentence and insight counts of a response.
type Caps struct {
	Sentences int
	Insights  int
}

// Config holds the per-state caps and the pace word limits.
type Config struct {
	Caps            map[decision.ArousalState]Caps
	StrictCaps      map[decision.ArousalState]Caps
	PaceWords       map[decision.Pace]int
	MaxListItems    int
	StrictQuestions int
}

// DefaultConfig returns the standard caps.
func DefaultConfig() Config {
	return Config{
		Caps: map[decision.ArousalState]Caps{
			decision.Regulated:    {10, 2},
			decision.Activated:    {6, 1},
			decision.Dysregulated: {4, 1},
			decision.Shutdown:     {3, 0},
			decision.Dissociated:  {3, 0},
		},
		StrictCaps: map[decision.ArousalState]Caps{
			decision.Regulated:    {6, 1},
			decision.Activated:    {4, 1},
			decision.Dysregulated: {3, 0},
			decision.Shutdown:     {2, 0},
			decision.Dissociated:  {2, 0},
		},
		PaceWords: map[decision.Pace]int{
			decision.PaceSlow:      18,
			decision.PaceNormal:    28,
			decision.PaceDirective: 22,
		},
		MaxListItems:    3,
		StrictQuestions: 1,
	}
}

// #endregion config

// #region result

// Snapshot records the sentences after one pass.
type Snapshot struct {
	Pass      string   `json:"pass"`
	Sentences []string `json:"sentences"`
	Changed   bool     `json:"changed"`
}

// Result is the compiled response. When OK is false, Text is a fixed fallback line.
type Result struct {
	Text       string     `json:"text"`
	OK         bool       `json:"ok"`
	Strict     bool       `json:"strict"`
	Violations []string   `json:"violations,omitempty"`
	Snapshots  []Snapshot `json:"snapshots,omitempty"`
}

// Violation kinds reported by the post-pass check.
const (
	ViolationLeak     = "leak"
	ViolationLabel    = "label"
	ViolationSentence = "sentence_cap"
	ViolationInsight  = "insight_cap"
	ViolationUrgency  = "urgency"
	ViolationQuestion = "question_budget"
	ViolationEmpty    = "empty"
)

// #endregion result

// #region compiler

// Compiler rewrites a generated draft until it satisfies the turn's policy.
type Compiler struct {
	config Config
	logger *zap.Logger
}

// New creates a Compiler.
func New(config Config, logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{config: config, logger: logger.Named("compiler")}
}

// Compile runs every pass over draft, retries once in strict mode, and falls
// back to a fixed line chosen from the draft and decision when both fail.
func (c *Compiler) Compile(draft string, d decision.Decision) Result {
	var snaps []Snapshot

	text, violations, s := c.attempt(draft, d, false)
	snaps = append(snaps, s...)
	if len(violations) == 0 {
		c.logger.Debug("Compiled response", zap.String("id", d.ID), zap.Bool("strict", false))
		return Result{Text: text, OK: true, Snapshots: snaps}
	}

	c.logger.Debug("Retrying compilation in strict mode",
		zap.String("id", d.ID), zap.Strings("violations", violations))
	text, violations, s = c.attempt(draft, d, true)
	snaps = append(snaps, s...)
	if len(violations) == 0 {
		return Result{Text: text, OK: true, Strict: true, Snapshots: snaps}
	}

	fallback := lexicon.Pick(lexicon.CompilerFallbacks, draft, Fingerprint(d))
	c.logger.Debug("Compilation blocked",
		zap.String("id", d.ID), zap.Strings("violations", violations))
	return Result{Text: fallback, OK: false, Strict: true, Violations: violations, Snapshots: snaps}
}

func (c *Compiler) attempt(draft string, d decision.Decision, strict bool) (string, []string, []Snapshot) {
	r := c.settings(d, strict)

	stripped := contract.Strip(draft)
	sentences := lexicon.Split(stripped)
	snaps := []Snapshot{{
		Pass:      PassDelimiters,
		Sentences: sentences,
		Changed:   stripped != strings.TrimSpace(draft),
	}}
	for _, p := range passes(strict) {
		next := p.fn(r, sentences)
		snaps = append(snaps, Snapshot{Pass: p.name, Sentences: next, Changed: !slices.Equal(sentences, next)})
		sentences = next
	}
	return lexicon.Join(sentences), validate(sentences, r), snaps
}

func (c *Compiler) settings(d decision.Decision, strict bool) run {
	caps := c.config.Caps
	questions := d.Routing.Policy.Clamp().QuestionsAllowed
	if strict {
		caps = c.config.StrictCaps
		questions = min(questions, c.config.StrictQuestions)
	}
	cp, ok := caps[d.State.Arousal]
	if !ok {
		cp = caps[decision.Dissociated]
	}
	words, ok := c.config.PaceWords[d.Routing.Policy.Pace]
	if !ok {
		words = c.config.PaceWords[decision.PaceSlow]
	}
	return run{
		policy:    d.Routing.Policy,
		arousal:   d.State.Arousal,
		caps:      cp,
		questions: questions,
		strict:    strict,
		words:     words,
		maxList:   c.config.MaxListItems,
	}
}

// #endregion compiler

// #region validate

// validate re-checks compiled sentences and returns the violations found.
func validate(sentences []string, r run) []string {
	var out []string
	text := lexicon.Join(sentences)
	for _, term := range lexicon.Leaks(text) {
		out = append(out, ViolationLeak+":"+term)
	}
	if lexicon.LabelPattern.MatchString(text) {
		out = append(out, ViolationLabel)
	}

	body, insights := 0, 0
	for _, s := range sentences {
		if lexicon.IsClosing(s) {
			continue
		}
		body++
		if lexicon.IsInsight(s) {
			insights++
		}
	}
	if body == 0 {
		out = append(out, ViolationEmpty)
	}
	if body > r.caps.Sentences {
		out = append(out, ViolationSentence)
	}
	if insights > r.caps.Insights {
		out = append(out, ViolationInsight)
	}
	if r.arousal == decision.Activated && lexicon.UrgencyPattern.MatchString(text) {
		out = append(out, ViolationUrgency)
	}
	if strings.Count(text, "?") > r.questions {
		out = append(out, ViolationQuestion)
	}
	return out
}

// Fingerprint summarizes the parts of a decision that shape compilation.
// The turn id is excluded so identical turns pick identical fallbacks.
func Fingerprint(d decision.Decision) string {
	p := d.Routing.Policy
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d|%t",
		d.Intent.Primary, d.State.Arousal, d.Routing.Lead,
		p.Challenge, p.Pace, p.Depth, p.QuestionsAllowed, p.SomaticAllowed)
}

// #endregion validate
