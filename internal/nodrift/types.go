package nodrift

import "github.com/danielpatrickdp/turn-governor/internal/lexicon"

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoEmpty          VetoType = "empty_output"
	VetoLeak           VetoType = "internal_leak"
	VetoJSON           VetoType = "json_output"
	VetoQuestionBudget VetoType = "question_budget"
	VetoFragileInsight VetoType = "fragile_insight"
	VetoWhyQuestion    VetoType = "why_question"
	VetoSomatic        VetoType = "somatic_command"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition.
type VetoSignal struct {
	Type   VetoType `json:"type"`
	Reason string   `json:"reason"`
}

// #endregion veto-signal

// #region config
// Config holds the substitution text used when a response is blocked.
type Config struct {
	Fallback string
}

// DefaultConfig returns the fixed safety fallback line.
func DefaultConfig() Config {
	return Config{Fallback: lexicon.SafetyFallback}
}

// #endregion config

// #region verdict
// Verdict is the output of the no-drift check.
type Verdict struct {
	Action  string       `json:"action"` // "pass" | "block"
	Reason  string       `json:"reason"`
	Blocked bool         `json:"blocked"`
	Vetoes  []VetoSignal `json:"vetoes,omitempty"`
	Text    string       `json:"text"` // the checked text, or the fallback when blocked
}

// #endregion verdict
