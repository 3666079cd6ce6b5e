package nodrift

import (
	"testing"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/lexicon"
)

func makeDecision(a decision.ArousalState, questions int, somatic bool) decision.Decision {
	return decision.Decision{
		State: decision.State{Arousal: a, Confidence: 0.7},
		Routing: decision.Routing{
			Lead:   decision.LeadV,
			Policy: decision.Policy{QuestionsAllowed: questions, SomaticAllowed: somatic},
		},
	}
}

func TestValidatorPassesCleanText(t *testing.T) {
	v := New(DefaultConfig())
	text := "You made it through today. " + lexicon.AgencyClosings[0]

	verdict := v.Evaluate(text, makeDecision(decision.Regulated, 1, false))

	if verdict.Action != "pass" {
		t.Fatalf("expected pass, got %s: %s", verdict.Action, verdict.Reason)
	}
	if verdict.Blocked {
		t.Fatal("should not be blocked")
	}
	if verdict.Text != text {
		t.Fatalf("passing text must be unchanged, got %q", verdict.Text)
	}
}

func TestValidatorVetoes(t *testing.T) {
	tests := []struct {
		name string
		text string
		d    decision.Decision
		want VetoType
	}{
		{"empty", "   ", makeDecision(decision.Regulated, 1, false), VetoEmpty},
		{"leak", "The safety backend handled this.", makeDecision(decision.Regulated, 1, false), VetoLeak},
		{"leak-case", "Per the IBA rules, rest.", makeDecision(decision.Regulated, 1, false), VetoLeak},
		{"json", `{"focus":"sleep"}`, makeDecision(decision.Regulated, 1, false), VetoJSON},
		{"questions", "How are you? What now?", makeDecision(decision.Regulated, 1, false), VetoQuestionBudget},
		{"zero-budget", "Want to talk?", makeDecision(decision.Regulated, 0, false), VetoQuestionBudget},
		{"fragile-insight", "It sounds like you are carrying a lot.", makeDecision(decision.Shutdown, 0, false), VetoFragileInsight},
		{"why", "Why does that matter?", makeDecision(decision.Activated, 1, false), VetoWhyQuestion},
		{"somatic", "Take a deep breath with me.", makeDecision(decision.Regulated, 0, false), VetoSomatic},
	}
	v := New(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := v.Evaluate(tt.text, tt.d)
			if verdict.Action != "block" || !verdict.Blocked {
				t.Fatalf("expected block, got %s", verdict.Action)
			}
			if verdict.Vetoes[0].Type != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, verdict.Vetoes[0].Type)
			}
			if verdict.Text != lexicon.SafetyFallback {
				t.Fatalf("blocked text must be the fallback, got %q", verdict.Text)
			}
		})
	}
}

func TestValidatorAllowsWhyWhenRegulated(t *testing.T) {
	v := New(DefaultConfig())
	verdict := v.Evaluate("Why does that matter to you?", makeDecision(decision.Regulated, 1, false))
	if verdict.Blocked {
		t.Fatalf("regulated why-question should pass: %s", verdict.Reason)
	}
}

func TestValidatorAllowsSomaticWhenPermitted(t *testing.T) {
	v := New(DefaultConfig())
	verdict := v.Evaluate("Take a deep breath with me.", makeDecision(decision.Dysregulated, 0, true))
	if verdict.Blocked {
		t.Fatalf("somatic command should pass when allowed: %s", verdict.Reason)
	}
}

func TestValidatorCollectsEveryVeto(t *testing.T) {
	v := New(DefaultConfig())
	verdict := v.Evaluate("Why is the model ignoring you?", makeDecision(decision.Dissociated, 0, false))
	if len(verdict.Vetoes) != 3 {
		t.Fatalf("expected leak, question and why vetoes, got %+v", verdict.Vetoes)
	}
}
