package intent

import (
	"testing"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want decision.PrimaryIntent
	}{
		// Crisis
		{"crisis-explicit", "I want to die, nothing helps", decision.IntentCrisis},
		{"crisis-beats-task", "help me plan how to end my life", decision.IntentCrisis},

		// Somatic
		{"somatic-breath", "I can't breathe and my chest is tight", decision.IntentSomatic},

		// Emotion
		{"emotion-feel", "I feel so lonely tonight", decision.IntentEmotion},

		// Identity
		{"identity-who", "Who am I if I stop achieving?", decision.IntentIdentity},

		// Relationship
		{"relationship-partner", "My partner ignored me at dinner", decision.IntentRelationship},

		// Visibility
		{"visibility-post", "I'm scared to post it where people can see", decision.IntentEmotion},
		{"visibility-publish", "Should I publish my essay this week", decision.IntentVisibility},

		// Meaning
		{"meaning-point", "What's the point of any of this work", decision.IntentMeaning},

		// Task
		{"task-plan", "Help me make a schedule for the project", decision.IntentTask},
		{"task-default", "Hello there", decision.IntentTask},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			if got.Primary != tt.want {
				t.Errorf("primary: got %q, want %q (secondary %v)", got.Primary, tt.want, got.Secondary)
			}
		})
	}
}

func TestClassify_SecondaryTags(t *testing.T) {
	got := Classify("Don't sugarcoat it, I'm procrastinating")
	if got.Primary != decision.IntentTask {
		t.Errorf("primary: got %q, want task", got.Primary)
	}
	if !got.HasTag(decision.TagDirectnessRequest) {
		t.Errorf("expected directness_request, got %v", got.Secondary)
	}
	if got.HasTag(decision.TagQuestion) {
		t.Errorf("no question mark, got %v", got.Secondary)
	}

	got = Classify("Can you give me a plan? I feel stuck")
	if !got.HasTag(decision.TagExecutionRequest) || !got.HasTag(decision.TagQuestion) {
		t.Errorf("expected execution_request and question, got %v", got.Secondary)
	}
	if !got.HasTag(string(decision.IntentTask)) && got.Primary != decision.IntentTask {
		t.Errorf("task should appear as primary or secondary, got %+v", got)
	}
}

func TestClassify_ContextInheritance(t *testing.T) {
	tests := []struct {
		name string
		text string
		prev decision.Intent
		want decision.PrimaryIntent
	}{
		{"why-after-relationship", "why?", decision.Intent{Primary: decision.IntentRelationship}, decision.IntentRelationship},
		{"and-after-meaning", "and then what", decision.Intent{Primary: decision.IntentMeaning}, decision.IntentMeaning},
		{"own-hits-win", "and I feel sad", decision.Intent{Primary: decision.IntentTask}, decision.IntentEmotion},
		{"crisis-not-inherited", "ok", decision.Intent{Primary: decision.IntentCrisis}, decision.IntentTask},
		{"long-message-no-inherit", "so I was thinking about the weekend trip and the car and the hotel booking", decision.Intent{Primary: decision.IntentMeaning}, decision.IntentTask},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text, tt.prev)
			if got.Primary != tt.want {
				t.Errorf("got %q, want %q", got.Primary, tt.want)
			}
		})
	}
}
