package governor

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/turn-governor/internal/backend"
	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/finalize"
	"github.com/danielpatrickdp/turn-governor/internal/lexicon"
	"github.com/danielpatrickdp/turn-governor/internal/store"
)

const (
	panicText  = "I can't breathe, I'm panicking, everything is too much"
	directText = "Don't sugarcoat it, I'm procrastinating"

	veraDraft    = "[[VERA]]I'm here with you.[[/VERA]]"
	neuralDraft  = `[[NEURAL]]{"focus":"start the report","steps":["open the file"],"confidence":0.7}[[/NEURAL]][[VERA]]Open the file and write one line.[[/VERA]]`
	leakingDraft = `[[NEURAL]]{"focus":"x"}[[/NEURAL]][[VERA]]I'm here.[[/VERA]]`
)

func userTurn(text string, tier decision.Tier) Turn {
	return Turn{Messages: []decision.Message{{Role: decision.RoleUser, Content: text}}, Tier: tier}
}

func newGovernor(t *testing.T) *Governor {
	t.Helper()
	return New(DefaultConfig(), nil, nil)
}

// #region decide-tests

func TestDecide_PanicIsContained(t *testing.T) {
	g := newGovernor(t)
	plan, err := g.Decide(context.Background(), userTurn(panicText, decision.TierFree))
	require.NoError(t, err)

	require.Equal(t, decision.Dysregulated, plan.Decision.State.Arousal)
	require.Equal(t, decision.LeadV, plan.Decision.Routing.Lead)
	require.Equal(t, decision.ChallengeNone, plan.Decision.Routing.Policy.Challenge)
	require.Equal(t, decision.PaceSlow, plan.Decision.Routing.Policy.Pace)
	require.Equal(t, decision.BackendSafety, plan.Selection.Profile)
	require.NotEmpty(t, plan.Directive)
	require.NotEmpty(t, plan.Decision.ID)
}

func TestDecide_DirectnessSelectsStrict(t *testing.T) {
	g := newGovernor(t)
	plan, err := g.Decide(context.Background(), userTurn(directText, decision.TierFree))
	require.NoError(t, err)

	require.Equal(t, decision.LeadN, plan.Decision.Routing.Lead)
	require.Equal(t, decision.ChallengeDirect, plan.Decision.Routing.Policy.Challenge)
	require.Equal(t, decision.BackendStrict, plan.Selection.Profile)
	require.Equal(t, "gemini-2.5-pro", plan.Selection.Model)
	require.Equal(t, decision.SignalStable, plan.Telemetry.SignalState)
	require.Equal(t, decision.FailureNone, plan.Failure.Mode)
}

func TestDecide_NoCodesFallsBackToSafetyProfile(t *testing.T) {
	g := newGovernor(t)
	plan, err := g.Decide(context.Background(), userTurn("Can you help me write an email to my team about the launch date", decision.TierFree))
	require.NoError(t, err)

	require.Empty(t, plan.Decision.Codes)
	require.Equal(t, decision.LeadV, plan.Decision.Routing.Lead)
	require.Equal(t, decision.BackendSafety, plan.Selection.Profile)
}

func TestDecide_KillSwitchForcesContainment(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	g := New(cfg, nil, nil)
	require.False(t, g.Enabled())

	plan, err := g.Decide(context.Background(), userTurn(directText, decision.TierBuild))
	require.NoError(t, err)
	p := plan.Decision.Routing.Policy
	require.Equal(t, decision.LeadV, plan.Decision.Routing.Lead)
	require.Equal(t, decision.TierBuild, p.Tier)
	require.Equal(t, decision.BackendSafety, plan.Selection.Profile)
	require.True(t, strings.HasPrefix(p.Notes, RuleKillSwitch))
}

func TestDecide_InvalidTurn(t *testing.T) {
	tests := []struct {
		name string
		turn Turn
	}{
		{"no-messages", Turn{Tier: decision.TierFree}},
		{"unknown-role", Turn{Tier: decision.TierFree, Messages: []decision.Message{{Role: "system", Content: "x"}, {Role: decision.RoleUser, Content: "hi"}}}},
		{"last-is-assistant", Turn{Tier: decision.TierFree, Messages: []decision.Message{{Role: decision.RoleUser, Content: "hi"}, {Role: decision.RoleAssistant, Content: "hello"}}}},
		{"blank-text", userTurn("   ", decision.TierFree)},
		{"unknown-tier", userTurn("hi", "premium")},
		{"empty-tier", userTurn("hi", "")},
	}
	g := newGovernor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Decide(context.Background(), tt.turn)
			if !errors.Is(err, ErrInvalidTurn) {
				t.Fatalf("Decide() err = %v, want ErrInvalidTurn", err)
			}
		})
	}
}

func TestDecide_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newGovernor(t).Decide(ctx, userTurn("hi", decision.TierFree))
	require.ErrorIs(t, err, context.Canceled)
}

// #endregion decide-tests

// #region finalize-tests

func TestFinalize_CleanRegulatingDraft(t *testing.T) {
	g := newGovernor(t)
	turn := userTurn(panicText, decision.TierFree)
	plan, err := g.Decide(context.Background(), turn)
	require.NoError(t, err)

	out := g.Finalize(context.Background(), turn, plan, veraDraft, nil)
	require.True(t, out.Passed)
	require.Empty(t, out.ContractErr)
	require.True(t, strings.HasPrefix(out.Text, "I'm here with you."))
	require.True(t, lexicon.EndsWithClosing(out.Text))
	require.NotContains(t, out.Text, "[[")
	require.Equal(t, plan.Decision.ID, out.TurnID)
}

func TestFinalize_CognitiveDraftDropsHandoff(t *testing.T) {
	g := newGovernor(t)
	turn := userTurn(directText, decision.TierFree)
	plan, err := g.Decide(context.Background(), turn)
	require.NoError(t, err)

	out := g.Finalize(context.Background(), turn, plan, neuralDraft, nil)
	require.True(t, out.Passed)
	require.Empty(t, out.ContractErr)
	require.NotContains(t, out.Text, "focus")
	require.Contains(t, out.Text, "Open the file")
	require.Equal(t, decision.FailureNone, out.Failure.Mode)
}

func TestFinalize_ContractViolation(t *testing.T) {
	g := newGovernor(t)
	turn := userTurn(panicText, decision.TierFree)
	plan, err := g.Decide(context.Background(), turn)
	require.NoError(t, err)

	out := g.Finalize(context.Background(), turn, plan, leakingDraft, nil)
	require.NotEmpty(t, out.ContractErr)
	require.Equal(t, lexicon.SafetyFallback, out.Text)
	require.False(t, out.Passed)
	require.Equal(t, finalize.ReasonFallback, out.Reason)
	require.Equal(t, decision.FailureLayerDisagreement, out.Failure.Mode)
	require.Equal(t, decision.LeadV, out.Decision.Routing.Lead)
}

func TestFinalize_ContractViolationFailsInBandAssist(t *testing.T) {
	g := newGovernor(t)
	turn := userTurn(panicText, decision.TierFree)
	turn.InBandAssist = true
	plan, err := g.Decide(context.Background(), turn)
	require.NoError(t, err)

	out := g.Finalize(context.Background(), turn, plan, "no markers at all", nil)
	require.False(t, out.Passed)
	require.Equal(t, finalize.ReasonMissingClosing, out.Reason)
	require.Equal(t, lexicon.SafetyFallback, out.Text)
}

func TestFinalize_BackendError(t *testing.T) {
	g := newGovernor(t)
	turn := userTurn(panicText, decision.TierFree)
	plan, err := g.Decide(context.Background(), turn)
	require.NoError(t, err)

	out := g.Finalize(context.Background(), turn, plan, "", errors.New("unavailable"))
	require.Equal(t, decision.FailureOutputRisk, out.Failure.Mode)
	require.Equal(t, lexicon.SafetyFallback, out.Text)
	require.Equal(t, "unavailable", out.BackendErr)
	require.False(t, out.Passed)
	require.Equal(t, finalize.ReasonFallback, out.Reason)
	require.Equal(t, decision.BackendSafety, out.Decision.Routing.Policy.ModelOverride)
}

// #endregion finalize-tests

// #region run-turn-tests

func TestRunTurn_PassesDirectiveAndModel(t *testing.T) {
	g := newGovernor(t)
	var seen backend.Request
	gen := backend.GeneratorFunc(func(_ context.Context, req backend.Request) (string, error) {
		seen = req
		return neuralDraft, nil
	})

	turn := userTurn(directText, decision.TierFree)
	plan, out, err := g.RunTurn(context.Background(), turn, gen)
	require.NoError(t, err)
	require.True(t, out.Passed)
	require.Equal(t, plan.Selection.Model, seen.Model)
	require.Equal(t, plan.Directive, seen.Rules)
	require.Equal(t, directText, seen.Text)
	require.Empty(t, seen.History)
}

func TestRunTurn_TimeoutBecomesOutputRisk(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BackendTimeout = 10 * time.Millisecond
	g := New(cfg, nil, nil)
	gen := backend.GeneratorFunc(func(ctx context.Context, _ backend.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	_, out, err := g.RunTurn(context.Background(), userTurn(panicText, decision.TierFree), gen)
	require.NoError(t, err)
	require.Equal(t, decision.FailureOutputRisk, out.Failure.Mode)
	require.Equal(t, lexicon.SafetyFallback, out.Text)
	require.Contains(t, out.BackendErr, "timeout")
	require.False(t, out.Passed)
}

func TestRunTurn_InvalidTurnNeverCallsBackend(t *testing.T) {
	called := false
	gen := backend.GeneratorFunc(func(context.Context, backend.Request) (string, error) {
		called = true
		return "", nil
	})
	_, _, err := newGovernor(t).RunTurn(context.Background(), userTurn("", decision.TierFree), gen)
	require.ErrorIs(t, err, ErrInvalidTurn)
	require.False(t, called)
}

func TestRunTurn_RecordsTurn(t *testing.T) {
	s, err := store.NewStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	g := New(DefaultConfig(), s, nil)
	gen := backend.GeneratorFunc(func(context.Context, backend.Request) (string, error) {
		return "", errors.New("down")
	})
	turn := userTurn(panicText, decision.TierSanctuary)
	turn.ConversationID = "conv-1"

	_, out, err := g.RunTurn(context.Background(), turn, gen)
	require.NoError(t, err)

	rec, err := s.GetTurn(out.TurnID)
	require.NoError(t, err)
	require.Equal(t, "conv-1", rec.ConversationID)
	require.Equal(t, decision.TierSanctuary, rec.Tier)
	require.Equal(t, decision.FailureOutputRisk, rec.Failure.Mode)
	require.False(t, rec.FinalizePassed)

	counts, err := s.CountFailures()
	require.NoError(t, err)
	require.Equal(t, []store.ModeCount{{Mode: decision.FailureOutputRisk, Count: 1}}, counts)
}

// #endregion run-turn-tests
