package replay

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/governor"
)

// #region fixture-tests

// TestFixture_Conversations replays the regression fixture and fails on any
// turn whose outcome drifted from its expectation.
func TestFixture_Conversations(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "conversations.json"))
	require.NoError(t, err)

	g := governor.New(governor.DefaultConfig(), nil, nil)
	results, err := Replay(context.Background(), g, f, 2)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for _, r := range results {
		if !r.OK() {
			t.Errorf("%s turn %d: %v", r.ConversationID, r.Index, r.Mismatches)
		}
	}

	// fixture order is kept even though conversations run concurrently
	require.Equal(t, "panic", results[0].ConversationID)
	require.Equal(t, 1, results[1].Index)
	require.Equal(t, "outage", results[3].ConversationID)

	s := Summarize(results)
	require.Equal(t, 3, s.Conversations)
	require.Equal(t, 4, s.Turns)
	require.Equal(t, 1, s.Failures[decision.FailureOutputRisk])
}

func TestReplay_ReportsMismatch(t *testing.T) {
	f := &Fixture{Conversations: []FixtureConversation{{
		ID:   "wrong",
		Tier: decision.TierFree,
		Turns: []FixtureTurn{{
			User:   "I can't breathe, I'm panicking, everything is too much",
			Draft:  "[[VERA]]I'm here with you.[[/VERA]]",
			Expect: Expectation{Lead: decision.LeadN, Profile: decision.BackendStrict},
		}},
	}}}

	results, err := Replay(context.Background(), governor.New(governor.DefaultConfig(), nil, nil), f, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.False(t, results[0].OK())
	require.Len(t, results[0].Mismatches, 2)
	require.Equal(t, 1, Summarize(results).Mismatched)
}

func TestReplay_InvalidTurnStopsRun(t *testing.T) {
	f := &Fixture{Conversations: []FixtureConversation{{
		ID:    "blank",
		Tier:  decision.TierFree,
		Turns: []FixtureTurn{{User: "   "}},
	}}}

	_, err := Replay(context.Background(), governor.New(governor.DefaultConfig(), nil, nil), f, 0)
	require.ErrorIs(t, err, governor.ErrInvalidTurn)
}

func TestLoadFixture_NotFound(t *testing.T) {
	_, err := LoadFixture("testdata/nonexistent.json")
	require.Error(t, err)
}

func TestLoadFixture_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", "{not valid json}"},
		{"no-id", `{"conversations":[{"tier":"free","turns":[{"user":"hi"}]}]}`},
		{"duplicate", `{"conversations":[{"id":"a","tier":"free","turns":[{"user":"hi"}]},{"id":"a","tier":"free","turns":[{"user":"hi"}]}]}`},
		{"bad-tier", `{"conversations":[{"id":"a","tier":"gold","turns":[{"user":"hi"}]}]}`},
		{"no-turns", `{"conversations":[{"id":"a","tier":"free"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := LoadFixture(path)
			require.Error(t, err)
		})
	}
}

// #endregion fixture-tests
