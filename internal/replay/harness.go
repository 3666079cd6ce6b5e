package replay

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/turn-governor/internal/backend"
	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/governor"
)

// #region types

// Result captures the outcome of replaying one fixture turn.
type Result struct {
	ConversationID string
	Index          int
	Plan           governor.Plan
	Outcome        governor.Outcome
	Mismatches     []string
}

// OK reports whether every checked expectation held.
func (r Result) OK() bool { return len(r.Mismatches) == 0 }

// Summary provides aggregate stats from a replay run.
type Summary struct {
	Conversations int
	Turns         int
	Passed        int
	Mismatched    int
	Failures      map[decision.FailureMode]int
}

// #endregion types

// #region replay

// Replay runs every conversation in f through g. Conversations run
// concurrently; turns within a conversation run in order and see the final
// text of earlier turns as history. Results keep fixture order.
func Replay(ctx context.Context, g *governor.Governor, f *Fixture, limit int) ([]Result, error) {
	perConv := make([][]Result, len(f.Conversations))

	eg, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i, conv := range f.Conversations {
		eg.Go(func() error {
			res, err := replayConversation(ctx, g, conv)
			if err != nil {
				return fmt.Errorf("conversation %s: %w", conv.ID, err)
			}
			perConv[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var results []Result
	for _, res := range perConv {
		results = append(results, res...)
	}
	return results, nil
}

func replayConversation(ctx context.Context, g *governor.Governor, conv FixtureConversation) ([]Result, error) {
	var history []decision.Message
	results := make([]Result, 0, len(conv.Turns))

	for i, ft := range conv.Turns {
		turn := governor.Turn{
			ConversationID: conv.ID,
			Messages:       append(append([]decision.Message(nil), history...), decision.Message{Role: decision.RoleUser, Content: ft.User}),
			Tier:           conv.Tier,
			InBandAssist:   conv.InBandAssist,
		}
		plan, out, err := g.RunTurn(ctx, turn, canned(ft))
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}

		results = append(results, Result{
			ConversationID: conv.ID,
			Index:          i,
			Plan:           plan,
			Outcome:        out,
			Mismatches:     check(ft.Expect, plan, out),
		})
		history = append(turn.Messages, decision.Message{Role: decision.RoleAssistant, Content: out.Text})
	}
	return results, nil
}

// canned answers with the fixture draft, or fails with the fixture backend error.
func canned(ft FixtureTurn) backend.Generator {
	return backend.GeneratorFunc(func(context.Context, backend.Request) (string, error) {
		if ft.BackendError != "" {
			return "", errors.New(ft.BackendError)
		}
		return ft.Draft, nil
	})
}

func check(want Expectation, plan governor.Plan, out governor.Outcome) []string {
	var mismatches []string
	diff := func(field string, want, got any) {
		mismatches = append(mismatches, fmt.Sprintf("%s: want %v, got %v", field, want, got))
	}

	d := out.Decision
	if want.Arousal != "" && want.Arousal != d.State.Arousal {
		diff("arousal", want.Arousal, d.State.Arousal)
	}
	if want.Lead != "" && want.Lead != d.Routing.Lead {
		diff("lead", want.Lead, d.Routing.Lead)
	}
	if want.Challenge != "" && want.Challenge != d.Routing.Policy.Challenge {
		diff("challenge", want.Challenge, d.Routing.Policy.Challenge)
	}
	if want.Profile != "" && want.Profile != plan.Selection.Profile {
		diff("profile", want.Profile, plan.Selection.Profile)
	}
	if want.Failure != "" && want.Failure != out.Failure.Mode {
		diff("failure", want.Failure, out.Failure.Mode)
	}
	if want.Passed != nil && *want.Passed != out.Passed {
		diff("passed", *want.Passed, out.Passed)
	}
	return mismatches
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []Result) Summary {
	s := Summary{Failures: make(map[decision.FailureMode]int)}
	convs := make(map[string]bool)
	for _, r := range results {
		convs[r.ConversationID] = true
		s.Turns++
		if r.OK() {
			s.Passed++
		} else {
			s.Mismatched++
		}
		if r.Outcome.Failure.Triggered() {
			s.Failures[r.Outcome.Failure.Mode]++
		}
	}
	s.Conversations = len(convs)
	return s
}

// #endregion replay
