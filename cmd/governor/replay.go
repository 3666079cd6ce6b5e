package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/governor"
	"github.com/danielpatrickdp/turn-governor/internal/replay"
)

var (
	replayFixture  string
	replayParallel int
	replayJSON     bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a conversation fixture and report drift",
	Long: `Runs every conversation in a JSON fixture through the governor with the
fixture's canned backend drafts, and compares each turn against its
expectations. Exits non-zero when any turn drifted.

Example:
  governor replay --fixture internal/replay/testdata/conversations.json`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayFixture, "fixture", "", "path to fixture JSON")
	replayCmd.Flags().IntVar(&replayParallel, "parallel", 4, "conversations replayed at once (0 = unlimited)")
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "output results as JSON")
	_ = replayCmd.MarkFlagRequired("fixture")
}

type replayRow struct {
	Conversation string   `json:"conversation"`
	Turn         int      `json:"turn"`
	Arousal      string   `json:"arousal"`
	Lead         string   `json:"lead"`
	Profile      string   `json:"profile"`
	Failure      string   `json:"failure"`
	Passed       bool     `json:"finalize_passed"`
	Mismatches   []string `json:"mismatches,omitempty"`
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := replay.LoadFixture(replayFixture)
	if err != nil {
		return err
	}

	results, err := replay.Replay(cmd.Context(), governor.New(cfg.Governor(), nil, logger), f, replayParallel)
	if err != nil {
		return err
	}

	rows := make([]replayRow, len(results))
	for i, r := range results {
		rows[i] = replayRow{
			Conversation: r.ConversationID,
			Turn:         r.Index,
			Arousal:      string(r.Outcome.Decision.State.Arousal),
			Lead:         string(r.Outcome.Decision.Routing.Lead),
			Profile:      string(r.Plan.Selection.Profile),
			Failure:      string(r.Outcome.Failure.Mode),
			Passed:       r.Outcome.Passed,
			Mismatches:   r.Mismatches,
		}
	}
	s := replay.Summarize(results)

	w := cmd.OutOrStdout()
	if replayJSON {
		if err := printJSON(w, rows); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "%-16s  %4s  %-12s  %4s  %-8s  %-22s  %s\n",
			"Conversation", "Turn", "Arousal", "Lead", "Profile", "Failure", "Result")
		for _, r := range rows {
			result := "ok"
			if len(r.Mismatches) > 0 {
				result = fmt.Sprintf("DRIFT %v", r.Mismatches)
			}
			fmt.Fprintf(w, "%-16s  %4d  %-12s  %4s  %-8s  %-22s  %s\n",
				r.Conversation, r.Turn, r.Arousal, r.Lead, r.Profile, r.Failure, result)
		}

		fmt.Fprintf(w, "\n%d conversations, %d turns, %d ok, %d drifted\n", s.Conversations, s.Turns, s.Passed, s.Mismatched)
		modes := make([]decision.FailureMode, 0, len(s.Failures))
		for m := range s.Failures {
			modes = append(modes, m)
		}
		slices.Sort(modes)
		for _, m := range modes {
			fmt.Fprintf(w, "  %-22s %d\n", m, s.Failures[m])
		}
	}

	if s.Mismatched > 0 {
		return fmt.Errorf("%d turn(s) drifted from fixture expectations", s.Mismatched)
	}
	return nil
}
