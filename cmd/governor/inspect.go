package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/turn-governor/internal/band"
	"github.com/danielpatrickdp/turn-governor/internal/store"
)

var (
	inspectDB           string
	inspectLast         int
	inspectTurn         string
	inspectConversation string
	inspectJSON         bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect recorded turns and failure events",
	Long: `Reads the audit database written by serve and chat.

Without --turn, lists the most recent turns and a per-mode failure count.
With --turn, prints the full decision record for one turn.`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectDB, "db", "", "path to the audit database (defaults to config db)")
	inspectCmd.Flags().IntVar(&inspectLast, "last", 20, "show N most recent turns")
	inspectCmd.Flags().StringVar(&inspectTurn, "turn", "", "show a single turn in detail")
	inspectCmd.Flags().StringVar(&inspectConversation, "conversation", "", "only turns from this conversation")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output as JSON instead of table")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := inspectDB
	if path == "" {
		path = cfg.DB
	}
	st, err := store.NewStore(path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	w := cmd.OutOrStdout()
	if inspectTurn != "" {
		return runDetailMode(w, st, inspectTurn)
	}
	return runListMode(w, st)
}

// #region list-mode

type listRow struct {
	TurnID       string  `json:"turn_id"`
	Conversation string  `json:"conversation_id,omitempty"`
	Tier         string  `json:"tier"`
	Intent       string  `json:"intent"`
	Arousal      string  `json:"arousal"`
	Confidence   float64 `json:"confidence"`
	Band         string  `json:"band"`
	Lead         string  `json:"lead"`
	Profile      string  `json:"profile"`
	Failure      string  `json:"failure"`
	Passed       bool    `json:"finalize_passed"`
	CreatedAt    string  `json:"created_at"`
}

func runListMode(w io.Writer, st *store.Store) error {
	turns, err := st.ListTurns(inspectConversation, inspectLast)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		fmt.Fprintln(w, "no turns found")
		return nil
	}

	// store returns newest first; print chronologically
	rows := make([]listRow, len(turns))
	for i, t := range turns {
		rows[len(turns)-1-i] = listRow{
			TurnID:       t.TurnID,
			Conversation: t.ConversationID,
			Tier:         string(t.Tier),
			Intent:       string(t.Decision.Intent.Primary),
			Arousal:      string(t.Decision.State.Arousal),
			Confidence:   t.Decision.State.Confidence,
			Band:         string(band.Dominant(t.Decision.Codes)),
			Lead:         string(t.Decision.Routing.Lead),
			Profile:      string(t.Selection.Profile),
			Failure:      string(t.Failure.Mode),
			Passed:       t.FinalizePassed,
			CreatedAt:    t.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if inspectJSON {
		return printJSON(w, rows)
	}

	fmt.Fprintf(w, "%-8s  %-9s  %-12s  %-12s  %5s  %-7s  %-4s  %-7s  %-22s  %-4s  %s\n",
		"Turn", "Tier", "Intent", "Arousal", "Conf", "Band", "Lead", "Profile", "Failure", "Pass", "Time")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for _, r := range rows {
		fmt.Fprintf(w, "%-8s  %-9s  %-12s  %-12s  %5.2f  %-7s  %-4s  %-7s  %-22s  %-4t  %s\n",
			shortID(r.TurnID), r.Tier, r.Intent, r.Arousal, r.Confidence, r.Band, r.Lead, r.Profile, r.Failure, r.Passed, r.CreatedAt)
	}

	counts, err := st.CountFailures()
	if err != nil {
		return err
	}
	if len(counts) > 0 {
		fmt.Fprintf(w, "\nFailure events (all time):\n")
		for _, c := range counts {
			fmt.Fprintf(w, "  %-22s %d\n", c.Mode, c.Count)
		}
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(w io.Writer, st *store.Store, turnID string) error {
	t, err := st.GetTurn(turnID)
	if err != nil {
		return err
	}
	if inspectJSON {
		return printJSON(w, t)
	}

	d := t.Decision
	fmt.Fprintf(w, "Turn:         %s\n", t.TurnID)
	fmt.Fprintf(w, "Conversation: %s\n", t.ConversationID)
	fmt.Fprintf(w, "Tier:         %s\n", t.Tier)
	fmt.Fprintf(w, "Created:      %s\n", t.CreatedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Fprintf(w, "Intent:       %s %v\n", d.Intent.Primary, d.Intent.Secondary)
	fmt.Fprintf(w, "State:        %s (%.2f) %v\n", d.State.Arousal, d.State.Confidence, d.State.Signals)
	fmt.Fprintf(w, "Routing:      lead=%s challenge=%s pace=%s depth=%s questions=%d\n",
		d.Routing.Lead, d.Routing.Policy.Challenge, d.Routing.Policy.Pace, d.Routing.Policy.Depth, d.Routing.Policy.QuestionsAllowed)
	fmt.Fprintf(w, "Model:        %s (%s) %s\n", t.Selection.Model, t.Selection.Profile, t.Selection.Reason)
	fmt.Fprintf(w, "Signals:      %s\n", t.Telemetry.SignalState)
	fmt.Fprintf(w, "Failure:      %s\n", t.Failure.Mode)
	for _, tr := range t.Failure.Triggers {
		fmt.Fprintf(w, "  trigger:    %s\n", tr)
	}
	fmt.Fprintf(w, "Finalized:    %t\n", t.FinalizePassed)
	if len(d.Codes) > 0 {
		fmt.Fprintf(w, "\nCodes:\n")
		for _, c := range d.Codes {
			fmt.Fprintf(w, "  %-6s %-3d %.2f\n", c.Band, c.Code, c.Confidence)
		}
	}
	return nil
}

// #endregion detail-mode
