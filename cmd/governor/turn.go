package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/turn-governor/internal/backend"
	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/governor"
	"github.com/danielpatrickdp/turn-governor/internal/server"
	"github.com/danielpatrickdp/turn-governor/internal/store"
)

// #region flags

var (
	turnTier         string
	turnText         string
	turnHistory      string
	turnConversation string
	turnAssist       bool
	turnRemote       string

	finalizeDraft      string
	finalizeBackendErr string

	chatTier string
)

func addTurnFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&turnTier, "tier", string(decision.TierFree), "subscription tier: free, sanctuary or build")
	cmd.Flags().StringVar(&turnText, "text", "", "current user message")
	cmd.Flags().StringVar(&turnHistory, "history", "", "JSON file with earlier messages [{role, content}]")
	cmd.Flags().StringVar(&turnConversation, "conversation", "", "conversation id")
	cmd.Flags().BoolVar(&turnAssist, "in-band-assist", false, "require an agency closing on the final text")
	cmd.Flags().StringVar(&turnRemote, "remote", "", "call a running governor server at this address instead of deciding locally")
	_ = cmd.MarkFlagRequired("text")
}

// #endregion flags

// #region commands

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Print the plan for one turn",
	Long: `Runs the pre-generation pipeline for one user message and prints the plan:
the decision record, model selection, signal telemetry, failure event and the
directive the backend would receive.

Example:
  governor decide --tier free --text "I can't breathe, everything is too much"`,
	RunE: runDecide,
}

var finalizeCmd = &cobra.Command{
	Use:   "finalize",
	Short: "Decide a turn and finalize a backend draft for it",
	Long: `Decides the turn, then runs the draft through contract verification,
compilation, drift checks, failure resolution and finalization. Prints the
outcome, including the user-facing text.

Example:
  governor finalize --text "be blunt, I'm stuck" --draft "[[VERA]]Start with one line.[[/VERA]]"`,
	RunE: runFinalize,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive governed conversation against Gemini",
	Long: `Reads user messages from stdin and runs each through the full turn:
decide, generate with the selected Gemini model, finalize. Requires
GEMINI_API_KEY. Every turn is recorded in the audit database.`,
	RunE: runChat,
}

func init() {
	addTurnFlags(decideCmd)
	addTurnFlags(finalizeCmd)
	finalizeCmd.Flags().StringVar(&finalizeDraft, "draft", "", "raw backend output")
	finalizeCmd.Flags().StringVar(&finalizeBackendErr, "backend-error", "", "simulate a failed backend call with this message")
	chatCmd.Flags().StringVar(&chatTier, "tier", string(decision.TierFree), "subscription tier: free, sanctuary or build")
}

func runDecide(cmd *cobra.Command, args []string) error {
	turn, err := buildTurn()
	if err != nil {
		return err
	}

	var plan governor.Plan
	if turnRemote != "" {
		client, err := server.NewClient(turnRemote)
		if err != nil {
			return err
		}
		defer client.Close()
		plan, err = client.Decide(cmd.Context(), turn)
		if err != nil {
			return err
		}
	} else {
		plan, err = governor.New(cfg.Governor(), nil, logger).Decide(cmd.Context(), turn)
		if err != nil {
			return err
		}
	}
	return printJSON(cmd.OutOrStdout(), plan)
}

func runFinalize(cmd *cobra.Command, args []string) error {
	turn, err := buildTurn()
	if err != nil {
		return err
	}

	var out governor.Outcome
	if turnRemote != "" {
		client, err := server.NewClient(turnRemote)
		if err != nil {
			return err
		}
		defer client.Close()
		out, err = client.Finalize(cmd.Context(), turn, nil, finalizeDraft, finalizeBackendErr)
		if err != nil {
			return err
		}
	} else {
		g := governor.New(cfg.Governor(), nil, logger)
		plan, err := g.Decide(cmd.Context(), turn)
		if err != nil {
			return err
		}
		var backendErr error
		if finalizeBackendErr != "" {
			backendErr = errors.New(finalizeBackendErr)
		}
		out = g.Finalize(cmd.Context(), turn, plan, finalizeDraft, backendErr)
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tier := decision.Tier(chatTier)
	if !tier.Valid() {
		return fmt.Errorf("unknown tier %q", chatTier)
	}

	client, err := backend.NewGenAI(ctx, cfg.Backend.APIKey, logger)
	if err != nil {
		return err
	}
	gen := backend.WithRetry(client, backend.MaxRetries, 500*time.Millisecond, logger)
	st, err := store.NewStore(cfg.DB)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	g := governor.New(cfg.Governor(), st, logger)
	return chatLoop(cmd, g, gen, tier)
}

// #endregion commands

// #region helpers

func chatLoop(cmd *cobra.Command, g *governor.Governor, gen backend.Generator, tier decision.Tier) error {
	w := cmd.OutOrStdout()
	conversation := uuid.NewString()
	var history []decision.Message

	fmt.Fprintf(w, "Governed chat ready (tier %s, conversation %s).\n", tier, conversation)
	fmt.Fprintln(w, "Type a message (or 'quit' to exit):")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(w, "> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "quit" || text == "exit" {
			break
		}

		turn := governor.Turn{
			ConversationID: conversation,
			Messages:       append(append([]decision.Message(nil), history...), decision.Message{Role: decision.RoleUser, Content: text}),
			Tier:           tier,
		}
		plan, out, err := g.RunTurn(cmd.Context(), turn, gen)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\n%s\n\n", out.Text)
		fmt.Fprintf(w, "[%s] state=%s lead=%s model=%s failure=%s\n",
			shortID(out.TurnID), out.Decision.State.Arousal, out.Decision.Routing.Lead, plan.Selection.Model, out.Failure.Mode)

		history = append(turn.Messages, decision.Message{Role: decision.RoleAssistant, Content: out.Text})
	}
	return scanner.Err()
}

func buildTurn() (governor.Turn, error) {
	var history []decision.Message
	if turnHistory != "" {
		data, err := os.ReadFile(turnHistory)
		if err != nil {
			return governor.Turn{}, fmt.Errorf("read history %s: %w", turnHistory, err)
		}
		if err := json.Unmarshal(data, &history); err != nil {
			return governor.Turn{}, fmt.Errorf("parse history %s: %w", turnHistory, err)
		}
	}
	return governor.Turn{
		ConversationID: turnConversation,
		Messages:       append(history, decision.Message{Role: decision.RoleUser, Content: turnText}),
		Tier:           decision.Tier(turnTier),
		InBandAssist:   turnAssist,
	}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion helpers
