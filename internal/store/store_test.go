package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeTurn(id, conv string, at time.Time, mode decision.FailureMode) TurnRecord {
	ev := decision.FailureEvent{Mode: mode, Triggers: []string{}, Actions: []string{}}
	if mode != decision.FailureNone {
		ev.Triggers = []string{"trigger:" + string(mode)}
		ev.Actions = []string{"force_lead_v"}
	}
	return TurnRecord{
		TurnID:         id,
		ConversationID: conv,
		Tier:           decision.TierBuild,
		Decision: decision.Decision{
			ID:     id,
			Intent: decision.Intent{Primary: decision.IntentTask, Secondary: []string{"question"}},
			State:  decision.State{Arousal: decision.Regulated, Confidence: 0.55, Signals: []string{}},
			Codes:  []decision.CodeHit{{Code: 101, Label: "procrastination_loop", Band: decision.B1, Confidence: 0.7}},
			Routing: decision.Routing{
				Lead:    decision.LeadN,
				Support: []decision.Lead{decision.LeadV},
				Policy:  decision.Policy{Tier: decision.TierBuild, Challenge: decision.ChallengeGentle, QuestionsAllowed: 2},
			},
		},
		Selection:      decision.ModelSelection{Profile: decision.BackendGeneral, Model: "gemini-2.5-flash", Reason: "lead_n_gentle"},
		Telemetry:      decision.Telemetry{SignalState: decision.SignalStable, InterventionsApplied: []string{}},
		Failure:        ev,
		FinalizePassed: mode == decision.FailureNone,
		CreatedAt:      at,
	}
}

func TestRecordAndGetTurn(t *testing.T) {
	s := tempDB(t)
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rec := makeTurn("turn-1", "conv-1", at, decision.FailureNone)

	if err := s.RecordTurn(rec); err != nil {
		t.Fatalf("RecordTurn: %v", err)
	}
	got, err := s.GetTurn("turn-1")
	if err != nil {
		t.Fatalf("GetTurn: %v", err)
	}
	if diff := cmp.Diff(rec, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	failures, err := s.ListFailures(10)
	if err != nil {
		t.Fatalf("ListFailures: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("expected no failure events, got %d", len(failures))
	}
}

func TestRecordTurnWithFailure(t *testing.T) {
	s := tempDB(t)
	rec := makeTurn("turn-2", "conv-1", time.Now().UTC(), decision.FailureOutputRisk)
	if err := s.RecordTurn(rec); err != nil {
		t.Fatalf("RecordTurn: %v", err)
	}

	got, err := s.GetTurn("turn-2")
	if err != nil {
		t.Fatalf("GetTurn: %v", err)
	}
	if got.Failure.Mode != decision.FailureOutputRisk {
		t.Fatalf("expected output_risk, got %s", got.Failure.Mode)
	}
	if len(got.Failure.Triggers) != 1 || got.Failure.Actions[0] != "force_lead_v" {
		t.Fatalf("unexpected failure event %+v", got.Failure)
	}
	if got.FinalizePassed {
		t.Fatal("expected finalize_passed=false")
	}
}

func TestRecordTurnUsesDecisionID(t *testing.T) {
	s := tempDB(t)
	rec := makeTurn("", "", time.Now().UTC(), decision.FailureNone)
	rec.Decision.ID = "from-decision"
	if err := s.RecordTurn(rec); err != nil {
		t.Fatalf("RecordTurn: %v", err)
	}
	if _, err := s.GetTurn("from-decision"); err != nil {
		t.Fatalf("GetTurn: %v", err)
	}

	rec.Decision.ID = ""
	if err := s.RecordTurn(rec); err == nil {
		t.Fatal("expected error for missing turn id")
	}
}

func TestRecordTurnDuplicateRejected(t *testing.T) {
	s := tempDB(t)
	rec := makeTurn("dup", "c", time.Now().UTC(), decision.FailureNone)
	if err := s.RecordTurn(rec); err != nil {
		t.Fatalf("RecordTurn: %v", err)
	}
	if err := s.RecordTurn(rec); err == nil {
		t.Fatal("expected primary key violation")
	}
}

func TestListTurns(t *testing.T) {
	s := tempDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		conv := "conv-1"
		if id == "c" {
			conv = "conv-2"
		}
		if err := s.RecordTurn(makeTurn(id, conv, base.Add(time.Duration(i)*time.Minute), decision.FailureNone)); err != nil {
			t.Fatalf("RecordTurn %s: %v", id, err)
		}
	}

	all, err := s.ListTurns("", 10)
	if err != nil {
		t.Fatalf("ListTurns: %v", err)
	}
	if len(all) != 3 || all[0].TurnID != "c" {
		t.Fatalf("expected newest first, got %d rows starting %q", len(all), all[0].TurnID)
	}
	if all[0].Failure.Mode != decision.FailureNone {
		t.Fatalf("expected listed failure mode none, got %q", all[0].Failure.Mode)
	}

	conv1, err := s.ListTurns("conv-1", 10)
	if err != nil {
		t.Fatalf("ListTurns: %v", err)
	}
	if len(conv1) != 2 || conv1[0].TurnID != "b" {
		t.Fatalf("expected b,a for conv-1, got %d rows", len(conv1))
	}

	limited, err := s.ListTurns("", 1)
	if err != nil {
		t.Fatalf("ListTurns: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 row, got %d", len(limited))
	}
}

func TestCountFailures(t *testing.T) {
	s := tempDB(t)
	modes := []decision.FailureMode{
		decision.FailureOutputRisk, decision.FailureOutputRisk, decision.FailureCodeConflict, decision.FailureNone,
	}
	for i, m := range modes {
		id := string(rune('a' + i))
		if err := s.RecordTurn(makeTurn(id, "c", time.Now().UTC(), m)); err != nil {
			t.Fatalf("RecordTurn: %v", err)
		}
	}

	counts, err := s.CountFailures()
	if err != nil {
		t.Fatalf("CountFailures: %v", err)
	}
	want := []ModeCount{{decision.FailureOutputRisk, 2}, {decision.FailureCodeConflict, 1}}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestGetTurnNotFound(t *testing.T) {
	s := tempDB(t)
	if _, err := s.GetTurn("missing"); err == nil {
		t.Fatal("expected error for missing turn")
	}
}
