package codes

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/signals"
)

func newDetector(cfg Config) *Detector {
	return NewDetector(signals.NewLexical(signals.DefaultConfig()), cfg)
}

func regulated() decision.State { return decision.State{Arousal: decision.Regulated, Confidence: 0.6} }
func activated() decision.State { return decision.State{Arousal: decision.Activated, Confidence: 0.6} }
func dysregulated() decision.State { return decision.State{Arousal: decision.Dysregulated, Confidence: 0.8} }

// #region stage1-tests

func TestDetect_ProcrastinationWhenRegulated(t *testing.T) {
	got := newDetector(DefaultConfig()).Detect("Don't sugarcoat it, I'm procrastinating", regulated(), nil, nil)
	want := []decision.CodeHit{{Code: 101, Label: "procrastination_loop", Band: decision.B1, Confidence: 0.62}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Detect mismatch (-want +got):\n%s", diff)
	}
}

func TestDetect_AffinityPenaltyDropsBelowThreshold(t *testing.T) {
	got := newDetector(DefaultConfig()).Detect("Don't sugarcoat it, I'm procrastinating", dysregulated(), nil, nil)
	if len(got) != 0 {
		t.Errorf("fragile state should push a single B1 hit under threshold, got %+v", got)
	}
}

func TestDetect_NoHits(t *testing.T) {
	got := newDetector(DefaultConfig()).Detect("What a lovely afternoon", regulated(), nil, nil)
	if len(got) != 0 {
		t.Errorf("expected no codes, got %+v", got)
	}
}

// #endregion stage1-tests

// #region decay-tests

const priorProcrastination = "I keep putting off the report and procrastinating"

func TestDetect_DecaySeedsNewCandidate(t *testing.T) {
	users := []string{priorProcrastination}
	timeline := []decision.State{regulated()}
	got := newDetector(DefaultConfig()).Detect("Anyway what should I eat", regulated(), users, timeline)
	require.Len(t, got, 1)
	require.Equal(t, 101, got[0].Code)
	// 0.84 * 0.82
	require.InDelta(t, 0.689, got[0].Confidence, 0.0005)
}

func TestDetect_SeededCandidateSkipsThreshold(t *testing.T) {
	users := []string{priorProcrastination, "a", "b"}
	timeline := []decision.State{regulated(), regulated(), regulated()}
	got := newDetector(DefaultConfig()).Detect("Anyway what should I eat", regulated(), users, timeline)
	require.Len(t, got, 1)
	// 0.84 * 0.82^3, under the stage-1 threshold but over the min weight
	require.InDelta(t, 0.463, got[0].Confidence, 0.0005)
	require.Less(t, got[0].Confidence, DefaultConfig().Threshold)
}

func TestDetect_DecayCarriesIntoExisting(t *testing.T) {
	users := []string{priorProcrastination}
	timeline := []decision.State{regulated()}
	got := newDetector(DefaultConfig()).Detect("I'm procrastinating again", regulated(), users, timeline)
	require.Len(t, got, 1)
	// 0.62 + 0.35 * 0.6888
	require.InDelta(t, 0.861, got[0].Confidence, 0.0005)
}

func TestDetect_DecayBelowMinWeightDropped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinWeight = 0.7
	got := newDetector(cfg).Detect("Anyway what should I eat", regulated(), []string{priorProcrastination}, []decision.State{regulated()})
	require.Empty(t, got)
}

func TestDetect_LookbackBound(t *testing.T) {
	users := []string{priorProcrastination, "a", "b", "c", "d", "e"}
	timeline := make([]decision.State, len(users))
	for i := range timeline {
		timeline[i] = regulated()
	}
	got := newDetector(DefaultConfig()).Detect("Anyway what should I eat", regulated(), users, timeline)
	require.Empty(t, got, "detections older than the lookback must not contribute")
}

func TestDetect_NeedsTimelineState(t *testing.T) {
	got := newDetector(DefaultConfig()).Detect("Anyway what should I eat", regulated(), []string{priorProcrastination}, nil)
	require.Empty(t, got, "prior turns without an inferred state are skipped")
}

// #endregion decay-tests

// #region reducer-tests

func TestDetect_ActivatedDowngradesB4AndDropsWeakB1(t *testing.T) {
	got := newDetector(DefaultConfig()).Detect("I'm so angry I want to scream, and I keep putting off everything", activated(), nil, nil)
	require.Len(t, got, 1)
	require.Equal(t, 401, got[0].Code)
	require.Equal(t, decision.B2, got[0].Band)
	require.InDelta(t, 0.84, got[0].Confidence, 0.0005)
}

func TestDetect_ActivatedPenalizesB5(t *testing.T) {
	got := newDetector(DefaultConfig()).Detect("What if I say the wrong thing, I keep replaying it", activated(), nil, nil)
	require.Len(t, got, 2)
	require.Equal(t, 501, got[0].Code)
	require.InDelta(t, 0.76, got[0].Confidence, 0.0005)
	require.Equal(t, 502, got[1].Code)
	require.InDelta(t, 0.54, got[1].Confidence, 0.0005)
}

func TestSelectTop_OrderAndLimit(t *testing.T) {
	d := newDetector(DefaultConfig())
	in := []decision.CodeHit{
		{Code: 502, Confidence: 0.7},
		{Code: 101, Confidence: 0.9},
		{Code: 302, Confidence: 0.7},
		{Code: 201, Confidence: 0.6},
	}
	got := d.selectTop(in)
	var codes []int
	for _, h := range got {
		codes = append(codes, h.Code)
	}
	if diff := cmp.Diff([]int{101, 302, 502}, codes); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

// #endregion reducer-tests
