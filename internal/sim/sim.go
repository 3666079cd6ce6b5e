package sim

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/lexicon"
	"github.com/danielpatrickdp/turn-governor/internal/policy"
)

// #region config

// Config holds load weights and state thresholds.
type Config struct {
	Strained   float64
	Overloaded float64
	Protected  float64

	EmotionWeight, EmotionCap       float64
	ConfusionWeight, ConfusionCap   float64
	DependencyWeight, DependencyCap float64

	SanctuaryExecution float64 // execution asks on the containment-oriented tier
	BuildEmotion       float64 // emotional flooding on the execution-oriented tier
	BuildEmotionHits   int

	RecentDistress float64 // per distressed user turn in RecentWindow
	RecentWindow   int

	TokenUsageHigh float64
	TokenUsageLoad float64
	LatencyHigh    time.Duration
	LatencyLoad    float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Strained:           0.3,
		Overloaded:         0.6,
		Protected:          0.85,
		EmotionWeight:      0.08,
		EmotionCap:         0.4,
		ConfusionWeight:    0.1,
		ConfusionCap:       0.2,
		DependencyWeight:   0.12,
		DependencyCap:      0.25,
		SanctuaryExecution: 0.15,
		BuildEmotion:       0.1,
		BuildEmotionHits:   3,
		RecentDistress:     0.05,
		RecentWindow:       3,
		TokenUsageHigh:     0.8,
		TokenUsageLoad:     0.1,
		LatencyHigh:        8 * time.Second,
		LatencyLoad:        0.05,
	}
}

// #endregion config

// #region input

// System carries optional runtime signals. Zero values contribute nothing.
type System struct {
	TokenUsage float64 // share of the context budget used, 0-1
	Latency    time.Duration
}

// Input is everything SIM reads. It never reads the Decision for its score.
type Input struct {
	Decision decision.Decision
	Text     string
	History  []decision.Message
	Tier     decision.Tier
	System   System
}

// Interventions recorded in telemetry.
const (
	CapQuestions    = "cap_questions"
	CapDepth        = "cap_depth"
	CapChallenge    = "cap_challenge"
	SlowPace        = "slow_pace"
	CapMemory       = "cap_memory"
	SuppressUpgrade = "suppress_upgrade"
	ClearCodes      = "clear_codes"
	ForceSafety     = "force_safety_backend"
)

// #endregion input

// #region governor

// Governor is the signal-integrity meta-governor. It only ever restricts.
type Governor struct {
	config Config
	logger *zap.Logger
}

// New creates a Governor.
func New(config Config, logger *zap.Logger) *Governor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Governor{config: config, logger: logger.Named("sim")}
}

// Load computes the load score and whether crisis language is present.
func (g *Governor) Load(in Input) (float64, bool) {
	c := g.config
	lower := lexicon.Normalize(in.Text)
	crisis := lexicon.Any(lower, lexicon.Crisis)

	emotion := lexicon.Count(lower, lexicon.Emotional)
	load := math.Min(c.EmotionCap, c.EmotionWeight*float64(emotion))
	load += math.Min(c.ConfusionCap, c.ConfusionWeight*float64(lexicon.Count(lower, lexicon.Confusion)))
	load += math.Min(c.DependencyCap, c.DependencyWeight*float64(lexicon.Count(lower, lexicon.Dependency)))

	switch in.Tier {
	case decision.TierSanctuary:
		if lexicon.Any(lower, lexicon.ExecutionRequests) {
			load += c.SanctuaryExecution
		}
	case decision.TierBuild:
		if emotion >= c.BuildEmotionHits {
			load += c.BuildEmotion
		}
	}

	seen := 0
	for i := len(in.History) - 1; i >= 0 && seen < c.RecentWindow; i-- {
		if in.History[i].Role != decision.RoleUser {
			continue
		}
		seen++
		if policy.Distressed(in.History[i].Content) {
			load += c.RecentDistress
		}
	}

	if in.System.TokenUsage > c.TokenUsageHigh {
		load += c.TokenUsageLoad
	}
	if in.System.Latency > c.LatencyHigh {
		load += c.LatencyLoad
	}
	return math.Round(math.Max(0, math.Min(1, load))*1000) / 1000, crisis
}

// Classify maps a load score to a signal state before the tier cap.
func (g *Governor) Classify(load float64, crisis bool) decision.SignalState {
	switch {
	case crisis || load >= g.config.Protected:
		return decision.SignalProtected
	case load >= g.config.Overloaded:
		return decision.SignalOverloaded
	case load >= g.config.Strained:
		return decision.SignalStrained
	}
	return decision.SignalStable
}

// Apply scores the turn and returns a restricted copy of the Decision.
// The input Decision is never modified.
func (g *Governor) Apply(in Input) (decision.Decision, decision.Telemetry) {
	load, crisis := g.Load(in)
	crisis = crisis || in.Decision.Intent.Primary == decision.IntentCrisis
	signal := g.Classify(load, crisis)
	if in.Tier == decision.TierFree && !crisis && rank(signal) > rank(decision.SignalStrained) {
		signal = decision.SignalStrained
	}

	out := in.Decision.Clone()
	tel := decision.Telemetry{SignalState: signal, LoadScore: load, InterventionsApplied: []string{}}
	p := &out.Routing.Policy
	note := func(name string, changed bool) {
		if changed {
			tel.InterventionsApplied = append(tel.InterventionsApplied, name)
		}
	}

	if rank(signal) >= rank(decision.SignalStrained) {
		note(fmt.Sprintf("%s:%d", CapQuestions, 2), capQuestions(p, 2))
		note(CapDepth+":"+string(decision.DepthMedium), capDepth(p, decision.DepthMedium))
		note(CapChallenge+":"+string(decision.ChallengeGentle), capChallenge(p, decision.ChallengeGentle))
	}
	if rank(signal) >= rank(decision.SignalOverloaded) {
		note(fmt.Sprintf("%s:%d", CapQuestions, 1), capQuestions(p, 1))
		note(CapDepth+":"+string(decision.DepthLight), capDepth(p, decision.DepthLight))
		note(CapChallenge+":"+string(decision.ChallengeNone), capChallenge(p, decision.ChallengeNone))
		note(SlowPace, setSlow(p))
		note(CapMemory+":"+string(decision.MemorySession), capMemory(p, decision.MemorySession))
		tel.UpgradeSuppressed = true
		note(SuppressUpgrade, true)
	}
	if signal == decision.SignalProtected {
		note(fmt.Sprintf("%s:%d", CapQuestions, 0), capQuestions(p, 0))
		note(CapMemory+":"+string(decision.MemoryNone), capMemory(p, decision.MemoryNone))
		note(ClearCodes, len(out.Codes) > 0)
		out.Codes = []decision.CodeHit{}
		changed := forceSafety(p)
		note(ForceSafety, changed)
		tel.ModelRerouted = changed
	}
	if in.Tier == decision.TierSanctuary && rank(signal) >= rank(decision.SignalOverloaded) {
		note(ClearCodes, len(out.Codes) > 0)
		out.Codes = []decision.CodeHit{}
		note(ForceSafety, forceSafety(p))
		tel.ModelRerouted = true
	}

	g.logger.Debug("Applied signal integrity",
		zap.String("id", out.ID),
		zap.String("signal_state", string(signal)),
		zap.Float64("load", load),
		zap.Strings("interventions", tel.InterventionsApplied))
	return out, tel
}

// #endregion governor

// #region restrictions

var signalOrder = []decision.SignalState{
	decision.SignalStable, decision.SignalStrained, decision.SignalOverloaded, decision.SignalProtected,
}

func rank(s decision.SignalState) int {
	for i, v := range signalOrder {
		if v == s {
			return i
		}
	}
	return 0
}

var depthOrder = []decision.Depth{decision.DepthLight, decision.DepthMedium, decision.DepthDeep}
var challengeOrder = []decision.Challenge{decision.ChallengeNone, decision.ChallengeGentle, decision.ChallengeDirect}
var memoryOrder = []decision.MemoryUse{decision.MemoryNone, decision.MemorySession, decision.MemoryProfile, decision.MemoryPersistent}

func indexOf[T comparable](order []T, v T) int {
	for i, o := range order {
		if o == v {
			return i
		}
	}
	return len(order)
}

func capQuestions(p *decision.Policy, n int) bool {
	if p.QuestionsAllowed > n {
		p.QuestionsAllowed = n
		return true
	}
	return false
}

func capDepth(p *decision.Policy, limit decision.Depth) bool {
	if indexOf(depthOrder, p.Depth) > indexOf(depthOrder, limit) {
		p.Depth = limit
		return true
	}
	return false
}

func capChallenge(p *decision.Policy, limit decision.Challenge) bool {
	if indexOf(challengeOrder, p.Challenge) > indexOf(challengeOrder, limit) {
		p.Challenge = limit
		return true
	}
	return false
}

func capMemory(p *decision.Policy, limit decision.MemoryUse) bool {
	if indexOf(memoryOrder, p.MemoryUse) > indexOf(memoryOrder, limit) {
		p.MemoryUse = limit
		return true
	}
	return false
}

func setSlow(p *decision.Policy) bool {
	if p.Pace != decision.PaceSlow {
		p.Pace = decision.PaceSlow
		return true
	}
	return false
}

func forceSafety(p *decision.Policy) bool {
	if p.ModelOverride != decision.BackendSafety {
		p.ModelOverride = decision.BackendSafety
		return true
	}
	return false
}

// #endregion restrictions
