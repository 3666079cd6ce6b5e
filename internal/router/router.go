package router

// #region imports
import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/turn-governor/internal/band"
	"github.com/danielpatrickdp/turn-governor/internal/codes"
	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/intent"
	"github.com/danielpatrickdp/turn-governor/internal/policy"
	"github.com/danielpatrickdp/turn-governor/internal/signals"
	"github.com/danielpatrickdp/turn-governor/internal/state"
)

// #endregion

// #region router-struct

// Router assembles the per-turn Decision from intent, state, codes and policy.
type Router struct {
	extractor signals.Extractor
	states    *state.Engine
	detector  *codes.Detector
	builder   *policy.Builder
	logger    *zap.Logger
	newID     func() string
}

// Config groups the stage configurations the router wires together.
type Config struct {
	Signals signals.Config
	State   state.Config
	Codes   codes.Config
	Policy  policy.Config
}

// DefaultConfig returns the default configuration of every stage.
func DefaultConfig() Config {
	return Config{
		Signals: signals.DefaultConfig(),
		State:   state.DefaultConfig(),
		Codes:   codes.DefaultConfig(),
		Policy:  policy.DefaultConfig(),
	}
}

// #endregion

// #region constructor

// New creates a fully wired Router over the lexical signal extractor.
func New(cfg Config, logger *zap.Logger) *Router {
	ex := signals.NewLexical(cfg.Signals)
	return NewWithExtractor(ex, cfg, logger)
}

// NewWithExtractor creates a Router over a caller-supplied extractor.
func NewWithExtractor(ex signals.Extractor, cfg Config, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		extractor: ex,
		states:    state.NewEngine(ex, cfg.State),
		detector:  codes.NewDetector(ex, cfg.Codes),
		builder:   policy.NewBuilder(cfg.Policy),
		logger:    logger.Named("router"),
		newID:     uuid.NewString,
	}
}

// #endregion

// #region assemble

// Input is one user turn with the history that precedes it.
type Input struct {
	Text    string
	History []decision.Message
	Tier    decision.Tier
}

// Assemble runs stages 1-5 and packages them into a fresh Decision.
// Prior user turns are scored once; state and code decay share the timeline.
func (r *Router) Assemble(in Input) decision.Decision {
	users := state.UserTurns(in.History)

	var prev []decision.Intent
	if len(users) > 0 {
		prev = append(prev, intent.Classify(users[len(users)-1]))
	}
	it := intent.Classify(in.Text, prev...)

	timeline := r.states.Timeline(users)
	st := r.states.Next(in.Text, users, timeline)
	hits := r.detector.Detect(in.Text, st, users, timeline)
	set := r.extractor.Extract(in.Text, users)

	routing := r.builder.Build(policy.Input{
		Text:     in.Text,
		History:  in.History,
		Tier:     in.Tier,
		Intent:   it,
		State:    st,
		Codes:    hits,
		Circular: set.Circular,
	})

	d := decision.Decision{
		ID:      r.newID(),
		Intent:  it,
		State:   st,
		Codes:   hits,
		Routing: routing,
	}.Clone()
	if d.Codes == nil {
		d.Codes = []decision.CodeHit{}
	}

	r.logger.Debug("Assembled decision",
		zap.String("id", d.ID),
		zap.String("intent", string(it.Primary)),
		zap.String("arousal", string(st.Arousal)),
		zap.Float64("confidence", st.Confidence),
		zap.String("band", string(band.Dominant(hits))),
		zap.String("lead", string(routing.Lead)),
		zap.String("rule", routing.Policy.Notes))
	return d
}

// #endregion
