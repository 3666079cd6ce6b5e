package governor

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/turn-governor/internal/backend"
	"github.com/danielpatrickdp/turn-governor/internal/band"
	"github.com/danielpatrickdp/turn-governor/internal/compiler"
	"github.com/danielpatrickdp/turn-governor/internal/contract"
	"github.com/danielpatrickdp/turn-governor/internal/failure"
	"github.com/danielpatrickdp/turn-governor/internal/finalize"
	"github.com/danielpatrickdp/turn-governor/internal/lexicon"
	"github.com/danielpatrickdp/turn-governor/internal/nodrift"
	"github.com/danielpatrickdp/turn-governor/internal/policy"
	"github.com/danielpatrickdp/turn-governor/internal/router"
	"github.com/danielpatrickdp/turn-governor/internal/selector"
	"github.com/danielpatrickdp/turn-governor/internal/sim"
	"github.com/danielpatrickdp/turn-governor/internal/store"
)

// #endregion

// #region governor-struct

// Governor is the top-level coordinator: it composes every stage around one
// external backend call. It holds no per-conversation state.
type Governor struct {
	config   Config
	router   *router.Router
	sim      *sim.Governor
	selector *selector.Selector
	compiler *compiler.Compiler
	nodrift  *nodrift.Validator
	resolver *failure.Resolver
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// #endregion

// #region constructor

// New creates a fully wired Governor. rec may be nil to skip the audit log.
func New(cfg Config, rec Recorder, logger *zap.Logger) *Governor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Governor{
		config:   cfg,
		router:   router.New(cfg.Router, logger),
		sim:      sim.New(cfg.SIM, logger),
		selector: selector.New(cfg.Selector),
		compiler: compiler.New(cfg.Compiler, logger),
		nodrift:  nodrift.New(cfg.NoDrift),
		resolver: failure.NewResolver(cfg.Failure),
		recorder: rec,
		logger:   logger.Named("governor"),
		now:      time.Now,
	}
}

// Enabled reports whether the kill switch is off.
func (g *Governor) Enabled() bool {
	return g.config.Enabled
}

// Config returns the configuration the governor was built with.
func (g *Governor) Config() Config {
	return g.config
}

// #endregion

// #region decide

// Decide runs stages 1-8 and the pre-generation failure check.
// It only fails for malformed input.
func (g *Governor) Decide(ctx context.Context, turn Turn) (Plan, error) {
	if err := ctx.Err(); err != nil {
		return Plan{}, err
	}
	if err := turn.Validate(); err != nil {
		return Plan{}, err
	}
	text, history := turn.Text(), turn.History()

	d := g.router.Assemble(router.Input{Text: text, History: history, Tier: turn.Tier})
	if !g.config.Enabled {
		d.Routing = policy.Containment(RuleKillSwitch)
		d.Routing.Policy.Tier = turn.Tier
	}

	d, tel := g.sim.Apply(sim.Input{
		Decision: d,
		Text:     text,
		History:  history,
		Tier:     turn.Tier,
		System:   turn.System,
	})

	ev := g.resolver.Resolve(failure.Input{Text: text, History: history, Decision: d})
	d = failure.Apply(d, ev)
	sel := g.selector.Select(&d)

	g.logger.Debug("Planned turn",
		zap.String("id", d.ID),
		zap.String("text", text),
		zap.String("profile", string(sel.Profile)),
		zap.String("failure", string(ev.Mode)))

	return Plan{
		Decision:  d,
		Selection: sel,
		Telemetry: tel,
		Failure:   ev,
		Directive: backend.Directive(d),
	}, nil
}

// #endregion

// #region finalize

// Finalize checks the raw draft against the plan and always returns a
// user-safe text. backendErr is the error of the generation call, if any.
func (g *Governor) Finalize(ctx context.Context, turn Turn, plan Plan, raw string, backendErr error) Outcome {
	d := plan.Decision
	text, history := turn.Text(), turn.History()
	out := Outcome{TurnID: d.ID}

	in := failure.Input{Text: text, History: history, Decision: d, BackendErr: backendErr}
	var body string
	switch {
	case backendErr != nil:
		out.BackendErr = backendErr.Error()
	case ctx.Err() != nil:
		in.BackendErr = ctx.Err()
		out.BackendErr = ctx.Err().Error()
	default:
		parsed, err := contract.Verify(d.Routing.Lead, raw)
		if err != nil {
			in.ContractErr = err
			out.ContractErr = err.Error()
			g.logger.Warn("Contract violation", zap.String("id", d.ID), zap.Error(err))
		} else {
			body = parsed.Body()
		}
	}

	candidate := lexicon.SafetyFallback
	if in.BackendErr == nil && in.ContractErr == nil {
		out.Compile = g.compiler.Compile(body, d)
		in.CompilerBlocked = !out.Compile.OK
		out.NoDrift = g.nodrift.Evaluate(out.Compile.Text, d)
		in.NoDriftBlocked = out.NoDrift.Blocked
		candidate = out.NoDrift.Text
	}

	ev := g.resolver.Resolve(in)
	if failure.Substitutes(ev) && !lexicon.IsFallbackText(candidate) {
		candidate = lexicon.SafetyFallback
	}
	out.Failure, out.Decision = plan.Failure, d
	if ev.Triggered() {
		out.Failure = ev
		if ev.Mode != plan.Failure.Mode {
			out.Decision = failure.Apply(d, ev)
		}
	}

	assist := turn.InBandAssist || g.config.InBandAssist
	fin := finalize.Finalize(candidate, assist)
	out.Text, out.Passed, out.Reason = fin.Text, fin.Passed, fin.Reason
	// The draft never reached the user.
	if fin.Passed && lexicon.IsFallbackText(candidate) {
		out.Passed, out.Reason = false, finalize.ReasonFallback
	}

	g.record(turn, plan, out)
	return out
}

// #endregion

// #region run-turn

// RunTurn decides, calls gen under the configured timeout, and finalizes.
// A failed or timed-out call resolves to output_risk with the safety fallback.
func (g *Governor) RunTurn(ctx context.Context, turn Turn, gen backend.Generator) (Plan, Outcome, error) {
	plan, err := g.Decide(ctx, turn)
	if err != nil {
		return Plan{}, Outcome{}, err
	}

	callCtx := ctx
	if g.config.BackendTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.config.BackendTimeout)
		defer cancel()
	}

	raw, genErr := gen.Generate(callCtx, backend.Request{
		Model:   plan.Selection.Model,
		Rules:   plan.Directive,
		History: turn.History(),
		Text:    turn.Text(),
	})
	if genErr == nil && callCtx.Err() != nil {
		genErr = callCtx.Err()
	}
	if genErr != nil {
		if errors.Is(genErr, context.DeadlineExceeded) {
			genErr = fmt.Errorf("backend timeout after %s: %w", g.config.BackendTimeout, genErr)
		}
		g.logger.Warn("Backend call failed", zap.String("id", plan.Decision.ID), zap.Error(genErr))
	}

	return plan, g.Finalize(context.WithoutCancel(ctx), turn, plan, raw, genErr), nil
}

// #endregion

// #region record

func (g *Governor) record(turn Turn, plan Plan, out Outcome) {
	d := out.Decision
	g.logger.Info("Governed turn",
		zap.String("turn_id", out.TurnID),
		zap.String("intent", string(d.Intent.Primary)),
		zap.String("arousal", string(d.State.Arousal)),
		zap.Float64("confidence", d.State.Confidence),
		zap.String("band", string(band.Dominant(d.Codes))),
		zap.String("lead", string(d.Routing.Lead)),
		zap.String("challenge", string(d.Routing.Policy.Challenge)),
		zap.String("profile", string(plan.Selection.Profile)),
		zap.String("signal_state", string(plan.Telemetry.SignalState)),
		zap.String("failure_mode", string(out.Failure.Mode)),
		zap.Bool("finalize_passed", out.Passed))

	if g.recorder == nil {
		return
	}
	err := g.recorder.RecordTurn(store.TurnRecord{
		TurnID:         out.TurnID,
		ConversationID: turn.ConversationID,
		Tier:           turn.Tier,
		Decision:       d,
		Selection:      plan.Selection,
		Telemetry:      plan.Telemetry,
		Failure:        out.Failure,
		FinalizePassed: out.Passed,
		CreatedAt:      g.now().UTC(),
	})
	if err != nil {
		g.logger.Warn("Failed to record turn", zap.String("turn_id", out.TurnID), zap.Error(err))
	}
}

// #endregion
