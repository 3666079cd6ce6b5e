package governor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielpatrickdp/turn-governor/internal/compiler"
	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/failure"
	"github.com/danielpatrickdp/turn-governor/internal/nodrift"
	"github.com/danielpatrickdp/turn-governor/internal/router"
	"github.com/danielpatrickdp/turn-governor/internal/selector"
	"github.com/danielpatrickdp/turn-governor/internal/sim"
	"github.com/danielpatrickdp/turn-governor/internal/store"
)

// #region config

// Config wires every stage configuration plus the runtime switches.
type Config struct {
	Router   router.Config
	SIM      sim.Config
	Compiler compiler.Config
	NoDrift  nodrift.Config
	Failure  failure.Config
	Selector selector.Config

	Enabled        bool // false forces every turn onto the containment profile
	InBandAssist   bool // default for turns that do not set it
	BackendTimeout time.Duration
}

// DefaultConfig returns the default configuration of every stage.
func DefaultConfig() Config {
	return Config{
		Router:         router.DefaultConfig(),
		SIM:            sim.DefaultConfig(),
		Compiler:       compiler.DefaultConfig(),
		NoDrift:        nodrift.DefaultConfig(),
		Failure:        failure.DefaultConfig(),
		Selector:       selector.DefaultConfig(),
		Enabled:        true,
		BackendTimeout: 30 * time.Second,
	}
}

// RuleKillSwitch is the policy note recorded when the governor is disabled.
const RuleKillSwitch = "kill_switch"

// #endregion config

// #region turn

// ErrInvalidTurn is returned for malformed conversation input.
var ErrInvalidTurn = errors.New("invalid turn")

// Turn is one request: the ordered conversation ending with the user's
// current message.
type Turn struct {
	ConversationID string             `json:"conversation_id,omitempty"`
	Messages       []decision.Message `json:"messages"`
	Tier           decision.Tier      `json:"tier"`
	InBandAssist   bool               `json:"in_band_assist,omitempty"`
	System         sim.System         `json:"-"`
}

// Validate checks roles, tier and that the last message is a non-empty user turn.
func (t Turn) Validate() error {
	if len(t.Messages) == 0 {
		return fmt.Errorf("%w: no messages", ErrInvalidTurn)
	}
	for i, m := range t.Messages {
		if m.Role != decision.RoleUser && m.Role != decision.RoleAssistant {
			return fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidTurn, i, m.Role)
		}
	}
	last := t.Messages[len(t.Messages)-1]
	if last.Role != decision.RoleUser {
		return fmt.Errorf("%w: last message must be from the user", ErrInvalidTurn)
	}
	if strings.TrimSpace(last.Content) == "" {
		return fmt.Errorf("%w: empty turn text", ErrInvalidTurn)
	}
	if !t.Tier.Valid() {
		return fmt.Errorf("%w: unknown tier %q", ErrInvalidTurn, t.Tier)
	}
	return nil
}

// Text returns the current user message.
func (t Turn) Text() string {
	if len(t.Messages) == 0 {
		return ""
	}
	return t.Messages[len(t.Messages)-1].Content
}

// History returns the messages before the current one.
func (t Turn) History() []decision.Message {
	if len(t.Messages) == 0 {
		return nil
	}
	return t.Messages[:len(t.Messages)-1]
}

// #endregion turn

// #region results

// Plan is everything decided before generation.
type Plan struct {
	Decision  decision.Decision       `json:"decision"`
	Selection decision.ModelSelection `json:"model_selection"`
	Telemetry decision.Telemetry      `json:"telemetry"`
	Failure   decision.FailureEvent   `json:"failure"`
	Directive []string                `json:"directive"`
}

// Outcome is the finalized response for one turn.
type Outcome struct {
	TurnID      string                `json:"turn_id"`
	Text        string                `json:"text"`
	Passed      bool                  `json:"finalize_passed"`
	Reason      string                `json:"reason,omitempty"`
	Decision    decision.Decision     `json:"decision"`
	Failure     decision.FailureEvent `json:"failure"`
	ContractErr string                `json:"contract_error,omitempty"`
	BackendErr  string                `json:"backend_error,omitempty"`
	Compile     compiler.Result       `json:"compile"`
	NoDrift     nodrift.Verdict       `json:"no_drift"`
}

// Recorder persists governed turns. *store.Store satisfies it.
type Recorder interface {
	RecordTurn(rec store.TurnRecord) error
}

// #endregion results
