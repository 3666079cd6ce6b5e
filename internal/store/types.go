package store

import (
	"time"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
)

// #region turn-record
// TurnRecord is the audit row for one governed turn.
type TurnRecord struct {
	TurnID         string
	ConversationID string
	Tier           decision.Tier
	Decision       decision.Decision
	Selection      decision.ModelSelection
	Telemetry      decision.Telemetry
	Failure        decision.FailureEvent
	FinalizePassed bool
	CreatedAt      time.Time
}
// #endregion turn-record

// #region failure-record
// FailureRecord is a single row in the failure_events table.
type FailureRecord struct {
	ID        int64
	TurnID    string
	Mode      decision.FailureMode
	Triggers  []string
	Actions   []string
	CreatedAt time.Time
}
// #endregion failure-record

// #region mode-count
// ModeCount is the number of failure events per mode.
type ModeCount struct {
	Mode  decision.FailureMode
	Count int
}
// #endregion mode-count
