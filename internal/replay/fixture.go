package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description   string                `json:"description"`
	Conversations []FixtureConversation `json:"conversations"`
}

// FixtureConversation is one scripted conversation. Its turns run in order.
type FixtureConversation struct {
	ID           string        `json:"id"`
	Tier         decision.Tier `json:"tier"`
	InBandAssist bool          `json:"in_band_assist,omitempty"`
	Turns        []FixtureTurn `json:"turns"`
}

// FixtureTurn carries the user text, the canned backend draft, and what the
// governor is expected to do with them.
type FixtureTurn struct {
	User         string      `json:"user"`
	Draft        string      `json:"draft"`
	BackendError string      `json:"backend_error,omitempty"`
	Expect       Expectation `json:"expect"`
}

// Expectation lists the checked outcome fields. Empty fields are not checked.
type Expectation struct {
	Arousal   decision.ArousalState `json:"arousal,omitempty"`
	Lead      decision.Lead         `json:"lead,omitempty"`
	Challenge decision.Challenge    `json:"challenge,omitempty"`
	Profile   decision.Backend      `json:"profile,omitempty"`
	Failure   decision.FailureMode  `json:"failure,omitempty"`
	Passed    *bool                 `json:"passed,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	seen := make(map[string]bool, len(f.Conversations))
	for i, c := range f.Conversations {
		if c.ID == "" {
			return fmt.Errorf("conversation %d has no id", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate conversation id %q", c.ID)
		}
		seen[c.ID] = true
		if !c.Tier.Valid() {
			return fmt.Errorf("conversation %q: unknown tier %q", c.ID, c.Tier)
		}
		if len(c.Turns) == 0 {
			return fmt.Errorf("conversation %q has no turns", c.ID)
		}
	}
	return nil
}

// #endregion fixture-loader
