package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/governor"
	"github.com/danielpatrickdp/turn-governor/internal/logging"
)

// #region config

// Config is the on-disk governor.yaml. Zero-valued sections keep their defaults.
type Config struct {
	DB           string         `yaml:"db"`
	Addr         string         `yaml:"addr"`
	Enabled      bool           `yaml:"enabled"`
	InBandAssist bool           `yaml:"in_band_assist"`
	Logging      logging.Config `yaml:"logging"`
	State        StateConfig    `yaml:"state"`
	Codes        CodesConfig    `yaml:"codes"`
	Backend      BackendConfig  `yaml:"backend"`
}

// StateConfig tunes state inference.
type StateConfig struct {
	TieWindow       float64 `yaml:"tie_window"`
	Override        float64 `yaml:"override"`
	AmbiguityWindow float64 `yaml:"ambiguity_window"`
	ConfidenceFloor float64 `yaml:"confidence_floor"`
	AmbiguousCap    float64 `yaml:"ambiguous_cap"`
	HistoryWindow   int     `yaml:"history_window"`
}

// CodesConfig tunes adaptive code detection.
type CodesConfig struct {
	Threshold  float64 `yaml:"threshold"`
	Decay      float64 `yaml:"decay"`
	MinWeight  float64 `yaml:"min_weight"`
	CarryShare float64 `yaml:"carry_share"`
	Lookback   int     `yaml:"lookback"`
	MaxHits    int     `yaml:"max_hits"`
}

// BackendConfig names the model behind each profile.
type BackendConfig struct {
	Safety  string        `yaml:"safety"`
	General string        `yaml:"general"`
	Strict  string        `yaml:"strict"`
	Timeout time.Duration `yaml:"timeout"`
	APIKey  string        `yaml:"-"` // GEMINI_API_KEY only
}

// Default returns the built-in configuration.
func Default() *Config {
	g := governor.DefaultConfig()
	st, cd, models := g.Router.State, g.Router.Codes, g.Selector.Models
	return &Config{
		DB:      "turn_governor.db",
		Addr:    "localhost:50051",
		Enabled: true,
		Logging: logging.DefaultConfig(),
		State: StateConfig{
			TieWindow:       st.TieWindow,
			Override:        st.OverrideThreshold,
			AmbiguityWindow: st.AmbiguityWindow,
			ConfidenceFloor: st.ConfidenceFloor,
			AmbiguousCap:    st.AmbiguousCap,
			HistoryWindow:   st.HistoryWindow,
		},
		Codes: CodesConfig{
			Threshold:  cd.Threshold,
			Decay:      cd.Decay,
			MinWeight:  cd.MinWeight,
			CarryShare: cd.CarryShare,
			Lookback:   cd.Lookback,
			MaxHits:    cd.MaxHits,
		},
		Backend: BackendConfig{
			Safety:  models[decision.BackendSafety],
			General: models[decision.BackendGeneral],
			Strict:  models[decision.BackendStrict],
			Timeout: g.BackendTimeout,
		},
	}
}

// #endregion config

// #region load

// Load reads path over the defaults, then applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	c.DB = envOr("GOVERNOR_DB", c.DB)
	c.Addr = envOr("GOVERNOR_ADDR", c.Addr)
	c.Logging.Level = envOr("GOVERNOR_LOG_LEVEL", c.Logging.Level)
	c.Backend.APIKey = envOr("GEMINI_API_KEY", c.Backend.APIKey)

	if v := os.Getenv("GOVERNOR_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GOVERNOR_ENABLED: %w", err)
		}
		c.Enabled = enabled
	}
	if v := os.Getenv("GOVERNOR_BACKEND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GOVERNOR_BACKEND_TIMEOUT: %w", err)
		}
		c.Backend.Timeout = d
	}
	return nil
}

// Validate rejects values no stage can run with.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend timeout must not be negative")
	}
	for name, v := range map[string]float64{
		"state.tie_window":       c.State.TieWindow,
		"state.override":         c.State.Override,
		"state.ambiguity_window": c.State.AmbiguityWindow,
		"state.confidence_floor": c.State.ConfidenceFloor,
		"state.ambiguous_cap":    c.State.AmbiguousCap,
		"codes.threshold":        c.Codes.Threshold,
		"codes.decay":            c.Codes.Decay,
		"codes.min_weight":       c.Codes.MinWeight,
		"codes.carry_share":      c.Codes.CarryShare,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0, 1], got %v", name, v)
		}
	}
	if c.Codes.MaxHits < 1 {
		return fmt.Errorf("codes.max_hits must be at least 1")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion load

// #region governor

// Governor maps the file onto the governor's stage configuration.
func (c *Config) Governor() governor.Config {
	g := governor.DefaultConfig()
	g.Enabled = c.Enabled
	g.InBandAssist = c.InBandAssist
	g.BackendTimeout = c.Backend.Timeout

	st := &g.Router.State
	st.TieWindow = c.State.TieWindow
	st.OverrideThreshold = c.State.Override
	st.AmbiguityWindow = c.State.AmbiguityWindow
	st.ConfidenceFloor = c.State.ConfidenceFloor
	st.AmbiguousCap = c.State.AmbiguousCap
	st.HistoryWindow = c.State.HistoryWindow

	cd := &g.Router.Codes
	cd.Threshold = c.Codes.Threshold
	cd.Decay = c.Codes.Decay
	cd.MinWeight = c.Codes.MinWeight
	cd.CarryShare = c.Codes.CarryShare
	cd.Lookback = c.Codes.Lookback
	cd.MaxHits = c.Codes.MaxHits

	g.Selector.Models = map[decision.Backend]string{
		decision.BackendSafety:  c.Backend.Safety,
		decision.BackendGeneral: c.Backend.General,
		decision.BackendStrict:  c.Backend.Strict,
	}
	return g
}

// #endregion governor
