package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/governor"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoad_MissingFileIsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestDefault_MatchesGovernorDefaults(t *testing.T) {
	if diff := cmp.Diff(governor.DefaultConfig(), Default().Governor()); diff != "" {
		t.Errorf("Default().Governor() drifted from governor.DefaultConfig() (-want +got):\n%s", diff)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "governor.yaml")
	writeFile(t, path, `
addr: ":6000"
enabled: false
in_band_assist: true
logging:
  level: debug
state:
  tie_window: 0.1
codes:
  max_hits: 2
backend:
  strict: gemini-2.5-flash
  timeout: 5s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":6000", cfg.Addr)
	require.False(t, cfg.Enabled)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, 0.1, cfg.State.TieWindow)
	require.Equal(t, 0.6, cfg.State.Override, "unset fields keep defaults")

	g := cfg.Governor()
	require.False(t, g.Enabled)
	require.True(t, g.InBandAssist)
	require.Equal(t, 5*time.Second, g.BackendTimeout)
	require.Equal(t, 2, g.Router.Codes.MaxHits)
	require.Equal(t, "gemini-2.5-flash", g.Selector.Models[decision.BackendStrict])
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GOVERNOR_DB", "/tmp/x.db")
	t.Setenv("GOVERNOR_ADDR", ":7000")
	t.Setenv("GOVERNOR_LOG_LEVEL", "warn")
	t.Setenv("GOVERNOR_ENABLED", "false")
	t.Setenv("GOVERNOR_BACKEND_TIMEOUT", "2s")
	t.Setenv("GEMINI_API_KEY", "key")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/tmp/x.db", cfg.DB)
	require.Equal(t, ":7000", cfg.Addr)
	require.Equal(t, "warn", cfg.Logging.Level)
	require.False(t, cfg.Enabled)
	require.Equal(t, 2*time.Second, cfg.Backend.Timeout)
	require.Equal(t, "key", cfg.Backend.APIKey)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{"bad-yaml", "state: [", nil},
		{"bad-level", "logging:\n  level: loud\n", nil},
		{"out-of-range", "codes:\n  decay: 1.5\n", nil},
		{"no-hits", "codes:\n  max_hits: -1\n", nil},
		{"bad-enabled", "", map[string]string{"GOVERNOR_ENABLED": "maybe"}},
		{"bad-timeout", "", map[string]string{"GOVERNOR_BACKEND_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "governor.yaml")
			writeFile(t, path, tt.yaml)
			if _, err := Load(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "governor.yaml")
	writeFile(t, path, "enabled: true\n")

	changes := make(chan *Config, 16)
	onChange := func(c *Config) {
		select {
		case changes <- c:
		default:
		}
	}
	w, err := NewWatcher(path, 20*time.Millisecond, onChange, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	writeFile(t, path, "logging:\n  level: loud\n")
	writeFile(t, path, "enabled: false\n")

	// A reload may observe the truncated file first; wait for the final content.
	deadline := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case cfg := <-changes:
			done = !cfg.Enabled
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
	w.Stop()
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)
	w, err := NewWatcher(filepath.Join(t.TempDir(), "governor.yaml"), time.Millisecond, func(*Config) {}, nil)
	require.NoError(t, err)
	w.Stop()
}
