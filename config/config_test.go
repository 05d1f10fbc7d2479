package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brensch/goalsnek/session"
	"github.com/brensch/goalsnek/strategy"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goalsnek.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	p, err := cfg.Personality()
	require.NoError(t, err)
	require.Equal(t, strategy.HeadHunter, p)

	scope, err := cfg.Scope()
	require.NoError(t, err)
	require.Equal(t, session.ScopeSession, scope)
	require.True(t, cfg.GraphOptions().BlockHazards)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: ":9000"
agent:
  personality: qlearning
  head_danger_cost: 2
learning:
  scope: shared
  episodes: 50
  snapshot_path: /tmp/q.parquet
history:
  export_dir: /tmp/history
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Server.Listen)
	require.Equal(t, "#888888", cfg.Server.Color, "unset fields keep defaults")
	require.Equal(t, "qlearning", cfg.Agent.Personality)
	require.Equal(t, 2, cfg.GraphOptions().HeadDangerCost)
	require.Equal(t, 50, cfg.LearnerConfig().Episodes)
	require.Equal(t, 0.2, cfg.LearnerConfig().Alpha)
	require.Equal(t, "/tmp/history", cfg.History.ExportDir)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"personality": "agent:\n  personality: greedy\n",
		"scope":       "learning:\n  scope: global\n",
		"alpha":       "learning:\n  alpha: 0\n",
		"episodes":    "learning:\n  episodes: 0\n",
		"color":       "server:\n  color: green\n",
		"log format":  "log:\n  format: xml\n",
		"yaml":        "agent: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
