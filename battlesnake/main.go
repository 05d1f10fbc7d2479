// Package main implements a Battlesnake API server driven by the goalsnek
// decision engine.
//
// Each /move picks a target from the configured personality, walks toward it
// with A* (or a Q-learner), and falls back to a legal move when that fails.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brensch/goalsnek/agent"
	"github.com/brensch/goalsnek/config"
	"github.com/brensch/goalsnek/learning"
	"github.com/brensch/goalsnek/logging"
	"github.com/brensch/goalsnek/session"
)

type flags struct {
	configPath   string
	listen       string
	personality  string
	scope        string
	snapshotPath string
	exportDir    string
	logLevel     string
	logFormat    string
	tui          bool
	tuiLog       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:          "battlesnake",
		Short:        "Serve the Battlesnake API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, f)
		},
	}

	bindFlags(cmd, &f)
	return cmd
}

func bindFlags(cmd *cobra.Command, f *flags) {
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "YAML config file")
	fl.StringVar(&f.listen, "listen", ":8080", "HTTP listen address")
	fl.StringVar(&f.personality, "personality", "headhunter", "hungry|timid|headhunter|snacky|qlearning")
	fl.StringVar(&f.scope, "learner-scope", "session", "session|shared")
	fl.StringVar(&f.snapshotPath, "snapshot", "", "Q-table parquet snapshot, loaded at start and saved after every game")
	fl.StringVar(&f.exportDir, "history-dir", "", "Directory for per-game opponent history parquet files")
	fl.StringVar(&f.logLevel, "log-level", "info", "trace|debug|info|warn|error")
	fl.StringVar(&f.logFormat, "log-format", "console", "console|json|pretty")
	fl.BoolVar(&f.tui, "tui", false, "Show a live dashboard; logs go to --tui-log")
	fl.StringVar(&f.tuiLog, "tui-log", "goalsnek.log", "Log file used while the dashboard is shown")
}

// loadConfig reads the config file and applies any flag the user set.
func loadConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	changed := cmd.Flags().Changed
	if changed("listen") {
		cfg.Server.Listen = f.listen
	}
	if changed("personality") {
		cfg.Agent.Personality = f.personality
	}
	if changed("learner-scope") {
		cfg.Learning.Scope = f.scope
	}
	if changed("snapshot") {
		cfg.Learning.SnapshotPath = f.snapshotPath
	}
	if changed("history-dir") {
		cfg.History.ExportDir = f.exportDir
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if f.tui {
		cfg.Log.Output = f.tuiLog
		cfg.Log.Format = "json"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newAgent builds the learner seed, the session registry and the agent.
func newAgent(cfg config.Config, logger zerolog.Logger) (*agent.Agent, *session.Registry, error) {
	personality, err := cfg.Personality()
	if err != nil {
		return nil, nil, err
	}
	scope, err := cfg.Scope()
	if err != nil {
		return nil, nil, err
	}

	seed := learning.New(cfg.LearnerConfig())
	if path := cfg.Learning.SnapshotPath; path != "" {
		switch err := seed.LoadSnapshot(path); {
		case err == nil:
			logger.Info().Str("path", path).Int("states", seed.Stats().States).Msg("loaded learner snapshot")
		case errors.Is(err, fs.ErrNotExist):
			logger.Info().Str("path", path).Msg("no learner snapshot yet, starting empty")
		default:
			return nil, nil, err
		}
	}

	registry := session.NewRegistry(scope, seed)
	a := agent.New(personality, registry,
		agent.WithClassifier(cfg.Classifier()),
		agent.WithGraphOptions(cfg.GraphOptions()),
	)
	return a, registry, nil
}

func run(ctx context.Context, cfg config.Config, f flags) error {
	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	a, registry, err := newAgent(cfg, logger)
	if err != nil {
		return err
	}
	server := NewServer(cfg, a, registry, logger)

	var events chan TurnEvent
	if f.tui {
		events = make(chan TurnEvent, 256)
		server.Publish(events)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("listen", cfg.Server.Listen).
			Str("personality", cfg.Agent.Personality).
			Str("learner_scope", cfg.Learning.Scope).
			Msg("battlesnake server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if f.tui {
		p := tea.NewProgram(newDashboard(cfg.Server.Listen, registry, events), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			logger.Error().Err(err).Msg("dashboard")
		}
		stop()
	}

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}
