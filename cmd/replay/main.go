// Command replay caches recorded engine games and runs the decision engine
// over them, reporting how often it agrees with the snake that played.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brensch/goalsnek/agent"
	"github.com/brensch/goalsnek/learning"
	"github.com/brensch/goalsnek/logging"
	"github.com/brensch/goalsnek/replay"
	"github.com/brensch/goalsnek/session"
	"github.com/brensch/goalsnek/strategy"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	dbPath   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:          "replay",
		Short:        "Download recorded games and replay them through the agent",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.dbPath, "db", getEnvOrDefault("REPLAY_DB", "replay-data/games.db"), "SQLite game cache")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", getEnvOrDefault("LOG_LEVEL", "info"), "trace|debug|info|warn|error")

	root.AddCommand(newFetchCmd(&g), newRunCmd(&g))
	return root
}

// setup opens the logger and the store and returns a signal-aware context
// carrying the logger.
func setup(cmd *cobra.Command, g *globalFlags) (context.Context, *replay.Store, func(), error) {
	cfg := logging.DefaultConfig()
	cfg.Level = g.logLevel
	logger, closeLog, err := logging.New(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(g.dbPath), 0o755); err != nil {
		closeLog()
		return nil, nil, nil, err
	}
	store, err := replay.OpenStore(g.dbPath)
	if err != nil {
		closeLog()
		return nil, nil, nil, err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	cleanup := func() {
		stop()
		store.Close()
		closeLog()
	}
	return logger.WithContext(ctx), store, cleanup, nil
}

func newFetchCmd(g *globalFlags) *cobra.Command {
	var (
		statsURL string
		delay    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "fetch [game-id...]",
		Short: "Cache games by ID, or every game linked from a player stats page",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, store, cleanup, err := setup(cmd, g)
			if err != nil {
				return err
			}
			defer cleanup()
			log := zerolog.Ctx(ctx)

			ids := args
			if statsURL != "" {
				found, err := replay.NewDiscoverer().PlayerGames(ctx, statsURL)
				if err != nil {
					return fmt.Errorf("discover games: %w", err)
				}
				log.Info().Str("url", statsURL).Int("games", len(found)).Msg("discovered games")
				ids = append(ids, found...)
			}
			if len(ids) == 0 {
				return fmt.Errorf("pass game IDs or --stats-url")
			}

			d := replay.NewDownloader(replay.DefaultDownloaderConfig())
			var fetched, failed int
			for i, id := range ids {
				if i > 0 && delay > 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(delay):
					}
				}
				if _, frames, err := replay.Fetch(ctx, store, d, id); err != nil {
					failed++
					log.Warn().Err(err).Str("game_id", id).Msg("fetch failed")
				} else {
					fetched++
					log.Debug().Str("game_id", id).Int("frames", len(frames)).Msg("game available")
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fetched=%d failed=%d\n", fetched, failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&statsURL, "stats-url", "", "Player stats page to discover game IDs from")
	cmd.Flags().DurationVar(&delay, "delay", 500*time.Millisecond, "Delay between downloads")
	return cmd
}

func newRunCmd(g *globalFlags) *cobra.Command {
	var (
		gameID      string
		snake       string
		personality string
		verbose     bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay cached games through the agent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := strategy.ParsePersonality(personality)
			if err != nil {
				return err
			}
			ctx, store, cleanup, err := setup(cmd, g)
			if err != nil {
				return err
			}
			defer cleanup()

			ids := []string{gameID}
			if gameID == "" {
				if ids, err = store.GameIDs(); err != nil {
					return err
				}
			}

			a := agent.New(p, session.NewRegistry(session.ScopeShared, learning.New(learning.DefaultConfig())))
			out := cmd.OutOrStdout()
			var total replay.Summary
			for _, id := range ids {
				if err := ctx.Err(); err != nil {
					return err
				}
				s, err := replayGame(ctx, store, a, id, snake, verbose, out)
				if err != nil {
					zerolog.Ctx(ctx).Warn().Err(err).Str("game_id", id).Msg("skipping game")
					continue
				}
				total.Turns += s.Turns
				total.Compared += s.Compared
				total.Agreed += s.Agreed
				total.Fallbacks += s.Fallbacks
			}
			fmt.Fprintf(out, "total: %s\n", formatSummary(total))
			return nil
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "Game to replay; every cached game when empty")
	cmd.Flags().StringVar(&snake, "snake", "", "Snake ID or name to play as")
	cmd.Flags().StringVar(&personality, "personality", "headhunter", "hungry|timid|headhunter|snacky|qlearning")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every turn")
	_ = cmd.MarkFlagRequired("snake")
	return cmd
}

func replayGame(ctx context.Context, store *replay.Store, a *agent.Agent, gameID, snake string, verbose bool, out io.Writer) (replay.Summary, error) {
	rec, raw, err := store.LoadGame(gameID)
	if err != nil {
		return replay.Summary{}, err
	}
	frames, err := replay.ParseFrames(raw)
	if err != nil {
		return replay.Summary{}, err
	}
	snakeID, ok := resolveSnake(frames, snake)
	if !ok {
		return replay.Summary{}, fmt.Errorf("snake %q is not in game %s", snake, gameID)
	}

	results := replay.Run(ctx, a, rec, frames, snakeID)
	if verbose {
		for _, r := range results {
			actual := "-"
			if r.HasActual {
				actual = r.Actual.String()
			}
			mark := " "
			if r.Agrees() {
				mark = "="
			}
			fmt.Fprintf(out, "  turn %3d %s agent=%-5s actual=%-5s fallback=%t\n", r.Turn, mark, r.Decision.Direction, actual, r.Decision.Fallback)
		}
	}
	s := replay.Summarize(results)
	fmt.Fprintf(out, "%s: %s\n", gameID, formatSummary(s))
	return s, nil
}

// resolveSnake accepts either an engine snake ID or a display name.
func resolveSnake(frames []replay.FrameData, snake string) (string, bool) {
	if len(frames) == 0 {
		return "", false
	}
	for _, s := range frames[0].Snakes {
		if s.ID == snake || s.Name == snake {
			return s.ID, true
		}
	}
	return "", false
}

func formatSummary(s replay.Summary) string {
	pct := 0.0
	if s.Compared > 0 {
		pct = 100 * float64(s.Agreed) / float64(s.Compared)
	}
	return fmt.Sprintf("turns=%d agreed=%d/%d (%.1f%%) fallbacks=%d", s.Turns, s.Agreed, s.Compared, pct, s.Fallbacks)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
