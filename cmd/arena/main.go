// Command arena plays local games between personalities and prints a win
// tally.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brensch/goalsnek/agent"
	"github.com/brensch/goalsnek/arena"
	"github.com/brensch/goalsnek/config"
	"github.com/brensch/goalsnek/learning"
	"github.com/brensch/goalsnek/logging"
	"github.com/brensch/goalsnek/session"
	"github.com/brensch/goalsnek/strategy"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		players    []string
		games      int
		maxTurns   int
		seed       int64
		size       int32
		logLevel   string
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:          "arena",
		Short:        "Play local games between personalities",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			logger, closeLog, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer closeLog()

			roster, err := buildPlayers(cfg, players)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = logger.WithContext(ctx)

			acfg := arena.DefaultConfig()
			acfg.MaxTurns = maxTurns
			acfg.Width, acfg.Height = size, size
			if verbose {
				acfg.OnTurn = func(t arena.Turn) {
					fmt.Fprintf(cmd.OutOrStdout(), "  turn %3d | %d alive | %s\n", t.Number, t.Alive, formatMoves(t))
				}
			}
			return playSeries(ctx, cmd, acfg, roster, games, seed, logger)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&configPath, "config", "", "YAML config file (learning and graph settings)")
	fl.StringSliceVar(&players, "player", []string{"snacky", "headhunter"}, "Personality per snake, repeatable")
	fl.IntVar(&games, "games", 10, "Number of games to play")
	fl.IntVar(&maxTurns, "max-turns", 500, "Turn limit per game")
	fl.Int64Var(&seed, "seed", 0, "Seed of the first game, incremented per game; 0 uses the clock")
	fl.Int32Var(&size, "size", 11, "Board width and height")
	fl.StringVar(&logLevel, "log-level", "info", "trace|debug|info|warn|error")
	fl.BoolVarP(&verbose, "verbose", "v", false, "Print every turn")
	return cmd
}

// buildPlayers gives every snake its own registry so learners never share
// state across snakes. Learners persist from one game to the next.
func buildPlayers(cfg config.Config, names []string) ([]arena.Player, error) {
	roster := make([]arena.Player, 0, len(names))
	for i, name := range names {
		personality, err := strategy.ParsePersonality(name)
		if err != nil {
			return nil, err
		}
		lcfg := cfg.LearnerConfig()
		if lcfg.Seed != 0 {
			lcfg.Seed += int64(i)
		}
		reg := session.NewRegistry(session.ScopeSession, learning.New(lcfg))
		a := agent.New(personality, reg,
			agent.WithClassifier(cfg.Classifier()),
			agent.WithGraphOptions(cfg.GraphOptions()),
		)
		roster = append(roster, arena.Player{
			Name:     fmt.Sprintf("%d-%s", i+1, personality),
			Agent:    a,
			Sessions: reg,
		})
	}
	return roster, nil
}

func playSeries(ctx context.Context, cmd *cobra.Command, acfg arena.Config, roster []arena.Player, games int, seed int64, logger zerolog.Logger) error {
	wins := make(map[string]int, len(roster))
	fallbacks := make(map[string]int, len(roster))
	draws, turns := 0, 0

	for g := 0; g < games; g++ {
		if seed != 0 {
			acfg.Seed = seed + int64(g)
		}
		acfg.GameID = fmt.Sprintf("arena_%d", g+1)
		res, err := arena.Play(ctx, acfg, roster)
		if err != nil {
			return err
		}
		if res.Winner == "" {
			draws++
		} else {
			wins[res.Winner]++
		}
		for name, n := range res.Fallbacks {
			fallbacks[name] += n
		}
		turns += res.Turns
		logger.Info().Str("game_id", res.GameID).Str("winner", res.Winner).Int("turns", res.Turns).Msg("game complete")
		fmt.Fprintf(cmd.OutOrStdout(), "game %d: winner=%s turns=%d\n", g+1, orDraw(res.Winner), res.Turns)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%d games, %d draws, %.1f turns on average\n", games, draws, float64(turns)/float64(max(games, 1)))
	for _, p := range roster {
		fmt.Fprintf(out, "  %-16s wins=%-4d fallbacks=%d\n", p.Name, wins[p.Name], fallbacks[p.Name])
	}
	return nil
}

func formatMoves(t arena.Turn) string {
	ids := make([]string, 0, len(t.Moves))
	for id := range t.Moves {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	s := ""
	for i, id := range ids {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s→%s", id, t.Moves[id])
	}
	return s
}

func orDraw(winner string) string {
	if winner == "" {
		return "draw"
	}
	return winner
}
