// Package arena plays local games between agents with the same simultaneous
// move rules the engine uses. It is how personalities are compared offline.
package arena

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/brensch/goalsnek/agent"
	"github.com/brensch/goalsnek/game"
	"github.com/brensch/goalsnek/rules"
	"github.com/brensch/goalsnek/session"
)

const (
	startLength = 3
	maxPlayers  = 8
)

type Config struct {
	Width    int32
	Height   int32
	MaxTurns int
	Food     game.FoodSettings
	// Seed drives start positions and food. Zero uses the clock.
	Seed   int64
	GameID string
	// OnTurn, when set, is called after every turn is resolved.
	OnTurn func(Turn)
}

func DefaultConfig() Config {
	return Config{
		Width:    11,
		Height:   11,
		MaxTurns: 500,
		Food:     game.DefaultFoodSettings,
	}
}

// Player is one snake in the arena. Name doubles as the snake ID.
type Player struct {
	Name  string
	Agent *agent.Agent
	// Sessions, when set, is the registry behind Agent. The player's session
	// is ended there once the game is over so its learner carries forward.
	Sessions *session.Registry
}

// Turn is what OnTurn sees.
type Turn struct {
	Number int32
	Moves  map[string]game.Direction
	Alive  int
}

type Result struct {
	GameID string
	// Winner is the last snake standing, empty on a draw.
	Winner    string
	Turns     int
	Fallbacks map[string]int
	Final     *game.GameState
}

// Play runs one game to completion. A solo game runs until the snake dies or
// MaxTurns is reached; otherwise the game ends when at most one snake is left.
func Play(ctx context.Context, cfg Config, players []Player) (Result, error) {
	if err := validate(cfg, players); err != nil {
		return Result{}, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	gameID := cfg.GameID
	if gameID == "" {
		gameID = fmt.Sprintf("arena_%d", seed)
	}
	log := zerolog.Ctx(ctx).With().Str("game_id", gameID).Logger()
	ctx = log.WithContext(ctx)

	byName := make(map[string]Player, len(players))
	for _, p := range players {
		byName[p.Name] = p
	}
	sessionID := func(name string) string { return gameID + "/" + name }
	defer func() {
		for _, p := range players {
			if p.Sessions != nil {
				p.Sessions.End(sessionID(p.Name))
			}
		}
	}()

	solo := len(players) == 1
	over := func(s *game.GameState) bool {
		if solo {
			return len(s.Snakes) == 0
		}
		return rules.IsGameOver(s)
	}

	state := initialState(cfg, players, rng)
	res := Result{GameID: gameID, Fallbacks: make(map[string]int, len(players))}

	for !over(state) && int(state.Turn) < cfg.MaxTurns {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			moves = make(map[string]game.Direction, len(state.Snakes))
		)
		for _, s := range state.Snakes {
			p := byName[s.Id]
			view := state.Clone()
			view.YouId = s.Id

			wg.Add(1)
			go func() {
				defer wg.Done()
				d := p.Agent.Move(ctx, sessionID(p.Name), view)
				mu.Lock()
				defer mu.Unlock()
				moves[p.Name] = d.Direction
				if d.Fallback {
					res.Fallbacks[p.Name]++
				}
			}()
		}
		wg.Wait()

		state = rules.NextStateSimultaneous(state, moves)
		game.ApplyFoodSettings(state, rng, cfg.Food)

		log.Debug().Int32("turn", state.Turn).Int("alive", len(state.Snakes)).Msg("turn resolved")
		if cfg.OnTurn != nil {
			cfg.OnTurn(Turn{Number: state.Turn, Moves: moves, Alive: len(state.Snakes)})
		}
	}

	if len(state.Snakes) == 1 {
		res.Winner = state.Snakes[0].Id
	}
	res.Turns = int(state.Turn)
	res.Final = state
	log.Info().Str("winner", res.Winner).Int("turns", res.Turns).Msg("arena game finished")
	return res, nil
}

func validate(cfg Config, players []Player) error {
	if len(players) == 0 {
		return errors.New("arena needs at least one player")
	}
	if len(players) > maxPlayers {
		return fmt.Errorf("arena supports at most %d players, got %d", maxPlayers, len(players))
	}
	if cfg.Width < 3 || cfg.Height < 3 {
		return fmt.Errorf("board %dx%d is too small", cfg.Width, cfg.Height)
	}
	if cfg.MaxTurns <= 0 {
		return errors.New("max turns must be positive")
	}
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if p.Name == "" || p.Agent == nil {
			return errors.New("every player needs a name and an agent")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate player %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// startPositions mirrors the standard layout: the four corners one cell in
// from the wall first, then the four edge midpoints. Each group is shuffled.
func startPositions(w, h int32, rng *rand.Rand) []game.Point {
	lo, hiX, hiY := int32(1), w-2, h-2
	midX, midY := (w-1)/2, (h-1)/2
	corners := []game.Point{{X: lo, Y: lo}, {X: lo, Y: hiY}, {X: hiX, Y: lo}, {X: hiX, Y: hiY}}
	edges := []game.Point{{X: lo, Y: midY}, {X: midX, Y: lo}, {X: midX, Y: hiY}, {X: hiX, Y: midY}}
	rng.Shuffle(len(corners), func(i, j int) { corners[i], corners[j] = corners[j], corners[i] })
	rng.Shuffle(len(edges), func(i, j int) { edges[i], edges[j] = edges[j], edges[i] })
	return append(corners, edges...)
}

func initialState(cfg Config, players []Player, rng *rand.Rand) *game.GameState {
	state := &game.GameState{
		Width:  cfg.Width,
		Height: cfg.Height,
		Food:   []game.Point{{X: (cfg.Width - 1) / 2, Y: (cfg.Height - 1) / 2}},
	}
	starts := startPositions(cfg.Width, cfg.Height, rng)
	for i, p := range players {
		body := make([]game.Point, startLength)
		for j := range body {
			body[j] = starts[i]
		}
		state.Snakes = append(state.Snakes, game.Snake{Id: p.Name, Health: 100, Body: body})
	}
	game.ApplyFoodSettings(state, rng, cfg.Food)
	return state
}
