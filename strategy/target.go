package strategy

import (
	"context"
	"fmt"
	"math"

	"github.com/brensch/goalsnek/game"
	"github.com/rs/zerolog"
)

// SelectTarget returns the coordinate the snake should move toward this turn.
// state must have the local snake first.
func SelectTarget(ctx context.Context, personality Personality, mode Mode, state *game.GameState, head game.Point) (game.Point, error) {
	var (
		target game.Point
		err    error
	)
	switch personality {
	case Snacky, QLearning:
		target, err = nearestFood(state, head)
	case HeadHunter:
		switch mode {
		case Eat:
			target, err = nearestFood(state, head)
		case Kill:
			target, err = nearestOpponentHead(state, head)
		default:
			return game.Point{}, fmt.Errorf("select target: unknown mode %v", mode)
		}
	case Hungry, Timid:
		return game.Point{}, fmt.Errorf("select target: %v has no targeting: %w", personality, ErrNoTargetAvailable)
	default:
		return game.Point{}, fmt.Errorf("select target: unknown %v", personality)
	}
	if err != nil {
		return game.Point{}, fmt.Errorf("select target for %v/%v: %w", personality, mode, err)
	}

	zerolog.Ctx(ctx).Debug().
		Int32("turn", state.Turn).
		Stringer("personality", personality).
		Stringer("mode", mode).
		Int32("target_x", target.X).
		Int32("target_y", target.Y).
		Msg("target selected")
	return target, nil
}

func distance(a, b game.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// nearestFood picks the closest food. With opponents on the board candidates
// are ordered by (own distance, closest opponent distance); the second key
// only separates food we are exactly equally close to. Ties keep the first
// food in board order.
func nearestFood(state *game.GameState, head game.Point) (game.Point, error) {
	if len(state.Food) == 0 {
		return game.Point{}, fmt.Errorf("nearest food: board has no food: %w", ErrNoTargetAvailable)
	}

	if len(state.Snakes) <= 1 {
		best := 0
		bestDist := distance(head, state.Food[0])
		for i := 1; i < len(state.Food); i++ {
			if d := distance(head, state.Food[i]); d < bestDist {
				best, bestDist = i, d
			}
		}
		return state.Food[best], nil
	}

	opponents := state.Opponents()
	best := -1
	var bestOwn, bestOpp float64
	for i, f := range state.Food {
		own := distance(head, f)
		opp := math.Inf(1)
		for j := range opponents {
			if len(opponents[j].Body) == 0 {
				continue
			}
			if d := distance(opponents[j].Head(), f); d < opp {
				opp = d
			}
		}
		if best < 0 || own < bestOwn || (own == bestOwn && opp < bestOpp) {
			best, bestOwn, bestOpp = i, own, opp
		}
	}
	return state.Food[best], nil
}

// nearestOpponentHead picks the closest opponent head, ignoring any opponent
// whose head sits on ours. Ties keep the first opponent in board order.
func nearestOpponentHead(state *game.GameState, head game.Point) (game.Point, error) {
	best := -1
	var bestDist float64
	opponents := state.Opponents()
	for i := range opponents {
		if len(opponents[i].Body) == 0 {
			continue
		}
		d := distance(head, opponents[i].Head())
		if d == 0 {
			continue
		}
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return game.Point{}, fmt.Errorf("nearest opponent head: no opponent to hunt: %w", ErrNoTargetAvailable)
	}
	return opponents[best].Head(), nil
}
