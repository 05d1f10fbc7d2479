package strategy

import (
	"context"
	"fmt"

	"github.com/brensch/goalsnek/game"
	"github.com/brensch/goalsnek/learning"
	"github.com/brensch/goalsnek/pathfind"
	"github.com/rs/zerolog"
)

// Policy is a learned mapping from (position, goal) to an action. Train
// mutates the policy; implementations must be safe for concurrent use.
type Policy interface {
	BestAction(s learning.State) (learning.Action, bool)
	Train(s learning.State)
	Query(s learning.State) (learning.Action, bool)
}

// Resolver turns a target into a move. Policy is only needed for QLearning.
type Resolver struct {
	Policy Policy
}

// Resolve returns the first move toward target. graph must be built from
// state for the snake whose head is head.
func (r Resolver) Resolve(ctx context.Context, personality Personality, target game.Point, graph *pathfind.Board, state *game.GameState, head game.Point) (game.Direction, error) {
	switch personality {
	case QLearning:
		return r.resolvePolicy(ctx, target, state, head)
	case Hungry, Timid, HeadHunter, Snacky:
		return resolvePath(ctx, target, graph, state, head)
	}
	return 0, fmt.Errorf("resolve move: unknown %v", personality)
}

func (r Resolver) resolvePolicy(ctx context.Context, target game.Point, state *game.GameState, head game.Point) (game.Direction, error) {
	if r.Policy == nil {
		return 0, fmt.Errorf("resolve move: no policy configured: %w", ErrNoPolicyAction)
	}
	s := learning.State{
		X: int(head.X), Y: int(head.Y),
		GoalX: int(target.X), GoalY: int(target.Y),
		Width: int(state.Width), Height: int(state.Height),
	}

	r.Policy.Train(s)
	action, ok := r.Policy.Query(s)
	if !ok {
		return 0, fmt.Errorf("resolve move: query %+v: %w", s, ErrNoPolicyAction)
	}

	dir, err := decodeAction(action)
	if err != nil {
		return 0, fmt.Errorf("resolve move: %w", err)
	}
	zerolog.Ctx(ctx).Debug().
		Int32("turn", state.Turn).
		Int("dx", action.DX).
		Int("dy", action.DY).
		Stringer("move", dir).
		Msg("policy action")
	return dir, nil
}

func decodeAction(a learning.Action) (game.Direction, error) {
	dir, ok := game.DirectionFromVector(game.Point{X: int32(a.DX), Y: int32(a.DY)})
	if !ok {
		return 0, fmt.Errorf("action (%d,%d): %w", a.DX, a.DY, ErrInvalidActionVector)
	}
	return dir, nil
}

func resolvePath(ctx context.Context, target game.Point, graph *pathfind.Board, state *game.GameState, head game.Point) (game.Direction, error) {
	start := graph.ToPosition(head)
	goal := graph.ToPosition(target)

	path, cost, ok := pathfind.AStar(
		start,
		graph.Successors,
		func(p pathfind.Position) int { return pathfind.Manhattan(p, goal) },
		func(p pathfind.Position) bool { return p == goal },
	)
	if !ok {
		return 0, fmt.Errorf("resolve move: no path from (%d,%d) to (%d,%d): %w", head.X, head.Y, target.X, target.Y, ErrTargetUnreachable)
	}
	if len(path) < 2 {
		return 0, fmt.Errorf("resolve move: target (%d,%d) is under the head: %w", target.X, target.Y, ErrTargetUnreachable)
	}

	step := graph.ToPoint(path[1])
	dir, ok := game.DirectionFromVector(step.Sub(head))
	if !ok {
		return 0, fmt.Errorf("resolve move: step (%d,%d) from (%d,%d): %w", step.X, step.Y, head.X, head.Y, ErrInvalidActionVector)
	}

	zerolog.Ctx(ctx).Debug().
		Int32("turn", state.Turn).
		Int("path_len", len(path)).
		Int("path_cost", cost).
		Int32("step_x", step.X).
		Int32("step_y", step.Y).
		Stringer("move", dir).
		Msg("path step")
	return dir, nil
}
