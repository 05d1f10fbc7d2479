// Package agent runs one turn of the decision pipeline: classify the mode,
// pick a target, resolve a move, and fall back to a legal move when any of
// that fails.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/brensch/goalsnek/game"
	"github.com/brensch/goalsnek/pathfind"
	"github.com/brensch/goalsnek/rules"
	"github.com/brensch/goalsnek/session"
	"github.com/brensch/goalsnek/strategy"
	"github.com/rs/zerolog"
)

// Decision is the outcome of one turn.
type Decision struct {
	Direction game.Direction
	Target    game.Point
	HasTarget bool
	Mode      strategy.Mode
	// Err is the reason the fallback was used. It is nil when Fallback is false.
	Err      error
	Fallback bool
	Elapsed  time.Duration
}

type Agent struct {
	personality strategy.Personality
	registry    *session.Registry
	classifier  strategy.Classifier
	graphOpts   pathfind.Options
}

type Option func(*Agent)

func WithClassifier(c strategy.Classifier) Option {
	return func(a *Agent) { a.classifier = c }
}

// WithGraphOptions sets the base grid options. OpenOpponentHeads is still
// forced on while hunting.
func WithGraphOptions(opts pathfind.Options) Option {
	return func(a *Agent) { a.graphOpts = opts }
}

func New(personality strategy.Personality, registry *session.Registry, opts ...Option) *Agent {
	a := &Agent{
		personality: personality,
		registry:    registry,
		classifier:  strategy.DefaultClassifier{MinHealth: strategy.DefaultMinHealth},
		graphOpts:   pathfind.DefaultOptions(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Agent) Personality() strategy.Personality { return a.personality }

// Move decides the move for the snake identified by state.YouId in game
// gameID. It never fails: errors are logged, reported on the Decision and
// replaced by the first legal move. state is not modified.
func (a *Agent) Move(ctx context.Context, gameID string, state *game.GameState) Decision {
	start := time.Now()
	log := zerolog.Ctx(ctx).With().Str("game_id", gameID).Int32("turn", state.Turn).Logger()
	ctx = log.WithContext(ctx)

	st := state.Clone()
	st.ReorderForYou()

	d, err := a.decide(ctx, gameID, st)
	if err != nil {
		d.Err = err
		d.Fallback = true
		d.Direction = fallbackMove(st)
		log.Warn().
			Err(err).
			Str("kind", strategy.ErrorKind(err)).
			Stringer("fallback", d.Direction).
			Msg("move resolution failed, using fallback")
	}
	d.Elapsed = time.Since(start)
	return d
}

func (a *Agent) decide(ctx context.Context, gameID string, st *game.GameState) (Decision, error) {
	var d Decision
	you := st.You()
	if you == nil || len(you.Body) == 0 {
		return d, fmt.Errorf("snake %q is not on the board", st.YouId)
	}
	head := you.Body[0]

	sess := a.registry.Get(gameID)
	sess.Ledger.Record(st.Turn, st.Opponents())

	d.Mode = a.classifier.Classify(st, you, a.personality)
	zerolog.Ctx(ctx).Debug().
		Stringer("personality", a.personality).
		Stringer("mode", d.Mode).
		Msg("mode classified")

	opts := a.graphOpts
	if d.Mode == strategy.Kill {
		opts.OpenOpponentHeads = true
	}
	graph := pathfind.Build(st, opts)

	target, err := strategy.SelectTarget(ctx, a.personality, d.Mode, st, head)
	if err != nil {
		return d, err
	}
	d.Target, d.HasTarget = target, true

	var resolver strategy.Resolver
	if sess.Learner != nil {
		resolver.Policy = sess.Learner
	}
	dir, err := resolver.Resolve(ctx, a.personality, target, graph, st, head)
	if err != nil {
		return d, err
	}
	d.Direction = dir
	return d, nil
}

// fallbackMove returns the first legal move, preferring cells without a
// hazard, or up when there is none.
func fallbackMove(state *game.GameState) game.Direction {
	legal := rules.GetPreferredMoves(state)
	if len(legal) == 0 {
		return game.MoveUp
	}
	return legal[0]
}
