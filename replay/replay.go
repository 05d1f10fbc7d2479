// Package replay downloads recorded Battlesnake games, caches them in SQLite
// and feeds them back through the agent turn by turn, so its choices can be
// compared with what a snake really did.
package replay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brensch/goalsnek/agent"
	"github.com/brensch/goalsnek/game"
)

// DefaultBoardSize is used when a game did not report its dimensions.
const DefaultBoardSize = 11

// ParseFrames decodes cached frames in order.
func ParseFrames(frames []Frame) ([]FrameData, error) {
	out := make([]FrameData, 0, len(frames))
	for _, f := range frames {
		var fd FrameData
		if err := json.Unmarshal([]byte(f.RawJSON), &fd); err != nil {
			return nil, fmt.Errorf("frame %d of %s: %w", f.Turn, f.GameID, err)
		}
		out = append(out, fd)
	}
	return out, nil
}

// FrameState rebuilds the board as snakeID saw it. Dead snakes are left out.
// It reports false when snakeID is not alive in the frame.
func FrameState(frame FrameData, snakeID string, width, height int) (*game.GameState, bool) {
	if width <= 0 {
		width = DefaultBoardSize
	}
	if height <= 0 {
		height = DefaultBoardSize
	}
	state := &game.GameState{
		Width:   int32(width),
		Height:  int32(height),
		YouId:   snakeID,
		Turn:    int32(frame.Turn),
		Food:    game.ToPoints(frame.Food),
		Hazards: game.ToPoints(frame.Hazards),
	}

	found := false
	for _, s := range frame.Snakes {
		if !s.alive() {
			continue
		}
		if s.ID == snakeID {
			found = true
		}
		state.Snakes = append(state.Snakes, game.Snake{Id: s.ID, Health: int32(s.Health), Body: game.ToPoints(s.Body)})
	}
	if !found {
		return nil, false
	}
	state.ReorderForYou()
	return state, true
}

// TurnResult compares the agent with the recorded snake for one turn.
type TurnResult struct {
	Turn     int
	Decision agent.Decision
	// Actual is the move the snake made, when the next frame shows it.
	Actual    game.Direction
	HasActual bool
}

// Agrees reports whether the agent picked the recorded move.
func (r TurnResult) Agrees() bool {
	return r.HasActual && r.Actual == r.Decision.Direction
}

// Run asks a for a move on every frame in which snakeID is alive. The game
// ID doubles as the agent session, so the opponent ledger and learner build
// up over the replay exactly as in a live game. Run stops once ctx is done
// and returns the turns decided so far.
func Run(ctx context.Context, a *agent.Agent, g Game, frames []FrameData, snakeID string) []TurnResult {
	var results []TurnResult
	for i, f := range frames {
		if ctx.Err() != nil {
			break
		}
		state, ok := FrameState(f, snakeID, g.Width, g.Height)
		if !ok {
			continue
		}
		r := TurnResult{Turn: f.Turn, Decision: a.Move(ctx, g.ID, state)}
		if i+1 < len(frames) {
			if next, ok := FrameState(frames[i+1], snakeID, g.Width, g.Height); ok {
				step := next.Snakes[0].Head().Sub(state.Snakes[0].Head())
				r.Actual, r.HasActual = game.DirectionFromVector(step)
			}
		}
		results = append(results, r)
	}
	return results
}

// Summary counts agreement and fallbacks over a replay.
type Summary struct {
	Turns     int
	Compared  int
	Agreed    int
	Fallbacks int
}

func Summarize(results []TurnResult) Summary {
	var s Summary
	for _, r := range results {
		s.Turns++
		if r.HasActual {
			s.Compared++
		}
		if r.Agrees() {
			s.Agreed++
		}
		if r.Decision.Fallback {
			s.Fallbacks++
		}
	}
	return s
}
