// Package pathfind turns a board snapshot into a weighted traversability grid
// and searches it.
//
// Positions are row/column pairs with row 0 at the top of the board, so
// converting to and from game.Point flips the Y axis. Blocked cells are never
// offered as successors; the search itself knows nothing about snakes.
package pathfind

import (
	"github.com/brensch/goalsnek/game"
)

// Position is a cell in graph space.
type Position struct {
	Row int
	Col int
}

// Edge is one successor of a node with the cost of stepping onto it.
type Edge[N comparable] struct {
	To   N
	Cost int
}

// DefaultHeadDangerCost is the surcharge for entering a cell next to the head
// of an opponent at least as long as us.
const DefaultHeadDangerCost = 4

// Options controls how a board snapshot is turned into a grid.
type Options struct {
	// OpenOpponentHeads leaves opponent heads enterable so they can be targeted.
	OpenOpponentHeads bool
	// HeadDangerCost is added to the cost of cells adjacent to a dangerous head.
	HeadDangerCost int
	// BlockHazards removes hazard cells from the grid.
	BlockHazards bool
}

// DefaultOptions blocks hazards and prices head-adjacent cells.
func DefaultOptions() Options {
	return Options{HeadDangerCost: DefaultHeadDangerCost, BlockHazards: true}
}

// Board is an immutable weighted grid. A cost of 0 marks a blocked cell.
type Board struct {
	width  int
	height int
	cost   []int
}

// Build derives the grid for the snake at state.Snakes[0].
func Build(state *game.GameState, opts Options) *Board {
	w, h := int(state.Width), int(state.Height)
	b := &Board{width: w, height: h, cost: make([]int, w*h)}
	for i := range b.cost {
		b.cost[i] = 1
	}

	block := func(p game.Point) {
		if state.InBounds(p) {
			b.cost[b.index(p)] = 0
		}
	}

	if opts.BlockHazards {
		for _, hz := range state.Hazards {
			block(hz)
		}
	}

	var ourLength int
	if len(state.Snakes) > 0 {
		ourLength = len(state.Snakes[0].Body)
	}

	for i, s := range state.Snakes {
		n := len(s.Body)
		if n == 0 {
			continue
		}
		// The tail vacates this turn unless the snake just ate (stacked tail).
		last := n
		if n > 1 && s.Body[n-1] != s.Body[n-2] {
			last = n - 1
		}
		for j := 0; j < last; j++ {
			if j == 0 {
				if i == 0 {
					continue
				}
				if opts.OpenOpponentHeads {
					continue
				}
			}
			block(s.Body[j])
		}
	}

	if opts.HeadDangerCost > 0 {
		for _, s := range state.Snakes[min(1, len(state.Snakes)):] {
			if len(s.Body) == 0 || len(s.Body) < ourLength {
				continue
			}
			for _, d := range game.Directions {
				p := s.Body[0].Add(d.Vector())
				if !state.InBounds(p) {
					continue
				}
				if idx := b.index(p); b.cost[idx] > 0 {
					b.cost[idx] = 1 + opts.HeadDangerCost
				}
			}
		}
	}

	// The head is where every search starts; it is never an obstacle to itself.
	if len(state.Snakes) > 0 && len(state.Snakes[0].Body) > 0 && state.InBounds(state.Snakes[0].Body[0]) {
		idx := b.index(state.Snakes[0].Body[0])
		if b.cost[idx] == 0 {
			b.cost[idx] = 1
		}
	}

	return b
}

func (b *Board) index(p game.Point) int {
	return b.ToPosition(p).Row*b.width + int(p.X)
}

func (b *Board) Width() int  { return b.width }
func (b *Board) Height() int { return b.height }

// ToPosition converts a board coordinate to graph space.
func (b *Board) ToPosition(p game.Point) Position {
	return Position{Row: b.height - 1 - int(p.Y), Col: int(p.X)}
}

// ToPoint is the inverse of ToPosition.
func (b *Board) ToPoint(pos Position) game.Point {
	return game.Point{X: int32(pos.Col), Y: int32(b.height - 1 - pos.Row)}
}

func (b *Board) inside(pos Position) bool {
	return pos.Row >= 0 && pos.Row < b.height && pos.Col >= 0 && pos.Col < b.width
}

// Open reports whether pos can be entered.
func (b *Board) Open(pos Position) bool {
	return b.inside(pos) && b.cost[pos.Row*b.width+pos.Col] > 0
}

// Cost returns the price of entering pos, or 0 when it is blocked.
func (b *Board) Cost(pos Position) int {
	if !b.inside(pos) {
		return 0
	}
	return b.cost[pos.Row*b.width+pos.Col]
}

var neighbourOffsets = [4]Position{{Row: -1}, {Row: 1}, {Col: -1}, {Col: 1}}

// Successors returns the open orthogonal neighbours of pos.
func (b *Board) Successors(pos Position) []Edge[Position] {
	out := make([]Edge[Position], 0, 4)
	for _, off := range neighbourOffsets {
		next := Position{Row: pos.Row + off.Row, Col: pos.Col + off.Col}
		if c := b.Cost(next); c > 0 {
			out = append(out, Edge[Position]{To: next, Cost: c})
		}
	}
	return out
}

// Manhattan is the L1 distance between two positions. Every edge costs at
// least 1, so it never overestimates the remaining cost.
func Manhattan(a, b Position) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
