// Package rules implements the subset of the Battlesnake standard ruleset the
// agent needs: legal move generation for fallback moves and a simultaneous
// state advance for local games.
package rules

import (
	"github.com/brensch/goalsnek/game"
)

// HazardDamagePerTurn is the extra health a snake loses for ending a turn on a hazard.
const HazardDamagePerTurn = 14

// GetLegalMoves returns the moves for the snake identified by YouId that stay
// on the board and do not run into any body segment. The order follows
// game.Directions so callers can take the first entry as a stable default.
func GetLegalMoves(state *game.GameState) []game.Direction {
	you := state.You()
	if you == nil || you.Health <= 0 || len(you.Body) == 0 {
		return nil
	}

	head := you.Body[0]
	moves := make([]game.Direction, 0, 4)
	for _, d := range game.Directions {
		if isSafe(state, head.Add(d.Vector())) {
			moves = append(moves, d)
		}
	}
	return moves
}

// GetPreferredMoves is GetLegalMoves with moves onto hazards placed after
// every hazard-free move. Relative order is otherwise kept.
func GetPreferredMoves(state *game.GameState) []game.Direction {
	legal := GetLegalMoves(state)
	if len(legal) == 0 || len(state.Hazards) == 0 {
		return legal
	}
	hazards := make(map[game.Point]bool, len(state.Hazards))
	for _, h := range state.Hazards {
		hazards[h] = true
	}

	head := state.You().Body[0]
	moves := make([]game.Direction, 0, len(legal))
	var risky []game.Direction
	for _, d := range legal {
		if hazards[head.Add(d.Vector())] {
			risky = append(risky, d)
			continue
		}
		moves = append(moves, d)
	}
	return append(moves, risky...)
}

// isSafe treats tails as occupied: we cannot know whether their owner eats
// this turn.
func isSafe(state *game.GameState, p game.Point) bool {
	if !state.InBounds(p) {
		return false
	}
	for _, s := range state.Snakes {
		for _, bp := range s.Body {
			if bp == p {
				return false
			}
		}
	}
	return true
}

// NextStateSimultaneous advances the game state with one move per snake.
// Snakes without a move are eliminated. Eliminated snakes are dropped from
// the returned state.
func NextStateSimultaneous(state *game.GameState, moves map[string]game.Direction) *game.GameState {
	next := state.Clone()
	next.Turn++

	// 1. Move heads.
	heads := make(map[string]game.Point, len(next.Snakes))
	for i := range next.Snakes {
		s := &next.Snakes[i]
		mv, ok := moves[s.Id]
		if !ok || s.Health <= 0 || len(s.Body) == 0 {
			continue
		}
		heads[s.Id] = s.Body[0].Add(mv.Vector())
	}

	// 2. Feed, grow and drain health.
	eaten := make(map[game.Point]bool)
	for _, h := range heads {
		for _, f := range next.Food {
			if f == h {
				eaten[f] = true
			}
		}
	}
	hazards := make(map[game.Point]bool, len(next.Hazards))
	for _, h := range next.Hazards {
		hazards[h] = true
	}

	dead := make(map[string]bool)
	for i := range next.Snakes {
		s := &next.Snakes[i]
		head, ok := heads[s.Id]
		if !ok {
			dead[s.Id] = true
			continue
		}

		body := make([]game.Point, 0, len(s.Body)+1)
		body = append(body, head)
		body = append(body, s.Body...)
		if eaten[head] {
			s.Health = 100
		} else {
			s.Health--
			if hazards[head] {
				s.Health -= HazardDamagePerTurn
			}
			body = body[:len(body)-1]
		}
		s.Body = body
		if s.Health <= 0 {
			dead[s.Id] = true
		}
	}

	if len(eaten) > 0 {
		remaining := make([]game.Point, 0, len(next.Food))
		for _, f := range next.Food {
			if !eaten[f] {
				remaining = append(remaining, f)
			}
		}
		next.Food = remaining
	}

	// 3. Collisions are judged against post-move bodies of snakes that
	// survived step 2.
	starved := make(map[string]bool, len(dead))
	for id := range dead {
		starved[id] = true
	}
	for _, s := range next.Snakes {
		if dead[s.Id] {
			continue
		}
		head := s.Body[0]
		if !next.InBounds(head) {
			dead[s.Id] = true
			continue
		}
		for _, other := range next.Snakes {
			if starved[other.Id] {
				continue
			}
			for i, p := range other.Body {
				if i == 0 {
					continue
				}
				if p == head {
					dead[s.Id] = true
				}
			}
		}
	}

	// 4. Head to head: the shorter snake loses, equal lengths both die.
	for i := range next.Snakes {
		a := next.Snakes[i]
		if starved[a.Id] {
			continue
		}
		for j := i + 1; j < len(next.Snakes); j++ {
			b := next.Snakes[j]
			if starved[b.Id] || a.Body[0] != b.Body[0] {
				continue
			}
			switch {
			case len(a.Body) > len(b.Body):
				dead[b.Id] = true
			case len(b.Body) > len(a.Body):
				dead[a.Id] = true
			default:
				dead[a.Id] = true
				dead[b.Id] = true
			}
		}
	}

	alive := make([]game.Snake, 0, len(next.Snakes))
	for _, s := range next.Snakes {
		if !dead[s.Id] {
			alive = append(alive, s)
		}
	}
	next.Snakes = alive

	return next
}

// IsGameOver returns true once at most one snake is left.
func IsGameOver(state *game.GameState) bool {
	return len(state.Snakes) <= 1
}
