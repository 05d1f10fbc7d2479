package strategy

import "github.com/brensch/goalsnek/game"

// Classifier decides the mode for the current turn.
type Classifier interface {
	Classify(state *game.GameState, you *game.Snake, personality Personality) Mode
}

// DefaultMinHealth is the health below which a HeadHunter stops hunting.
const DefaultMinHealth = 40

// DefaultClassifier hunts only when it is safe to win a head-to-head: a
// HeadHunter with at least MinHealth that is strictly longer than every
// opponent. Everyone else eats.
type DefaultClassifier struct {
	MinHealth int32
}

func (c DefaultClassifier) Classify(state *game.GameState, you *game.Snake, personality Personality) Mode {
	if personality != HeadHunter || you == nil {
		return Eat
	}
	opponents := 0
	for i := range state.Snakes {
		s := &state.Snakes[i]
		if s.Id == you.Id {
			continue
		}
		opponents++
		if s.Length() >= you.Length() {
			return Eat
		}
	}
	if opponents == 0 || you.Health < c.MinHealth {
		return Eat
	}
	return Kill
}
