// Package strategy picks what the snake goes after each turn and how it gets
// there.
//
// SelectTarget chooses a board coordinate from the personality and mode.
// Resolver turns the target into one cardinal move, either by searching the
// traversability grid or by asking a learned policy. Every failure is one of
// the sentinel errors in errors.go; nothing on a turn path panics.
package strategy

import (
	"fmt"
	"strings"
)

// Personality is the behaviour the snake is assigned for a whole game.
type Personality int

const (
	Hungry Personality = iota
	Timid
	HeadHunter
	Snacky
	QLearning
)

// Personalities lists every personality.
var Personalities = []Personality{Hungry, Timid, HeadHunter, Snacky, QLearning}

func (p Personality) String() string {
	switch p {
	case Hungry:
		return "hungry"
	case Timid:
		return "timid"
	case HeadHunter:
		return "headhunter"
	case Snacky:
		return "snacky"
	case QLearning:
		return "qlearning"
	}
	return fmt.Sprintf("personality(%d)", int(p))
}

// ParsePersonality accepts the String form, case-insensitively.
func ParsePersonality(s string) (Personality, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, p := range Personalities {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown personality %q", s)
}

// Mode is the short-term behaviour, recomputed every turn.
type Mode int

const (
	Eat Mode = iota
	Kill
)

func (m Mode) String() string {
	switch m {
	case Eat:
		return "eat"
	case Kill:
		return "kill"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}
