package replay

import (
	"encoding/json"

	"github.com/brensch/goalsnek/game"
)

// GameEvent is one message from the engine event stream.
type GameEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// GameInfo is the payload of the "game_info" event.
type GameInfo struct {
	Game    GameDetails `json:"game"`
	Ruleset RulesetInfo `json:"ruleset"`
}

type GameDetails struct {
	ID      string `json:"id"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Timeout int    `json:"timeout"`
}

type RulesetInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// FrameData is the payload of a "frame" event.
type FrameData struct {
	Turn    int         `json:"turn"`
	Snakes  []SnakeData `json:"snakes"`
	Food    []Coord     `json:"food"`
	Hazards []Coord     `json:"hazards"`
}

type SnakeData struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Health int     `json:"health"`
	Body   []Coord `json:"body"`
	Death  *Death  `json:"death,omitempty"`
}

func (s SnakeData) alive() bool {
	return s.Death == nil && s.Health > 0 && len(s.Body) > 0
}

type Coord = game.Coord

type Death struct {
	Cause string `json:"cause"`
	Turn  int    `json:"turn"`
}

// determineWinner names the only snake alive in the final frame.
func determineWinner(frame *FrameData) string {
	if frame == nil {
		return "unknown"
	}
	var alive []SnakeData
	for _, s := range frame.Snakes {
		if s.alive() {
			alive = append(alive, s)
		}
	}
	if len(alive) == 1 {
		return alive[0].Name
	}
	return "draw"
}
