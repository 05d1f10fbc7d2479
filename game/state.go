// Package game defines the core game state types for Battlesnake.
//
// These types are the board snapshot handed to the decision engine each turn.
// The state is cheap to clone so the arena and replay tools can advance it
// without aliasing the caller's slices.
package game

// Point is a board coordinate.
// Coordinates follow Battlesnake conventions: (0,0) is bottom-left.
type Point struct {
	X int32
	Y int32
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Sub returns the displacement from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Coord is a board coordinate as it appears on the wire, in both the
// Battlesnake API and the engine's event stream.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ToPoints converts wire coordinates. Empty input gives nil.
func ToPoints(cs []Coord) []Point {
	if len(cs) == 0 {
		return nil
	}
	out := make([]Point, len(cs))
	for i, c := range cs {
		out[i] = Point{X: int32(c.X), Y: int32(c.Y)}
	}
	return out
}

type Snake struct {
	Id     string
	Health int32
	Body   []Point
}

// Head returns the first body segment.
func (s *Snake) Head() Point {
	if len(s.Body) == 0 {
		return Point{}
	}
	return s.Body[0]
}

func (s *Snake) Length() int {
	return len(s.Body)
}

// GameState is one board snapshot.
// YouId selects the local snake; after ReorderForYou it is Snakes[0].
type GameState struct {
	Width   int32
	Height  int32
	Snakes  []Snake
	Food    []Point
	Hazards []Point
	YouId   string
	Turn    int32
}

// InBounds reports whether p lies on the board.
func (s *GameState) InBounds(p Point) bool {
	return p.X >= 0 && p.X < s.Width && p.Y >= 0 && p.Y < s.Height
}

// You returns the local snake, or nil if YouId is not on the board.
func (s *GameState) You() *Snake {
	for i := range s.Snakes {
		if s.Snakes[i].Id == s.YouId {
			return &s.Snakes[i]
		}
	}
	return nil
}

// Opponents returns every snake after the first. The caller is expected to
// have run ReorderForYou.
func (s *GameState) Opponents() []Snake {
	if len(s.Snakes) <= 1 {
		return nil
	}
	return s.Snakes[1:]
}

// ReorderForYou moves the snake matching YouId to the front of Snakes.
// The relative order of the others is kept so first-encountered tie breaks
// stay stable across turns.
func (s *GameState) ReorderForYou() {
	for i := range s.Snakes {
		if s.Snakes[i].Id != s.YouId || i == 0 {
			continue
		}
		you := s.Snakes[i]
		copy(s.Snakes[1:i+1], s.Snakes[0:i])
		s.Snakes[0] = you
		return
	}
}

// Clone performs a deep copy of the game state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}

	out := &GameState{
		Width:  s.Width,
		Height: s.Height,
		YouId:  s.YouId,
		Turn:   s.Turn,
	}

	if len(s.Food) > 0 {
		out.Food = make([]Point, len(s.Food))
		copy(out.Food, s.Food)
	}
	if len(s.Hazards) > 0 {
		out.Hazards = make([]Point, len(s.Hazards))
		copy(out.Hazards, s.Hazards)
	}

	if len(s.Snakes) > 0 {
		out.Snakes = make([]Snake, len(s.Snakes))
		for i := range s.Snakes {
			out.Snakes[i] = Snake{Id: s.Snakes[i].Id, Health: s.Snakes[i].Health}
			if len(s.Snakes[i].Body) > 0 {
				out.Snakes[i].Body = make([]Point, len(s.Snakes[i].Body))
				copy(out.Snakes[i].Body, s.Snakes[i].Body)
			}
		}
	}

	return out
}
