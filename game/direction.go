package game

// Direction is one of the four cardinal moves.
type Direction int

const (
	MoveUp Direction = iota
	MoveDown
	MoveLeft
	MoveRight
)

// Directions lists every move in protocol order.
var Directions = [4]Direction{MoveUp, MoveDown, MoveLeft, MoveRight}

var directionNames = [4]string{"up", "down", "left", "right"}

// String returns the protocol token for the move.
func (d Direction) String() string {
	if d < MoveUp || d > MoveRight {
		return "unknown"
	}
	return directionNames[d]
}

// Vector returns the unit displacement for d. Up is +Y.
func (d Direction) Vector() Point {
	switch d {
	case MoveUp:
		return Point{X: 0, Y: 1}
	case MoveDown:
		return Point{X: 0, Y: -1}
	case MoveLeft:
		return Point{X: -1, Y: 0}
	case MoveRight:
		return Point{X: 1, Y: 0}
	}
	return Point{}
}

// DirectionFromVector decodes a unit displacement. Any vector other than the
// four cardinal units reports false.
func DirectionFromVector(v Point) (Direction, bool) {
	switch v {
	case Point{X: 0, Y: 1}:
		return MoveUp, true
	case Point{X: 0, Y: -1}:
		return MoveDown, true
	case Point{X: 1, Y: 0}:
		return MoveRight, true
	case Point{X: -1, Y: 0}:
		return MoveLeft, true
	}
	return 0, false
}

// ParseDirection is the inverse of String.
func ParseDirection(s string) (Direction, bool) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), true
		}
	}
	return 0, false
}
