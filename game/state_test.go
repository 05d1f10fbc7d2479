package game

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// dumpState renders the board top row first. Heads are upper case.
func dumpState(state *GameState) string {
	grid := make([][]byte, state.Height)
	for y := int32(0); y < state.Height; y++ {
		grid[y] = []byte(strings.Repeat(".", int(state.Width)))
	}
	for _, h := range state.Hazards {
		if state.InBounds(h) {
			grid[h.Y][h.X] = '#'
		}
	}
	for _, f := range state.Food {
		if state.InBounds(f) {
			grid[f.Y][f.X] = '*'
		}
	}
	for i, s := range state.Snakes {
		sym := byte('a' + i)
		for j, p := range s.Body {
			if !state.InBounds(p) {
				continue
			}
			if j == 0 {
				grid[p.Y][p.X] = sym - 32
			} else {
				grid[p.Y][p.X] = sym
			}
		}
	}
	var sb strings.Builder
	for y := state.Height - 1; y >= 0; y-- {
		sb.Write(grid[y])
		sb.WriteByte('\n')
	}
	return sb.String()
}

func threeSnakes() *GameState {
	return &GameState{
		Width:  7,
		Height: 7,
		YouId:  "me",
		Snakes: []Snake{
			{Id: "a", Health: 90, Body: []Point{{X: 0, Y: 0}, {X: 0, Y: 1}}},
			{Id: "b", Health: 90, Body: []Point{{X: 6, Y: 6}, {X: 6, Y: 5}}},
			{Id: "me", Health: 100, Body: []Point{{X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 1}}},
		},
		Food:    []Point{{X: 1, Y: 5}},
		Hazards: []Point{{X: 5, Y: 1}},
	}
}

func TestToPoints(t *testing.T) {
	require.Nil(t, ToPoints(nil))
	require.Nil(t, ToPoints([]Coord{}))
	require.Equal(t, []Point{{X: 0, Y: 0}, {X: 10, Y: 3}}, ToPoints([]Coord{{X: 0, Y: 0}, {X: 10, Y: 3}}))
}

func TestReorderForYou(t *testing.T) {
	state := threeSnakes()
	state.ReorderForYou()
	t.Logf("\n%s", dumpState(state))

	ids := []string{state.Snakes[0].Id, state.Snakes[1].Id, state.Snakes[2].Id}
	require.Equal(t, []string{"me", "a", "b"}, ids, "you first, opponents keep their order")
	require.Len(t, state.Opponents(), 2)
	require.Equal(t, Point{X: 3, Y: 3}, state.You().Head())
}

func TestReorderForYou_AlreadyFirst(t *testing.T) {
	state := &GameState{YouId: "me", Snakes: []Snake{{Id: "me"}, {Id: "x"}}}
	state.ReorderForYou()
	require.Equal(t, "me", state.Snakes[0].Id)
	require.Equal(t, "x", state.Snakes[1].Id)
}

func TestClone_DeepCopy(t *testing.T) {
	state := threeSnakes()
	clone := state.Clone()

	clone.Snakes[0].Body[0] = Point{X: 9, Y: 9}
	clone.Food[0] = Point{X: 2, Y: 2}
	clone.Hazards[0] = Point{X: 2, Y: 2}

	require.Equal(t, Point{X: 0, Y: 0}, state.Snakes[0].Body[0])
	require.Equal(t, Point{X: 1, Y: 5}, state.Food[0])
	require.Equal(t, Point{X: 5, Y: 1}, state.Hazards[0])
	require.Nil(t, (*GameState)(nil).Clone())
}

func TestDirectionFromVector(t *testing.T) {
	t.Run("round trips every direction", func(t *testing.T) {
		for _, d := range Directions {
			got, ok := DirectionFromVector(d.Vector())
			require.True(t, ok)
			require.Equal(t, d, got)
		}
	})

	t.Run("rejects everything else", func(t *testing.T) {
		for dx := int32(-2); dx <= 2; dx++ {
			for dy := int32(-2); dy <= 2; dy++ {
				v := Point{X: dx, Y: dy}
				_, ok := DirectionFromVector(v)
				unit := (dx == 0 && (dy == 1 || dy == -1)) || (dy == 0 && (dx == 1 || dx == -1))
				require.Equal(t, unit, ok, "vector %v", v)
			}
		}
	})

	t.Run("protocol tokens", func(t *testing.T) {
		require.Equal(t, "up", MoveUp.String())
		require.Equal(t, "down", MoveDown.String())
		require.Equal(t, "left", MoveLeft.String())
		require.Equal(t, "right", MoveRight.String())
		require.Equal(t, "unknown", Direction(7).String())

		d, ok := ParseDirection("left")
		require.True(t, ok)
		require.Equal(t, MoveLeft, d)
		_, ok = ParseDirection("north")
		require.False(t, ok)
	})
}

func TestApplyFoodSettings(t *testing.T) {
	t.Run("tops up to minimum on free cells", func(t *testing.T) {
		state := threeSnakes()
		state.Food = nil
		ApplyFoodSettings(state, rand.New(rand.NewSource(1)), FoodSettings{MinimumFood: 3})
		t.Logf("\n%s", dumpState(state))

		require.Len(t, state.Food, 3)
		blocked := map[Point]bool{{X: 5, Y: 1}: true}
		for _, s := range state.Snakes {
			for _, p := range s.Body {
				blocked[p] = true
			}
		}
		seen := map[Point]bool{}
		for _, f := range state.Food {
			require.False(t, blocked[f], "food spawned on %v", f)
			require.False(t, seen[f], "duplicate food %v", f)
			require.True(t, state.InBounds(f))
			seen[f] = true
		}
	})

	t.Run("deterministic without rng", func(t *testing.T) {
		a := threeSnakes()
		b := threeSnakes()
		settings := FoodSettings{MinimumFood: 2, FoodSpawnChance: 100}
		ApplyFoodSettings(a, nil, settings)
		ApplyFoodSettings(b, nil, settings)
		require.Equal(t, a.Food, b.Food)
		require.Len(t, a.Food, 3)
	})

	t.Run("full board spawns nothing", func(t *testing.T) {
		state := &GameState{Width: 1, Height: 1, Snakes: []Snake{{Id: "me", Body: []Point{{}}}}}
		ApplyFoodSettings(state, nil, FoodSettings{MinimumFood: 1, FoodSpawnChance: 100})
		require.Empty(t, state.Food)
	})
}
