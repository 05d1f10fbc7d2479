// food.go implements food spawning for locally simulated games.

package game

import (
	"math/rand"
)

// FoodSettings controls food spawning behavior.
type FoodSettings struct {
	MinimumFood     int // Guaranteed minimum on board at all times
	FoodSpawnChance int // Percentage chance (0-100) to spawn extra food each turn
}

// DefaultFoodSettings matches standard Battlesnake rules (1 minimum, 15% chance each turn).
var DefaultFoodSettings = FoodSettings{MinimumFood: 1, FoodSpawnChance: 15}

// ApplyFoodSettings tops the board up to the minimum food count and then rolls
// for one extra piece. Food never spawns on a snake, a hazard or existing food.
// If rng is nil a deterministic hash of the turn is used instead.
func ApplyFoodSettings(state *GameState, rng *rand.Rand, settings FoodSettings) {
	occupied := make(map[Point]struct{}, len(state.Food)+len(state.Hazards))
	for _, s := range state.Snakes {
		for _, p := range s.Body {
			occupied[p] = struct{}{}
		}
	}
	for _, f := range state.Food {
		occupied[f] = struct{}{}
	}
	for _, h := range state.Hazards {
		occupied[h] = struct{}{}
	}

	pick := func(n int, salt uint64) int {
		if rng != nil {
			return rng.Intn(n)
		}
		return int(splitmix(uint64(state.Turn), salt) % uint64(n))
	}

	spawn := func(salt uint64) bool {
		free := make([]Point, 0, int(state.Width*state.Height))
		for y := int32(0); y < state.Height; y++ {
			for x := int32(0); x < state.Width; x++ {
				p := Point{X: x, Y: y}
				if _, ok := occupied[p]; !ok {
					free = append(free, p)
				}
			}
		}
		if len(free) == 0 {
			return false
		}
		p := free[pick(len(free), salt)]
		state.Food = append(state.Food, p)
		occupied[p] = struct{}{}
		return true
	}

	for i := uint64(0); len(state.Food) < settings.MinimumFood; i++ {
		if !spawn(0xF00D + i) {
			break
		}
	}

	if settings.FoodSpawnChance > 0 && pick(100, 0xBEEF) < settings.FoodSpawnChance {
		spawn(0xCAFE)
	}
}

// splitmix is a small deterministic mixer so rng-less runs are reproducible.
func splitmix(a, b uint64) uint64 {
	x := a + b
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
