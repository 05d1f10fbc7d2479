// Package learning is a small tabular Q-learner that learns, online, how to
// walk from a position to a goal on an empty grid.
package learning

import (
	"math/rand"
	"sync"
	"time"
)

// State is the agent position together with the goal it is heading for and
// the size of the board it is on. A zero Width or Height means the learner's
// configured size. Boards of different sizes never share table entries.
type State struct {
	X      int
	Y      int
	GoalX  int
	GoalY  int
	Width  int
	Height int
}

func (s State) atGoal() bool { return s.X == s.GoalX && s.Y == s.GoalY }

// Action is a unit step (DX, DY). Up is +Y.
type Action struct {
	DX int
	DY int
}

// Actions is the action space. Ties between equal values resolve in this order.
var Actions = [4]Action{{DX: 0, DY: 1}, {DX: 0, DY: -1}, {DX: 1, DY: 0}, {DX: -1, DY: 0}}

const (
	goalReward = 10.0
	wallReward = -10.0
	stepReward = -1.0
)

type Config struct {
	Alpha    float64
	Gamma    float64
	Epsilon  float64
	Episodes int
	MaxSteps int
	// Width and Height size states that do not carry their own board size.
	Width  int
	Height int
	// Seed for exploration. Zero seeds from the clock.
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		Alpha:    0.2,
		Gamma:    0.9,
		Epsilon:  0.1,
		Episodes: 20,
		MaxSteps: 64,
		Width:    11,
		Height:   11,
	}
}

// Stats is a point-in-time view of learner activity.
type Stats struct {
	States     int
	TrainCalls int
	Queries    int
}

// Learner holds a Q table. All methods are safe for concurrent use; each call
// holds the learner lock for its whole duration.
type Learner struct {
	mu    sync.Mutex
	cfg   Config
	rng   *rand.Rand
	q     map[State]*[4]float64
	stats Stats
}

func New(cfg Config) *Learner {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Learner{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
		q:   make(map[State]*[4]float64),
	}
}

// Train runs the configured number of epsilon-greedy episodes starting at s.
// An episode ends on reaching the goal, leaving the grid, or after MaxSteps.
func (l *Learner) Train(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stats.TrainCalls++
	s = l.sized(s)
	if s.atGoal() {
		return
	}
	for ep := 0; ep < l.cfg.Episodes; ep++ {
		cur := s
		for step := 0; step < l.cfg.MaxSteps; step++ {
			a := l.chooseLocked(cur)
			act := Actions[a]
			next := cur
			next.X, next.Y = cur.X+act.DX, cur.Y+act.DY

			reward := stepReward
			terminal := false
			switch {
			case !l.inside(next):
				reward, terminal = wallReward, true
			case next.atGoal():
				reward, terminal = goalReward, true
			}

			target := reward
			if !terminal {
				target += l.cfg.Gamma * l.maxLocked(next)
			}
			row := l.rowLocked(cur)
			row[a] += l.cfg.Alpha * (target - row[a])

			if terminal {
				break
			}
			cur = next
		}
	}
}

// BestAction returns the highest valued action for s, or false when s has
// never been trained.
func (l *Learner) BestAction(s State) (Action, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bestLocked(s)
}

// Query is BestAction counted as a decision.
func (l *Learner) Query(s State) (Action, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats.Queries++
	return l.bestLocked(s)
}

func (l *Learner) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.stats
	st.States = len(l.q)
	return st
}

// Clone returns an independent copy of the table with fresh counters. The
// clone explores with its own random stream.
func (l *Learner) Clone() *Learner {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg := l.cfg
	cfg.Seed = l.rng.Int63()
	c := New(cfg)
	for s, row := range l.q {
		cp := *row
		c.q[s] = &cp
	}
	return c
}

func (l *Learner) bestLocked(s State) (Action, bool) {
	row, ok := l.q[l.sized(s)]
	if !ok {
		return Action{}, false
	}
	return Actions[argmax(row)], true
}

func (l *Learner) chooseLocked(s State) int {
	if l.rng.Float64() < l.cfg.Epsilon {
		return l.rng.Intn(len(Actions))
	}
	row, ok := l.q[s]
	if !ok {
		return 0
	}
	return argmax(row)
}

func (l *Learner) maxLocked(s State) float64 {
	row, ok := l.q[s]
	if !ok {
		return 0
	}
	return row[argmax(row)]
}

func (l *Learner) rowLocked(s State) *[4]float64 {
	row, ok := l.q[s]
	if !ok {
		row = &[4]float64{}
		l.q[s] = row
	}
	return row
}

// sized fills in the configured board size when s has none.
func (l *Learner) sized(s State) State {
	if s.Width <= 0 || s.Height <= 0 {
		s.Width, s.Height = l.cfg.Width, l.cfg.Height
	}
	return s
}

func (l *Learner) inside(s State) bool {
	return s.X >= 0 && s.X < s.Width && s.Y >= 0 && s.Y < s.Height
}

func argmax(row *[4]float64) int {
	best := 0
	for i := 1; i < len(row); i++ {
		if row[i] > row[best] {
			best = i
		}
	}
	return best
}
