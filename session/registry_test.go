package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/brensch/goalsnek/learning"
	"github.com/stretchr/testify/require"
)

func newSeed(t *testing.T) *learning.Learner {
	t.Helper()
	cfg := learning.DefaultConfig()
	cfg.Seed = 5
	return learning.New(cfg)
}

func TestRegistry_Lifecycle(t *testing.T) {
	r := NewRegistry(ScopeSession, newSeed(t))
	require.Zero(t, r.Active())

	a := r.Start("a")
	require.Same(t, a, r.Start("a"))
	require.Same(t, a, r.Get("a"))
	require.Equal(t, "a", a.GameID)
	require.NotNil(t, a.Ledger)

	b := r.Get("b")
	require.NotSame(t, a, b)
	require.Equal(t, 2, r.Active())

	ended, ok := r.End("a")
	require.True(t, ok)
	require.Same(t, a, ended)
	require.Equal(t, 1, r.Active())

	_, ok = r.End("a")
	require.False(t, ok)
}

func TestRegistry_SessionScopeIsolatesLearners(t *testing.T) {
	r := NewRegistry(ScopeSession, newSeed(t))
	a := r.Start("a")
	b := r.Start("b")
	require.NotSame(t, a.Learner, b.Learner)

	s := learning.State{X: 5, Y: 5, GoalX: 5, GoalY: 6}
	a.Learner.Train(s)

	_, ok := a.Learner.BestAction(s)
	require.True(t, ok)
	_, ok = b.Learner.BestAction(s)
	require.False(t, ok, "game b must not see game a's training")
}

func TestRegistry_SessionScopeCarriesFinishedLearner(t *testing.T) {
	r := NewRegistry(ScopeSession, newSeed(t))
	a := r.Start("a")
	s := learning.State{X: 1, Y: 1, GoalX: 1, GoalY: 2}
	a.Learner.Train(s)

	_, ok := r.End("a")
	require.True(t, ok)
	require.Same(t, a.Learner, r.Seed())

	c := r.Start("c")
	require.NotSame(t, a.Learner, c.Learner)
	_, ok = c.Learner.BestAction(s)
	require.True(t, ok, "the next game starts from what the last game learned")
}

func TestRegistry_SessionScopeLastEndedWins(t *testing.T) {
	r := NewRegistry(ScopeSession, newSeed(t))
	a := r.Start("a")
	b := r.Start("b")

	sa := learning.State{X: 2, Y: 2, GoalX: 2, GoalY: 3}
	sb := learning.State{X: 7, Y: 7, GoalX: 8, GoalY: 7}
	a.Learner.Train(sa)
	b.Learner.Train(sb)

	r.End("a")
	r.End("b")
	require.Same(t, b.Learner, r.Seed())

	c := r.Start("c")
	_, ok := c.Learner.BestAction(sb)
	require.True(t, ok)
	_, ok = c.Learner.BestAction(sa)
	require.False(t, ok, "training from the game that ended first is dropped")
}

func TestRegistry_SharedScopeBleedsAcrossGames(t *testing.T) {
	seed := newSeed(t)
	r := NewRegistry(ScopeShared, seed)
	a := r.Start("a")
	b := r.Start("b")
	require.Same(t, seed, a.Learner)
	require.Same(t, seed, b.Learner)

	s := learning.State{X: 3, Y: 3, GoalX: 4, GoalY: 3}
	a.Learner.Train(s)
	_, ok := b.Learner.BestAction(s)
	require.True(t, ok)

	r.End("a")
	require.Same(t, seed, r.Seed())
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry(ScopeSession, newSeed(t))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("g%d", i%4)
			s := r.Get(id)
			s.Learner.Train(learning.State{X: i % 11, Y: 0, GoalX: 5, GoalY: 5})
		}(i)
	}
	wg.Wait()
	require.Equal(t, 4, r.Active())
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("shared")
	require.NoError(t, err)
	require.Equal(t, ScopeShared, s)
	_, err = ParseScope("global")
	require.Error(t, err)
}
