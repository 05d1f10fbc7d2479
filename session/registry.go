// Package session scopes per-game state (the opponent ledger and the policy
// learner) to a game ID.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/brensch/goalsnek/history"
	"github.com/brensch/goalsnek/learning"
)

// Scope decides how learners are shared between games.
type Scope string

const (
	// ScopeSession gives every game its own learner, cloned from the seed.
	// A finished game's learner becomes the seed for the games after it.
	// When games overlap the last one to end wins: the seed is replaced, not
	// merged, so training from games that ended earlier is dropped.
	ScopeSession Scope = "session"
	// ScopeShared hands every game the same learner. Training in one game is
	// visible to every other game running at the same time.
	ScopeShared Scope = "shared"
)

func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeSession, ScopeShared:
		return Scope(s), nil
	}
	return "", fmt.Errorf("unknown learner scope %q", s)
}

// Session is the state of one game.
type Session struct {
	GameID  string
	Started time.Time
	Ledger  *history.Ledger
	Learner *learning.Learner
}

// Registry maps game IDs to sessions. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	scope    Scope
	seed     *learning.Learner
	sessions map[string]*Session
}

// NewRegistry creates a registry whose learners derive from seed.
func NewRegistry(scope Scope, seed *learning.Learner) *Registry {
	return &Registry{
		scope:    scope,
		seed:     seed,
		sessions: make(map[string]*Session),
	}
}

func (r *Registry) Scope() Scope { return r.scope }

// Start creates the session for gameID. Starting a game twice returns the
// existing session.
func (r *Registry) Start(gameID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(gameID)
}

// Get returns the session for gameID, creating it when /start was missed.
func (r *Registry) Get(gameID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(gameID)
}

func (r *Registry) getLocked(gameID string) *Session {
	if s, ok := r.sessions[gameID]; ok {
		return s
	}
	learner := r.seed
	if r.scope != ScopeShared {
		learner = r.seed.Clone()
	}
	s := &Session{
		GameID:  gameID,
		Started: time.Now(),
		Ledger:  history.NewLedger(),
		Learner: learner,
	}
	r.sessions[gameID] = s
	return s
}

// End removes and returns the session for gameID.
func (r *Registry) End(gameID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[gameID]
	if !ok {
		return nil, false
	}
	delete(r.sessions, gameID)
	if r.scope != ScopeShared {
		r.seed = s.Learner
	}
	return s, true
}

// Active is the number of games in progress.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Seed returns the learner new sessions are derived from.
func (r *Registry) Seed() *learning.Learner {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seed
}
