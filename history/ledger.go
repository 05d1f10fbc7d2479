// Package history records where every opponent's head was on every turn of a
// game.
package history

import (
	"sort"
	"sync"

	"github.com/brensch/goalsnek/game"
)

// Entry is one observed head position.
type Entry struct {
	Turn int32
	Head game.Point
}

// Ledger is an append-only, per-game record of opponent head positions. It is
// safe for concurrent use.
type Ledger struct {
	mu    sync.Mutex
	moves map[string][]Entry
	total int
}

func NewLedger() *Ledger {
	return &Ledger{moves: make(map[string][]Entry)}
}

// Record appends the current head of every opponent for turn. Snakes without
// a body are skipped.
func (l *Ledger) Record(turn int32, opponents []game.Snake) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range opponents {
		s := &opponents[i]
		if len(s.Body) == 0 {
			continue
		}
		l.moves[s.Id] = append(l.moves[s.Id], Entry{Turn: turn, Head: s.Body[0]})
		l.total++
	}
}

// Moves returns a copy of the entries recorded for id, oldest first.
func (l *Ledger) Moves(id string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	src := l.moves[id]
	if len(src) == 0 {
		return nil
	}
	out := make([]Entry, len(src))
	copy(out, src)
	return out
}

// SnakeIDs returns every recorded snake, sorted.
func (l *Ledger) SnakeIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.moves))
	for id := range l.moves {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len is the total number of entries across all snakes.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}
