package replay

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store caches downloaded games in SQLite so a game is fetched once and can
// be replayed any number of times.
type Store struct {
	conn *sql.DB
	mu   sync.Mutex
}

// Game is one cached game.
type Game struct {
	ID        string
	Ruleset   string
	Winner    string
	Width     int
	Height    int
	CrawledAt time.Time
}

// Frame is the raw engine payload for one turn.
type Frame struct {
	GameID  string
	Turn    int
	RawJSON string
}

// OpenStore opens (or creates) the cache at path.
func OpenStore(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open replay store: %w", err)
	}
	// SQLite only supports one writer.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	s := &Store{conn: conn}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		ruleset TEXT,
		winner TEXT,
		width INTEGER,
		height INTEGER,
		crawled_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS frames (
		game_id TEXT,
		turn INTEGER,
		raw_json TEXT,
		PRIMARY KEY (game_id, turn),
		FOREIGN KEY(game_id) REFERENCES games(id)
	);

	CREATE INDEX IF NOT EXISTS idx_frames_game_id ON frames(game_id);
	`

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("create replay schema: %w", err)
	}
	return nil
}

func (s *Store) GameExists(gameID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.conn.QueryRow("SELECT 1 FROM games WHERE id = ?", gameID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertGame stores a game and its frames in one transaction. Rows that are
// already present are left alone.
func (s *Store) InsertGame(g Game, frames []Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT OR IGNORE INTO games (id, ruleset, winner, width, height) VALUES (?, ?, ?, ?, ?)",
		g.ID, g.Ruleset, g.Winner, g.Width, g.Height,
	); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO frames (game_id, turn, raw_json) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare frame statement: %w", err)
	}
	defer stmt.Close()

	for _, f := range frames {
		if _, err := stmt.Exec(g.ID, f.Turn, f.RawJSON); err != nil {
			return fmt.Errorf("insert frame %d: %w", f.Turn, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadGame returns the cached game and its frames ordered by turn.
func (s *Store) LoadGame(gameID string) (Game, []Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		g       Game
		crawled sql.NullTime
	)
	err := s.conn.QueryRow(
		"SELECT id, COALESCE(ruleset, ''), COALESCE(winner, ''), COALESCE(width, 0), COALESCE(height, 0), crawled_at FROM games WHERE id = ?",
		gameID,
	).Scan(&g.ID, &g.Ruleset, &g.Winner, &g.Width, &g.Height, &crawled)
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, nil, fmt.Errorf("game %s is not cached", gameID)
	}
	if err != nil {
		return Game{}, nil, fmt.Errorf("load game %s: %w", gameID, err)
	}
	g.CrawledAt = crawled.Time

	frames, err := s.framesLocked(gameID)
	if err != nil {
		return Game{}, nil, err
	}
	return g, frames, nil
}

// GameFrames returns the cached frames for gameID ordered by turn.
func (s *Store) GameFrames(gameID string) ([]Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.framesLocked(gameID)
}

func (s *Store) framesLocked(gameID string) ([]Frame, error) {
	rows, err := s.conn.Query("SELECT game_id, turn, raw_json FROM frames WHERE game_id = ? ORDER BY turn", gameID)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var f Frame
		if err := rows.Scan(&f.GameID, &f.Turn, &f.RawJSON); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// GameIDs lists every cached game, newest first.
func (s *Store) GameIDs() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.conn.Query("SELECT id FROM games ORDER BY crawled_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
