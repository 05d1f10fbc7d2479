package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/brensch/goalsnek/agent"
	"github.com/brensch/goalsnek/config"
	"github.com/brensch/goalsnek/history"
	"github.com/brensch/goalsnek/learning"
	"github.com/brensch/goalsnek/session"
	"github.com/brensch/goalsnek/strategy"
)

const version = "1.0.0"

// TurnEvent is published after every /move for the dashboard.
type TurnEvent struct {
	GameID   string
	Turn     int
	Decision agent.Decision
}

// Server answers the Battlesnake API for one agent.
type Server struct {
	cfg      config.Config
	agent    *agent.Agent
	registry *session.Registry
	log      zerolog.Logger
	// events is optional; sends never block a move.
	events chan<- TurnEvent
}

func NewServer(cfg config.Config, a *agent.Agent, registry *session.Registry, logger zerolog.Logger) *Server {
	return &Server{cfg: cfg, agent: a, registry: registry, log: logger}
}

// Publish sends a TurnEvent for every move to ch.
func (s *Server) Publish(ch chan<- TurnEvent) { s.events = ch }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/move", s.handleMove)
	mux.HandleFunc("/end", s.handleEnd)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (*GameRequest, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

// handleIndex returns the Battlesnake info
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, InfoResponse{
		APIVersion: "1",
		Author:     s.cfg.Server.Author,
		Color:      s.cfg.Server.Color,
		Head:       s.cfg.Server.Head,
		Tail:       s.cfg.Server.Tail,
		Version:    version,
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	sess := s.registry.Start(req.Game.ID)
	sessionsActive.Set(float64(s.registry.Active()))

	// What the learner already knows about crossing this board.
	if ev := s.log.Debug(); ev.Enabled() && sess.Learner != nil {
		q := learning.State{X: 0, Y: 0, GoalX: 5, GoalY: 5, Width: req.Board.Width, Height: req.Board.Height}
		act, learned := sess.Learner.BestAction(q)
		ev.Str("game_id", req.Game.ID).
			Int("learner_states", sess.Learner.Stats().States).
			Bool("learner_known", learned).
			Int("learner_dx", act.DX).
			Int("learner_dy", act.DY).
			Msg("learner best action from origin")
	}

	s.log.Info().
		Str("game_id", req.Game.ID).
		Str("ruleset", req.Game.Ruleset.Name).
		Str("you", req.You.Name).
		Stringer("personality", s.agent.Personality()).
		Msg("game started")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	state := convertToGameState(req)
	ctx := s.log.WithContext(r.Context())

	d := s.agent.Move(ctx, req.Game.ID, state)
	sessionsActive.Set(float64(s.registry.Active()))

	movesTotal.WithLabelValues(d.Direction.String()).Inc()
	moveDuration.Observe(d.Elapsed.Seconds())
	if d.Fallback {
		moveErrorsTotal.WithLabelValues(strategy.ErrorKind(d.Err)).Inc()
	}

	ev := s.log.Info().
		Str("game_id", req.Game.ID).
		Int("turn", req.Turn).
		Stringer("move", d.Direction).
		Stringer("mode", d.Mode).
		Bool("fallback", d.Fallback).
		Dur("elapsed", d.Elapsed)
	if d.HasTarget {
		ev = ev.Int32("target_x", d.Target.X).Int32("target_y", d.Target.Y)
	}
	ev.Msg("move")

	if req.Game.Timeout > 0 && d.Elapsed > time.Duration(req.Game.Timeout)*time.Millisecond {
		s.log.Warn().Str("game_id", req.Game.ID).Int("turn", req.Turn).Dur("elapsed", d.Elapsed).Msg("move exceeded game timeout")
	}

	if s.events != nil {
		select {
		case s.events <- TurnEvent{GameID: req.Game.ID, Turn: req.Turn, Decision: d}:
		default:
		}
	}

	resp := MoveResponse{Move: d.Direction.String()}
	if d.HasTarget {
		resp.Shout = fmt.Sprintf("%s toward (%d,%d)", d.Mode, d.Target.X, d.Target.Y)
	}
	writeJSON(w, resp)
}

// handleEnd closes the session and persists what it collected.
func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	log := s.log.With().Str("game_id", req.Game.ID).Logger()
	sess, found := s.registry.End(req.Game.ID)
	sessionsActive.Set(float64(s.registry.Active()))
	if found {
		s.persist(log, sess)
	}

	solo := req.Game.Ruleset.Name == "solo" || (found && len(sess.Ledger.SnakeIDs()) == 0 && len(req.Board.Snakes) <= 1)
	result := gameResult(req, solo)

	log.Info().
		Int("turn", req.Turn).
		Str("result", result).
		Int("survivors", len(req.Board.Snakes)).
		Bool("solo", solo).
		Bool("session_found", found).
		Msg("game ended")
	w.WriteHeader(http.StatusOK)
}

// gameResult labels the end of a game from our snake's point of view. A
// solo game has nobody to beat, so outliving the board is "survived".
func gameResult(req *GameRequest, solo bool) string {
	youAlive := false
	for _, snake := range req.Board.Snakes {
		if snake.ID == req.You.ID {
			youAlive = true
			break
		}
	}
	switch {
	case solo && youAlive:
		return "survived"
	case solo:
		return "died"
	case youAlive && len(req.Board.Snakes) == 1:
		return "won"
	case youAlive:
		return "unfinished"
	case len(req.Board.Snakes) == 0:
		return "draw"
	}
	return "lost"
}

// persist failures are logged; the game is over either way.
func (s *Server) persist(log zerolog.Logger, sess *session.Session) {
	if dir := s.cfg.History.ExportDir; dir != "" {
		path, err := history.WriteParquet(dir, sess.GameID, sess.Ledger)
		if err != nil {
			log.Error().Err(err).Msg("export opponent history")
		} else {
			log.Info().Str("path", path).Int("entries", sess.Ledger.Len()).Msg("exported opponent history")
		}
	}

	if path := s.cfg.Learning.SnapshotPath; path != "" && sess.Learner != nil {
		if err := sess.Learner.SaveSnapshot(path); err != nil {
			log.Error().Err(err).Msg("save learner snapshot")
		} else {
			st := sess.Learner.Stats()
			log.Info().Str("path", path).Int("states", st.States).Int("train_calls", st.TrainCalls).Msg("saved learner snapshot")
		}
	}
}
