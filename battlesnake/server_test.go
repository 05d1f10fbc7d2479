package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/brensch/goalsnek/agent"
	"github.com/brensch/goalsnek/config"
	"github.com/brensch/goalsnek/game"
	"github.com/brensch/goalsnek/learning"
	"github.com/brensch/goalsnek/strategy"
)

func newTestServer(t *testing.T, personality string) (*Server, config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Agent.Personality = personality
	cfg.Learning.Seed = 3
	cfg.History.ExportDir = filepath.Join(t.TempDir(), "history")
	cfg.Learning.SnapshotPath = filepath.Join(t.TempDir(), "qtable.parquet")
	require.NoError(t, cfg.Validate())

	a, registry, err := newAgent(cfg, zerolog.Nop())
	require.NoError(t, err)
	return NewServer(cfg, a, registry, zerolog.Nop()), cfg
}

func gameRequest(gameID string, turn int) GameRequest {
	me := Battlesnake{ID: "me", Name: "goalsnek", Health: 90, Body: []Coord{{X: 5, Y: 5}, {X: 5, Y: 4}, {X: 5, Y: 3}}}
	opp := Battlesnake{ID: "o", Name: "other", Health: 90, Body: []Coord{{X: 9, Y: 1}, {X: 9, Y: 0}}}
	return GameRequest{
		Game: Game{ID: gameID, Ruleset: Ruleset{Name: "standard"}, Timeout: 500},
		Turn: turn,
		Board: Board{
			Width: 11, Height: 11,
			Food:   []Coord{{X: 5, Y: 8}},
			Snakes: []Battlesnake{opp, me},
		},
		You: me,
	}
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	s, cfg := newTestServer(t, "snacky")
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var info InfoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	require.Equal(t, "1", info.APIVersion)
	require.Equal(t, cfg.Server.Color, info.Color)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGameLifecycle(t *testing.T) {
	s, cfg := newTestServer(t, "snacky")
	h := s.Handler()

	require.Equal(t, http.StatusOK, post(t, h, "/start", gameRequest("g1", 0)).Code)
	require.Equal(t, 1, s.registry.Active())

	for turn := 0; turn < 3; turn++ {
		rec := post(t, h, "/move", gameRequest("g1", turn))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp MoveResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, "up", resp.Move)
		require.Contains(t, resp.Shout, "(5,8)")
	}

	require.Equal(t, http.StatusOK, post(t, h, "/end", gameRequest("g1", 3)).Code)
	require.Zero(t, s.registry.Active())

	_, err := os.Stat(filepath.Join(cfg.History.ExportDir, "g1.parquet"))
	require.NoError(t, err, "opponent history exported")
	_, err = os.Stat(cfg.Learning.SnapshotPath)
	require.NoError(t, err, "learner snapshot saved")

	// A second /end for the same game has nothing left to persist.
	require.Equal(t, http.StatusOK, post(t, h, "/end", gameRequest("g1", 3)).Code)
}

// logLines decodes every JSON line the server logged with the given message.
func logLines(t *testing.T, buf *bytes.Buffer, msg string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		if m["message"] == msg {
			out = append(out, m)
		}
	}
	return out
}

func TestStart_LogsLearnerBestAction(t *testing.T) {
	s, _ := newTestServer(t, "qlearning")
	var buf bytes.Buffer
	s.log = zerolog.New(&buf).Level(zerolog.DebugLevel)
	h := s.Handler()

	require.Equal(t, http.StatusOK, post(t, h, "/start", gameRequest("fresh", 0)).Code)
	lines := logLines(t, &buf, "learner best action from origin")
	require.Len(t, lines, 1)
	require.Equal(t, "fresh", lines[0]["game_id"])
	require.Equal(t, false, lines[0]["learner_known"])

	s.registry.Seed().Train(learning.State{X: 0, Y: 0, GoalX: 5, GoalY: 5, Width: 11, Height: 11})
	buf.Reset()
	require.Equal(t, http.StatusOK, post(t, h, "/start", gameRequest("trained", 0)).Code)
	lines = logLines(t, &buf, "learner best action from origin")
	require.Len(t, lines, 1)
	require.Equal(t, true, lines[0]["learner_known"])
	require.Positive(t, lines[0]["learner_states"])

	buf.Reset()
	s.log = zerolog.New(&buf).Level(zerolog.InfoLevel)
	require.Equal(t, http.StatusOK, post(t, h, "/start", gameRequest("quiet", 0)).Code)
	require.Empty(t, logLines(t, &buf, "learner best action from origin"))
}

func TestGameResult(t *testing.T) {
	me := Battlesnake{ID: "me"}
	opp := Battlesnake{ID: "o"}
	end := func(ruleset string, snakes ...Battlesnake) *GameRequest {
		return &GameRequest{Game: Game{Ruleset: Ruleset{Name: ruleset}}, Board: Board{Snakes: snakes}, You: me}
	}

	tests := []struct {
		name string
		req  *GameRequest
		solo bool
		want string
	}{
		{"last snake standing", end("standard", me), false, "won"},
		{"opponent outlived us", end("standard", opp), false, "lost"},
		{"everyone died", end("standard"), false, "draw"},
		{"turn limit with several alive", end("standard", me, opp), false, "unfinished"},
		{"solo survival", end("solo", me), true, "survived"},
		{"solo death", end("solo"), true, "died"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, gameResult(tt.req, tt.solo))
		})
	}
}

func TestEnd_SoloIsNotAWin(t *testing.T) {
	s, _ := newTestServer(t, "snacky")
	var buf bytes.Buffer
	s.log = zerolog.New(&buf)
	h := s.Handler()

	// Only our snake ever appears, so no opponent is ever recorded.
	req := gameRequest("solo-1", 0)
	req.Board.Snakes = []Battlesnake{req.You}
	require.Equal(t, http.StatusOK, post(t, h, "/start", req).Code)
	require.Equal(t, http.StatusOK, post(t, h, "/move", req).Code)
	req.Turn = 40
	require.Equal(t, http.StatusOK, post(t, h, "/end", req).Code)

	lines := logLines(t, &buf, "game ended")
	require.Len(t, lines, 1)
	require.Equal(t, "survived", lines[0]["result"])
	require.Equal(t, true, lines[0]["solo"])
	require.Equal(t, float64(1), lines[0]["survivors"])

	// Two snakes started and only ours is left.
	buf.Reset()
	req = gameRequest("duel-1", 0)
	require.Equal(t, http.StatusOK, post(t, h, "/start", req).Code)
	require.Equal(t, http.StatusOK, post(t, h, "/move", req).Code)
	req.Turn = 60
	req.Board.Snakes = []Battlesnake{req.You}
	require.Equal(t, http.StatusOK, post(t, h, "/end", req).Code)

	lines = logLines(t, &buf, "game ended")
	require.Len(t, lines, 1)
	require.Equal(t, "won", lines[0]["result"])
	require.Equal(t, false, lines[0]["solo"])
}

func TestMove_FallbackIsCounted(t *testing.T) {
	s, _ := newTestServer(t, "hungry")
	h := s.Handler()
	events := make(chan TurnEvent, 1)
	s.Publish(events)

	before := testutil.ToFloat64(moveErrorsTotal.WithLabelValues("no_target"))
	rec := post(t, h, "/move", gameRequest("g2", 7))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MoveResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "up", resp.Move, "first legal move")
	require.Empty(t, resp.Shout)
	require.Equal(t, before+1, testutil.ToFloat64(moveErrorsTotal.WithLabelValues("no_target")))

	select {
	case ev := <-events:
		require.Equal(t, "g2", ev.GameID)
		require.Equal(t, 7, ev.Turn)
		require.True(t, ev.Decision.Fallback)
	case <-time.After(time.Second):
		t.Fatal("no turn event published")
	}
	require.Equal(t, 1, s.registry.Active(), "a move without /start still opens a session")
}

func TestBadRequests(t *testing.T) {
	s, _ := newTestServer(t, "snacky")
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/move", strings.NewReader("{")))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/move", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, "snacky")
	h := s.Handler()
	post(t, h, "/move", gameRequest("g3", 0))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `goalsnek_moves_total{direction="up"}`)
	require.Contains(t, rec.Body.String(), "goalsnek_move_duration_seconds")
}

func TestConvertToGameState(t *testing.T) {
	req := gameRequest("g", 12)
	req.Board.Hazards = []Coord{{X: 0, Y: 0}}
	state := convertToGameState(&req)

	require.Equal(t, int32(12), state.Turn)
	require.Equal(t, "me", state.Snakes[0].Id, "you first")
	require.Equal(t, "o", state.Snakes[1].Id)
	require.Equal(t, []game.Point{{X: 0, Y: 0}}, state.Hazards)
	require.Equal(t, []game.Point{{X: 5, Y: 8}}, state.Food)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  listen: \":7000\"\nagent:\n  personality: timid\n"), 0o644))

	cmd := &cobra.Command{}
	var f flags
	bindFlags(cmd, &f)
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--personality", "qlearning", "--learner-scope", "shared"}))

	cfg, err := loadConfig(cmd, f)
	require.NoError(t, err)
	require.Equal(t, ":7000", cfg.Server.Listen, "file value kept when the flag is unset")
	require.Equal(t, "qlearning", cfg.Agent.Personality)
	require.Equal(t, "shared", cfg.Learning.Scope)

	require.NoError(t, cmd.ParseFlags([]string{"--personality", "bogus"}))
	_, err = loadConfig(cmd, f)
	require.Error(t, err)
}

func TestDashboard(t *testing.T) {
	s, _ := newTestServer(t, "snacky")
	events := make(chan TurnEvent)
	m := newDashboard(":8080", s.registry, events)

	next, _ := m.Update(TurnEvent{GameID: "g", Turn: 4, Decision: agent.Decision{
		Direction: game.MoveLeft,
		Fallback:  true,
		Err:       strategy.ErrTargetUnreachable,
	}})
	view := next.View()
	require.Contains(t, view, "Moves:         1")
	require.Contains(t, view, "unreachable=1")
	require.Contains(t, view, "left")
}
