package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type DownloaderConfig struct {
	// EngineURL is a template taking the game ID.
	EngineURL      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

func DefaultDownloaderConfig() DownloaderConfig {
	return DownloaderConfig{
		EngineURL:      "wss://engine.battlesnake.com/games/%s/events",
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
	}
}

// Downloader reads finished games from the engine event stream.
type Downloader struct {
	cfg DownloaderConfig
}

func NewDownloader(cfg DownloaderConfig) *Downloader {
	return &Downloader{cfg: cfg}
}

// Download streams every frame of gameID. It stops at "game_end", when the
// server closes the stream, or on a read error after at least one frame.
func (d *Downloader) Download(ctx context.Context, gameID string) (Game, []Frame, error) {
	log := zerolog.Ctx(ctx).With().Str("game_id", gameID).Logger()
	url := fmt.Sprintf(d.cfg.EngineURL, gameID)

	dialer := websocket.Dialer{HandshakeTimeout: d.cfg.ConnectTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return Game{}, nil, fmt.Errorf("connect %s: %w", url, err)
	}
	defer conn.Close()

	var (
		frames    []Frame
		info      GameInfo
		lastFrame *FrameData
	)

read:
	for {
		if err := ctx.Err(); err != nil {
			return Game{}, nil, err
		}
		_ = conn.SetReadDeadline(time.Now().Add(d.cfg.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || len(frames) > 0 {
				break
			}
			return Game{}, nil, fmt.Errorf("read: %w", err)
		}

		var event GameEvent
		if err := json.Unmarshal(message, &event); err != nil {
			log.Warn().Err(err).Msg("skipping unparseable event")
			continue
		}

		switch event.Type {
		case "game_info":
			if err := json.Unmarshal(event.Data, &info); err != nil {
				log.Warn().Err(err).Msg("bad game_info")
			}
		case "frame":
			var fd FrameData
			if err := json.Unmarshal(event.Data, &fd); err != nil {
				log.Warn().Err(err).Msg("skipping unparseable frame")
				continue
			}
			frames = append(frames, Frame{GameID: gameID, Turn: fd.Turn, RawJSON: string(event.Data)})
			lastFrame = &fd
		case "game_end":
			break read
		}
	}

	g := Game{
		ID:      gameID,
		Ruleset: info.Ruleset.Name,
		Winner:  determineWinner(lastFrame),
		Width:   info.Game.Width,
		Height:  info.Game.Height,
	}
	log.Debug().Int("frames", len(frames)).Str("winner", g.Winner).Msg("downloaded game")
	return g, frames, nil
}

// Fetch returns the game from store, downloading and caching it first when
// it is not there yet.
func Fetch(ctx context.Context, store *Store, d *Downloader, gameID string) (Game, []Frame, error) {
	exists, err := store.GameExists(gameID)
	if err != nil {
		return Game{}, nil, err
	}
	if exists {
		return store.LoadGame(gameID)
	}

	g, frames, err := d.Download(ctx, gameID)
	if err != nil {
		return Game{}, nil, err
	}
	if err := store.InsertGame(g, frames); err != nil {
		return Game{}, nil, err
	}
	zerolog.Ctx(ctx).Info().Str("game_id", gameID).Int("frames", len(frames)).Msg("cached game")
	return g, frames, nil
}
