package history

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// Row is the exported form of one ledger entry.
type Row struct {
	GameID  string `parquet:"game_id,dict"`
	SnakeID string `parquet:"snake_id,dict"`
	Turn    int32  `parquet:"turn"`
	X       int32  `parquet:"x"`
	Y       int32  `parquet:"y"`
}

// Rows flattens the ledger, grouped by snake ID and ordered by turn within
// each snake.
func (l *Ledger) Rows(gameID string) []Row {
	rows := make([]Row, 0, l.Len())
	for _, id := range l.SnakeIDs() {
		for _, e := range l.Moves(id) {
			rows = append(rows, Row{GameID: gameID, SnakeID: id, Turn: e.Turn, X: e.Head.X, Y: e.Head.Y})
		}
	}
	return rows
}

// WriteParquet writes the ledger to outDir/<gameID>.parquet. The file is
// staged under outDir/tmp and renamed into place so readers never see a
// partial file. The returned path is the final file.
func WriteParquet(outDir, gameID string, l *Ledger) (string, error) {
	if gameID == "" {
		return "", fmt.Errorf("write history: empty game id")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := gameID + ".parquet"
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, l.Rows(gameID),
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "opponent_history_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}
