package learning

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// SnapshotRow is one Q value. Action indexes Actions.
type SnapshotRow struct {
	X      int32   `parquet:"x"`
	Y      int32   `parquet:"y"`
	GoalX  int32   `parquet:"goal_x"`
	GoalY  int32   `parquet:"goal_y"`
	Width  int32   `parquet:"width"`
	Height int32   `parquet:"height"`
	Action int32   `parquet:"action"`
	Value  float64 `parquet:"value"`
}

// SaveSnapshot writes the table to path as zstd parquet. The file is written
// next to path and renamed into place.
func (l *Learner) SaveSnapshot(path string) error {
	rows := l.snapshotRows()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "qtable_v2"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot merges the rows stored at path into the table, overwriting
// values that are already present. Rows without a board size take the
// configured one.
func (l *Learner) LoadSnapshot(path string) error {
	rows, err := parquet.ReadFile[SnapshotRow](path)
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", path, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range rows {
		if r.Action < 0 || int(r.Action) >= len(Actions) {
			return fmt.Errorf("snapshot %s: action index %d out of range", path, r.Action)
		}
		s := State{X: int(r.X), Y: int(r.Y), GoalX: int(r.GoalX), GoalY: int(r.GoalY), Width: int(r.Width), Height: int(r.Height)}
		l.rowLocked(l.sized(s))[r.Action] = r.Value
	}
	return nil
}

func (l *Learner) snapshotRows() []SnapshotRow {
	l.mu.Lock()
	defer l.mu.Unlock()

	states := make([]State, 0, len(l.q))
	for s := range l.q {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool {
		a, b := states[i], states[j]
		if a.Width != b.Width {
			return a.Width < b.Width
		}
		if a.Height != b.Height {
			return a.Height < b.Height
		}
		if a.GoalX != b.GoalX {
			return a.GoalX < b.GoalX
		}
		if a.GoalY != b.GoalY {
			return a.GoalY < b.GoalY
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})

	rows := make([]SnapshotRow, 0, len(states)*len(Actions))
	for _, s := range states {
		row := l.q[s]
		for a, v := range row {
			rows = append(rows, SnapshotRow{
				X: int32(s.X), Y: int32(s.Y), GoalX: int32(s.GoalX), GoalY: int32(s.GoalY),
				Width: int32(s.Width), Height: int32(s.Height),
				Action: int32(a), Value: v,
			})
		}
	}
	return rows
}
