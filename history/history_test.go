package history

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/brensch/goalsnek/game"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"
)

func opp(id string, x, y int32) game.Snake {
	return game.Snake{Id: id, Health: 80, Body: []game.Point{{X: x, Y: y}, {X: x, Y: y - 1}}}
}

func TestLedger_Record(t *testing.T) {
	l := NewLedger()
	l.Record(0, []game.Snake{opp("b", 1, 1), opp("a", 9, 9)})
	l.Record(1, []game.Snake{opp("b", 1, 2), opp("a", 8, 9), {Id: "ghost"}})
	l.Record(2, []game.Snake{opp("b", 1, 3)})

	require.Equal(t, []string{"a", "b"}, l.SnakeIDs())
	require.Equal(t, 5, l.Len())
	require.Equal(t, []Entry{
		{Turn: 0, Head: game.Point{X: 1, Y: 1}},
		{Turn: 1, Head: game.Point{X: 1, Y: 2}},
		{Turn: 2, Head: game.Point{X: 1, Y: 3}},
	}, l.Moves("b"))
	require.Nil(t, l.Moves("ghost"))

	moves := l.Moves("a")
	moves[0].Turn = 99
	require.Equal(t, int32(0), l.Moves("a")[0].Turn, "Moves must return a copy")
}

func TestLedger_ConcurrentRecord(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(turn int32) {
			defer wg.Done()
			l.Record(turn, []game.Snake{opp("a", 1, 1), opp("b", 2, 2)})
		}(int32(i))
	}
	wg.Wait()
	require.Equal(t, 20, l.Len())
	require.Len(t, l.Moves("a"), 10)
}

func TestWriteParquet(t *testing.T) {
	l := NewLedger()
	l.Record(0, []game.Snake{opp("b", 1, 1), opp("a", 9, 9)})
	l.Record(1, []game.Snake{opp("b", 1, 2), opp("a", 8, 9)})

	dir := t.TempDir()
	path, err := WriteParquet(dir, "game-1", l)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "game-1.parquet"), path)

	rows, err := parquet.ReadFile[Row](path)
	require.NoError(t, err)
	require.Equal(t, []Row{
		{GameID: "game-1", SnakeID: "a", Turn: 0, X: 9, Y: 9},
		{GameID: "game-1", SnakeID: "a", Turn: 1, X: 8, Y: 9},
		{GameID: "game-1", SnakeID: "b", Turn: 0, X: 1, Y: 1},
		{GameID: "game-1", SnakeID: "b", Turn: 1, X: 1, Y: 2},
	}, rows)

	leftovers, err := os.ReadDir(filepath.Join(dir, "tmp"))
	require.NoError(t, err)
	require.Empty(t, leftovers)

	_, err = WriteParquet(dir, "", l)
	require.Error(t, err)
}
