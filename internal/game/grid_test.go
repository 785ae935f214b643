package game

import (
	"ctchen222/tictac/internal/apperror"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// winningLines lists the 8 formations of three fields.
var winningLines = []struct {
	name   string
	fields [3]Coord
}{
	{"row x=0", [3]Coord{{0, 0}, {0, 1}, {0, 2}}},
	{"row x=1", [3]Coord{{1, 0}, {1, 1}, {1, 2}}},
	{"row x=2", [3]Coord{{2, 0}, {2, 1}, {2, 2}}},
	{"column y=0", [3]Coord{{0, 0}, {1, 0}, {2, 0}}},
	{"column y=1", [3]Coord{{0, 1}, {1, 1}, {2, 1}}},
	{"column y=2", [3]Coord{{0, 2}, {1, 2}, {2, 2}}},
	{"diagonal", [3]Coord{{0, 0}, {1, 1}, {2, 2}}},
	{"anti-diagonal", [3]Coord{{0, 2}, {1, 1}, {2, 0}}},
}

// permutations of the indexes 0..2, i.e. every order in which a line can be filled.
var fillOrders = [][3]int{
	{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
}

// drawSequence fills the grid without ever forming three in a row.
var drawSequence = []Coord{
	{0, 0}, {1, 1}, {2, 2}, {0, 2}, {2, 0}, {1, 0}, {1, 2}, {2, 1}, {0, 1},
}

// symbolForIndex alternates X and O so tests use both symbols deterministically.
func symbolForIndex(i int) Symbol {
	if i%2 == 0 {
		return X
	}
	return O
}

func place(t *testing.T, g *Grid, symbol Symbol, c Coord) MoveResult {
	t.Helper()
	result, err := g.TrySetSymbol(symbol, c.X, c.Y)
	require.NoError(t, err)
	return result
}

func countNonEmpty(g *Grid) int {
	n := 0
	for x := range GridSize {
		for y := range GridSize {
			if g.fields[x][y] != Empty {
				n++
			}
		}
	}
	return n
}

func TestNewGrid(t *testing.T) {
	g := NewGrid()

	assert.Equal(t, 0, g.MoveCount())
	assert.Len(t, g.GetAllValidMoves(), FieldCount)
	for x := range GridSize {
		for y := range GridSize {
			s, err := g.GetSymbol(x, y)
			require.NoError(t, err)
			assert.Equal(t, Empty, s)
		}
	}
}

func TestGrid_TrySetSymbol(t *testing.T) {
	t.Run("Places symbol and records history", func(t *testing.T) {
		g := NewGrid()

		result := place(t, g, X, Coord{1, 2})

		assert.Equal(t, Success, result)
		s, err := g.GetSymbol(1, 2)
		require.NoError(t, err)
		assert.Equal(t, X, s)
		assert.Equal(t, []Coord{{1, 2}}, g.History())
	})

	t.Run("Blocked on occupied field leaves grid unchanged", func(t *testing.T) {
		// Given: a grid with X in the center
		g := NewGrid()
		place(t, g, X, Coord{1, 1})
		before := g.Snapshot()

		var notified []Coord
		g.Subscribe(func(c Coord) { notified = append(notified, c) })

		// When: O tries the same field
		result := place(t, g, O, Coord{1, 1})

		// Then: the move is blocked and nothing changed or was notified
		assert.Equal(t, Blocked, result)
		assert.Equal(t, before, g.Snapshot())
		assert.Equal(t, 1, g.MoveCount())
		assert.Empty(t, notified)
	})

	t.Run("Rejects empty symbol", func(t *testing.T) {
		g := NewGrid()

		_, err := g.TrySetSymbol(Empty, 0, 0)

		require.ErrorIs(t, err, apperror.ErrInvalidArgument)
		assert.Equal(t, 0, g.MoveCount())
	})

	t.Run("Rejects coordinates out of range", func(t *testing.T) {
		g := NewGrid()
		for _, c := range []Coord{{-1, 0}, {0, -1}, {3, 0}, {0, 3}, {5, 5}} {
			_, err := g.TrySetSymbol(X, c.X, c.Y)
			require.ErrorIs(t, err, apperror.ErrInvalidArgument, "coord %v", c)
		}
		assert.Equal(t, 0, g.MoveCount())
	})

	t.Run("Notifies field changed on placement", func(t *testing.T) {
		g := NewGrid()
		var notified []Coord
		unsubscribe := g.Subscribe(func(c Coord) { notified = append(notified, c) })

		place(t, g, X, Coord{2, 0})
		unsubscribe()
		place(t, g, O, Coord{0, 2})

		assert.Equal(t, []Coord{{2, 0}}, notified)
	})
}

func TestGrid_GetSymbolOutOfRange(t *testing.T) {
	g := NewGrid()

	_, err := g.GetSymbol(3, 1)

	require.ErrorIs(t, err, apperror.ErrInvalidArgument)
}

func TestGrid_Victory(t *testing.T) {
	for _, line := range winningLines {
		for _, order := range fillOrders {
			g := NewGrid()

			first := place(t, g, X, line.fields[order[0]])
			second := place(t, g, X, line.fields[order[1]])
			third := place(t, g, X, line.fields[order[2]])

			assert.Equal(t, Success, first, "%s %v", line.name, order)
			assert.Equal(t, Success, second, "%s %v", line.name, order)
			assert.Equal(t, Victory, third, "%s %v", line.name, order)
		}
	}
}

func TestGrid_TryGetWinningMove(t *testing.T) {
	t.Run("Finds the finishing field of every line", func(t *testing.T) {
		for _, line := range winningLines {
			for _, order := range fillOrders {
				g := NewGrid()
				place(t, g, O, line.fields[order[0]])
				place(t, g, O, line.fields[order[1]])

				move, ok := g.TryGetWinningMove(O)

				require.True(t, ok, "%s %v", line.name, order)
				assert.Equal(t, line.fields[order[2]], move, "%s %v", line.name, order)
				_, ok = g.TryGetWinningMove(X)
				assert.False(t, ok)
			}
		}
	})

	t.Run("Not found with fewer than two moves", func(t *testing.T) {
		g := NewGrid()
		place(t, g, X, Coord{0, 0})

		_, ok := g.TryGetWinningMove(X)

		assert.False(t, ok)
	})

	t.Run("Not found when the line is blocked", func(t *testing.T) {
		g := NewGrid()
		place(t, g, X, Coord{0, 0})
		place(t, g, X, Coord{0, 1})
		place(t, g, O, Coord{0, 2})

		_, ok := g.TryGetWinningMove(X)

		assert.False(t, ok)
	})

	t.Run("Ties are broken by scan order", func(t *testing.T) {
		// Given: X can finish both column y=0 at (2,0) and row x=0 at (0,2)
		g := NewGrid()
		place(t, g, X, Coord{0, 0})
		place(t, g, X, Coord{1, 0})
		place(t, g, X, Coord{0, 1})

		move, ok := g.TryGetWinningMove(X)

		// Then: field (0,0) is scanned first and direction (0,1) precedes (1,0)
		require.True(t, ok)
		assert.Equal(t, Coord{0, 2}, move)
	})
}

func TestGrid_Tie(t *testing.T) {
	g := NewGrid()

	for i, c := range drawSequence {
		result := place(t, g, symbolForIndex(i), c)
		if i < len(drawSequence)-1 {
			require.Equal(t, Success, result, "move %d", i)
		} else {
			assert.Equal(t, Tie, result)
		}
	}
	assert.Empty(t, g.GetAllValidMoves())
}

func TestGrid_VictoryOnLastFieldIsNotTie(t *testing.T) {
	// X O X / O X O / O X _ : X completes the diagonal with the 9th move.
	g := NewGrid()
	moves := []struct {
		s Symbol
		c Coord
	}{
		{X, Coord{0, 0}}, {O, Coord{0, 1}}, {X, Coord{0, 2}},
		{O, Coord{1, 0}}, {X, Coord{1, 1}}, {O, Coord{1, 2}},
		{O, Coord{2, 0}}, {X, Coord{2, 1}},
	}
	for _, m := range moves {
		require.Equal(t, Success, place(t, g, m.s, m.c))
	}

	assert.Equal(t, Victory, place(t, g, X, Coord{2, 2}))
}

func TestGrid_Scenario(t *testing.T) {
	g := NewGrid()

	require.Equal(t, Success, place(t, g, X, Coord{0, 0}))
	require.Equal(t, Success, place(t, g, O, Coord{0, 1}))
	require.Equal(t, Success, place(t, g, X, Coord{1, 1}))

	move, ok := g.TryGetWinningMove(X)
	require.True(t, ok)
	assert.Equal(t, Coord{2, 2}, move)

	require.Equal(t, Success, place(t, g, O, Coord{1, 0}))
	assert.Equal(t, Victory, place(t, g, X, Coord{2, 2}))
}

func TestGrid_GetAllValidMoves(t *testing.T) {
	g := NewGrid()
	place(t, g, X, Coord{0, 1})
	place(t, g, O, Coord{2, 2})

	moves := g.GetAllValidMoves()

	assert.Equal(t, []Coord{{0, 0}, {0, 2}, {1, 0}, {1, 1}, {1, 2}, {2, 0}, {2, 1}}, moves)

	// Fresh on every call.
	place(t, g, X, Coord{1, 1})
	assert.Len(t, g.GetAllValidMoves(), 6)
	assert.Len(t, moves, 7)
}

func TestGrid_Undo(t *testing.T) {
	for _, n := range []int{1, 2, 6, 9} {
		for length := n; length <= len(drawSequence); length++ {
			g := NewGrid()
			for i := range length {
				place(t, g, symbolForIndex(i), drawSequence[i])
			}

			changed := g.Undo(n)

			// Most recent first.
			require.Len(t, changed, n)
			for i, c := range changed {
				assert.Equal(t, drawSequence[length-1-i], c)
				s, err := g.GetSymbol(c.X, c.Y)
				require.NoError(t, err)
				assert.Equal(t, Empty, s)
			}
			for i := range length - n {
				s, err := g.GetSymbol(drawSequence[i].X, drawSequence[i].Y)
				require.NoError(t, err)
				assert.Equal(t, symbolForIndex(i), s)
			}
			assert.Equal(t, length-n, g.MoveCount())
			assert.Equal(t, countNonEmpty(g), g.MoveCount())
		}
	}
}

func TestGrid_UndoMoreThanHistoryIsNoop(t *testing.T) {
	g := NewGrid()
	place(t, g, X, Coord{0, 0})
	place(t, g, O, Coord{1, 1})
	before := g.Snapshot()

	var notified []Coord
	g.Subscribe(func(c Coord) { notified = append(notified, c) })

	assert.Nil(t, g.Undo(3))
	assert.Equal(t, before, g.Snapshot())
	assert.Equal(t, 2, g.MoveCount())
	assert.Empty(t, notified)

	// Undo on an empty history does nothing either.
	empty := NewGrid()
	assert.Nil(t, empty.Undo(1))
	assert.Equal(t, 0, empty.MoveCount())
}

func TestGrid_UndoAllowsReplay(t *testing.T) {
	g := NewGrid()
	place(t, g, X, Coord{0, 0})
	place(t, g, X, Coord{0, 1})

	g.Undo(1)

	assert.Equal(t, Success, place(t, g, O, Coord{0, 1}))
}

func TestGrid_Reset(t *testing.T) {
	g := NewGrid()
	place(t, g, X, Coord{0, 0})
	place(t, g, O, Coord{2, 1})

	var notified []Coord
	g.Subscribe(func(c Coord) { notified = append(notified, c) })

	changed := g.Reset()

	assert.Len(t, changed, FieldCount)
	assert.Equal(t, changed, notified)
	assert.Equal(t, 0, g.MoveCount())
	assert.Equal(t, [GridSize][GridSize]Symbol{}, g.Snapshot())
	assert.Equal(t, Coord{0, 0}, changed[0])
	assert.Equal(t, Coord{2, 2}, changed[FieldCount-1])
}

func TestGrid_HistoryMatchesBoard(t *testing.T) {
	g := NewGrid()
	for i, c := range drawSequence[:6] {
		place(t, g, symbolForIndex(i), c)
		place(t, g, symbolForIndex(i+1), c) // blocked
		require.Equal(t, countNonEmpty(g), g.MoveCount())
	}
	g.Undo(2)
	require.Equal(t, countNonEmpty(g), g.MoveCount())
	g.Reset()
	require.Equal(t, countNonEmpty(g), g.MoveCount())
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, O, X.Opposite())
	assert.Equal(t, X, O.Opposite())
	assert.Equal(t, Empty, Empty.Opposite())

	s, err := ParseSymbol("O")
	require.NoError(t, err)
	assert.Equal(t, O, s)

	_, err = ParseSymbol("Z")
	require.ErrorIs(t, err, apperror.ErrInvalidArgument)
}
