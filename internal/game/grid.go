package game

import (
	"ctchen222/tictac/internal/apperror"
	"fmt"
)

const (
	// GridSize is the length of the grid side.
	GridSize = 3
	// FieldCount is the total number of fields.
	FieldCount = GridSize * GridSize

	// Board boundaries
	BorderMin = 0
	BorderMax = GridSize - 1
)

// Coord addresses a field as (x, y), both in [BorderMin, BorderMax].
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) add(d Coord) Coord { return Coord{X: c.X + d.X, Y: c.Y + d.Y} }
func (c Coord) sub(d Coord) Coord { return Coord{X: c.X - d.X, Y: c.Y - d.Y} }

// InBounds reports whether c lies on the grid.
func (c Coord) InBounds() bool {
	return !isIndexOutOfRange(c.X) && !isIndexOutOfRange(c.Y)
}

// neighbourOffsets lists every direction around a field, x outer and y inner, skipping (0,0).
var neighbourOffsets = [8]Coord{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

type fieldListener struct {
	id int
	fn func(Coord)
}

// Grid is the 3x3 board together with the history of moves made on it.
//
// The history only stores coordinates: a field never changes once it holds X or O,
// so the symbol can always be read back from the board. Grid is not safe for
// concurrent use; the round that owns it serializes all writers.
type Grid struct {
	fields  [GridSize][GridSize]Symbol
	history []Coord

	listeners      []fieldListener
	nextListenerID int
}

// NewGrid returns an empty grid.
func NewGrid() *Grid {
	return &Grid{
		history: make([]Coord, 0, FieldCount),
	}
}

// Subscribe registers fn to be called with the coordinates of every field whose value is
// written. The returned function removes the subscription and may be called more than once.
func (g *Grid) Subscribe(fn func(Coord)) (unsubscribe func()) {
	id := g.nextListenerID
	g.nextListenerID++
	g.listeners = append(g.listeners, fieldListener{id: id, fn: fn})

	return func() {
		for i, l := range g.listeners {
			if l.id == id {
				g.listeners = append(g.listeners[:i], g.listeners[i+1:]...)
				return
			}
		}
	}
}

// TrySetSymbol attempts to place symbol at (x, y).
func (g *Grid) TrySetSymbol(symbol Symbol, x, y int) (MoveResult, error) {
	if !symbol.IsPlayer() {
		return "", fmt.Errorf("%w: can't place symbol %q", apperror.ErrInvalidArgument, symbol)
	}
	if err := checkCoordinates(x, y); err != nil {
		return "", err
	}

	if g.fields[x][y] != Empty {
		return Blocked, nil
	}

	c := Coord{X: x, Y: y}
	g.history = append(g.history, c)
	g.setSymbol(symbol, c)

	if g.isWinningFormation(c) {
		return Victory, nil
	}
	if len(g.history) >= FieldCount {
		return Tie, nil
	}

	return Success, nil
}

// GetSymbol returns the symbol at (x, y).
func (g *Grid) GetSymbol(x, y int) (Symbol, error) {
	if err := checkCoordinates(x, y); err != nil {
		return Empty, err
	}
	return g.fields[x][y], nil
}

// GetAllValidMoves returns every empty field in row-major order (x outer, y inner).
func (g *Grid) GetAllValidMoves() []Coord {
	moves := make([]Coord, 0, FieldCount-len(g.history))
	for x := range GridSize {
		for y := range GridSize {
			if g.fields[x][y] == Empty {
				moves = append(moves, Coord{X: x, Y: y})
			}
		}
	}
	return moves
}

// MoveCount returns the number of moves in the history.
func (g *Grid) MoveCount() int {
	return len(g.history)
}

// History returns a copy of the move history, oldest first.
func (g *Grid) History() []Coord {
	return append([]Coord(nil), g.history...)
}

// Snapshot returns a copy of the board indexed as [x][y].
func (g *Grid) Snapshot() [GridSize][GridSize]Symbol {
	return g.fields
}

// Reset empties every field and clears the history. Every field is reported as changed,
// including fields that were already empty.
func (g *Grid) Reset() []Coord {
	changed := make([]Coord, 0, FieldCount)
	for x := range GridSize {
		for y := range GridSize {
			c := Coord{X: x, Y: y}
			g.setSymbol(Empty, c)
			changed = append(changed, c)
		}
	}

	g.history = g.history[:0]
	return changed
}

// Undo reverts the last n moves, most recent first. If n is greater than the number of
// moves made, nothing is undone.
func (g *Grid) Undo(n int) []Coord {
	if n > len(g.history) || n <= 0 {
		return nil
	}

	changed := make([]Coord, 0, n)
	for range n {
		last := g.history[len(g.history)-1]
		g.history = g.history[:len(g.history)-1]
		g.setSymbol(Empty, last)
		changed = append(changed, last)
	}
	return changed
}

// TryGetWinningMove finds a field that would complete three in a row for symbol.
// When several exist, the first one found scanning fields in row-major order and
// directions in neighbour order is returned.
func (g *Grid) TryGetWinningMove(symbol Symbol) (Coord, bool) {
	// Two symbols are needed before a single move can win.
	if len(g.history) < GridSize-1 || !symbol.IsPlayer() {
		return Coord{}, false
	}

	for x := range GridSize {
		for y := range GridSize {
			if g.fields[x][y] != symbol {
				continue
			}
			if move, ok := g.tryGetFinishingMove(Coord{X: x, Y: y}); ok {
				return move, true
			}
		}
	}

	return Coord{}, false
}

func (g *Grid) setSymbol(symbol Symbol, c Coord) {
	g.fields[c.X][c.Y] = symbol
	for _, l := range g.listeners {
		l.fn(c)
	}
}

func (g *Grid) at(c Coord) Symbol {
	return g.fields[c.X][c.Y]
}

// isWinningFormation reports whether the symbol at c is part of three in a row.
// A neighbour with the same symbol is followed either one step further in the same
// direction, or one step in the opposite direction when c sits in the middle.
func (g *Grid) isWinningFormation(c Coord) bool {
	if len(g.history) < GridSize {
		return false
	}

	symbol := g.at(c)
	if symbol == Empty {
		return false
	}

	for _, d := range neighbourOffsets {
		n := c.add(d)
		if !n.InBounds() || g.at(n) != symbol {
			continue
		}
		if next := n.add(d); next.InBounds() && g.at(next) == symbol {
			return true
		}
		if opposite := c.sub(d); opposite.InBounds() && g.at(opposite) == symbol {
			return true
		}
	}

	return false
}

// tryGetFinishingMove looks for an empty field completing a formation that passes through c.
func (g *Grid) tryGetFinishingMove(c Coord) (Coord, bool) {
	symbol := g.at(c)
	if symbol == Empty {
		return Coord{}, false
	}

	for _, d := range neighbourOffsets {
		n := c.add(d)
		if !n.InBounds() {
			continue
		}
		next := n.add(d)

		// A gap between two equal symbols.
		if g.at(n) == Empty && next.InBounds() && g.at(next) == symbol {
			return n, true
		}

		if g.at(n) != symbol {
			continue
		}
		if next.InBounds() && g.at(next) == Empty {
			return next, true
		}
		if opposite := c.sub(d); opposite.InBounds() && g.at(opposite) == Empty {
			return opposite, true
		}
	}

	return Coord{}, false
}

func isIndexOutOfRange(i int) bool {
	return i < BorderMin || i > BorderMax
}

func checkCoordinates(x, y int) error {
	if isIndexOutOfRange(x) {
		return fmt.Errorf("%w: x=%d must be in range [%d,%d]", apperror.ErrInvalidArgument, x, BorderMin, BorderMax)
	}
	if isIndexOutOfRange(y) {
		return fmt.Errorf("%w: y=%d must be in range [%d,%d]", apperror.ErrInvalidArgument, y, BorderMin, BorderMax)
	}
	return nil
}
