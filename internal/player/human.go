package player

import "ctchen222/tictac/internal/game"

// Human is a player whose moves come from user input.
type Human struct {
	base
}

// NewHuman creates a human player bound to grid.
func NewHuman(symbol game.Symbol, grid *game.Grid) (*Human, error) {
	b, err := newBase(symbol, grid)
	if err != nil {
		return nil, err
	}
	return &Human{base: b}, nil
}

func (*Human) Kind() Kind {
	return KindHuman
}

// ReceiveInput tries to place the player's symbol at (x, y). A Blocked result ends
// nothing: the caller keeps waiting for another input.
func (h *Human) ReceiveInput(x, y int) (game.MoveResult, error) {
	return h.grid.TrySetSymbol(h.symbol, x, y)
}
