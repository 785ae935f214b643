package player

import "ctchen222/tictac/internal/game"

// EasyAI moves on a random empty field.
type EasyAI struct {
	base
	rng Rand
}

// NewEasyAI creates an EasyAI. A nil rng uses DefaultRand.
func NewEasyAI(symbol game.Symbol, grid *game.Grid, rng Rand) (*EasyAI, error) {
	b, err := newBase(symbol, grid)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = DefaultRand()
	}
	return &EasyAI{base: b, rng: rng}, nil
}

func (*EasyAI) Kind() Kind {
	return KindEasyAI
}

func (ai *EasyAI) MakeMove() (game.MoveResult, error) {
	move, err := randomMove(ai.grid, ai.rng)
	if err != nil {
		return "", err
	}
	return ai.grid.TrySetSymbol(ai.symbol, move.X, move.Y)
}

// MediumAI wins if it can, blocks the opponent if it must, and otherwise moves randomly.
type MediumAI struct {
	base
	opposite game.Symbol
	rng      Rand
}

// NewMediumAI creates a MediumAI. A nil rng uses DefaultRand.
func NewMediumAI(symbol game.Symbol, grid *game.Grid, rng Rand) (*MediumAI, error) {
	b, err := newBase(symbol, grid)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = DefaultRand()
	}
	return &MediumAI{base: b, opposite: symbol.Opposite(), rng: rng}, nil
}

func (*MediumAI) Kind() Kind {
	return KindMediumAI
}

func (ai *MediumAI) MakeMove() (game.MoveResult, error) {
	move, err := ai.chooseMove()
	if err != nil {
		return "", err
	}
	return ai.grid.TrySetSymbol(ai.symbol, move.X, move.Y)
}

func (ai *MediumAI) chooseMove() (game.Coord, error) {
	// 1. Win
	if move, ok := ai.grid.TryGetWinningMove(ai.symbol); ok {
		return move, nil
	}
	// 2. Block
	if move, ok := ai.grid.TryGetWinningMove(ai.opposite); ok {
		return move, nil
	}
	// 3. Random
	return randomMove(ai.grid, ai.rng)
}
