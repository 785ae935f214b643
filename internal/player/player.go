package player

import (
	"ctchen222/tictac/internal/apperror"
	"ctchen222/tictac/internal/game"
	"fmt"
	"math/rand/v2"
)

// Kind identifies how a player chooses their moves.
type Kind string

const (
	KindHuman    Kind = "human"
	KindEasyAI   Kind = "easy_ai"
	KindMediumAI Kind = "medium_ai"
)

// Player owns a symbol and moves on a grid shared with the round and the other player.
type Player interface {
	Symbol() game.Symbol
	Kind() Kind
}

// AI is a player that decides on its own move when asked.
type AI interface {
	Player
	// MakeMove places this player's symbol on the grid and returns the result.
	MakeMove() (game.MoveResult, error)
}

// Rand is the random source used to pick moves. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand returns a Rand backed by the global math/rand/v2 source.
func DefaultRand() Rand {
	return globalRand{}
}

type base struct {
	symbol game.Symbol
	grid   *game.Grid
}

func newBase(symbol game.Symbol, grid *game.Grid) (base, error) {
	if !symbol.IsPlayer() {
		return base{}, fmt.Errorf("%w: player can't be assigned symbol %q", apperror.ErrInvalidArgument, symbol)
	}
	if grid == nil {
		return base{}, fmt.Errorf("%w: player needs a grid", apperror.ErrInvalidArgument)
	}
	return base{symbol: symbol, grid: grid}, nil
}

func (b base) Symbol() game.Symbol {
	return b.symbol
}

// randomMove picks a uniformly random empty field.
func randomMove(grid *game.Grid, rng Rand) (game.Coord, error) {
	moves := grid.GetAllValidMoves()
	if len(moves) == 0 {
		return game.Coord{}, fmt.Errorf("%w: there are no valid moves", apperror.ErrInvalidState)
	}
	return moves[rng.IntN(len(moves))], nil
}
