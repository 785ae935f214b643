package game

import (
	"ctchen222/tictac/internal/apperror"
	"fmt"
)

// Symbol is the mark occupying a field or identifying a player.
type Symbol string

// MoveResult is the outcome of a single attempt to place a symbol.
type MoveResult string

const (
	Empty Symbol = ""
	X     Symbol = "X"
	O     Symbol = "O"

	// Success means the symbol was placed and the round goes on.
	Success MoveResult = "success"
	// Blocked means the field was already taken. The grid was not modified.
	Blocked MoveResult = "blocked"
	// Victory means the placed symbol completed three in a row.
	Victory MoveResult = "victory"
	// Tie means the last empty field was filled without a winning formation.
	Tie MoveResult = "tie"
)

// Opposite returns the symbol of the other player. Empty has no opposite.
func (s Symbol) Opposite() Symbol {
	switch s {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// IsPlayer reports whether s can be assigned to a player.
func (s Symbol) IsPlayer() bool {
	return s == X || s == O
}

func (s Symbol) String() string {
	return string(s)
}

// ParseSymbol converts "X", "O" or "" into a Symbol.
func ParseSymbol(s string) (Symbol, error) {
	switch Symbol(s) {
	case Empty, X, O:
		return Symbol(s), nil
	default:
		return Empty, fmt.Errorf("%w: unknown symbol %q", apperror.ErrInvalidArgument, s)
	}
}

func (r MoveResult) String() string {
	return string(r)
}
