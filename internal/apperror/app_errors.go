package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks programmer errors such as an empty player symbol or a
	// coordinate outside of the grid.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidOperation marks calls that are not available in the current mode or state.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrInvalidState marks conditions that should never happen, e.g. an AI with no valid moves.
	ErrInvalidState = errors.New("invalid state")

	ErrRoundFinished   = fmt.Errorf("%w: round is already finished", ErrInvalidOperation)
	ErrSessionNotFound = errors.New("session not found")
)
