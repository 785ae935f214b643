package round

import (
	"ctchen222/tictac/internal/apperror"
	"fmt"
)

// Mode decides who plays against whom.
type Mode string

const (
	PlayerVsPlayer   Mode = "pvp"
	PlayerVsEasyAI   Mode = "easy"
	PlayerVsMediumAI Mode = "medium"
)

// Modes lists every supported mode.
var Modes = []Mode{PlayerVsPlayer, PlayerVsEasyAI, PlayerVsMediumAI}

// ParseMode converts the textual form of a mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: unknown game mode %q", apperror.ErrInvalidArgument, s)
	}
	return m, nil
}

func (m Mode) String() string {
	return string(m)
}

func (m Mode) IsValid() bool {
	switch m {
	case PlayerVsPlayer, PlayerVsEasyAI, PlayerVsMediumAI:
		return true
	}
	return false
}

// HasAI reports whether one of the players is controlled by the computer.
func (m Mode) HasAI() bool {
	return m == PlayerVsEasyAI || m == PlayerVsMediumAI
}
