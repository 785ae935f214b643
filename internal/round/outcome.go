package round

import (
	"ctchen222/tictac/internal/game"
	"ctchen222/tictac/internal/player"
)

// Reason tells how a round ended.
type Reason string

const (
	ReasonVictory Reason = "victory"
	ReasonTie     Reason = "tie"
	ReasonTimeout Reason = "timeout"
)

// Outcome is reported once when a round finishes. Winner is nil for a draw.
type Outcome struct {
	Winner player.Player
	Reason Reason
	// Moves is the number of symbols on the grid when the round finished.
	Moves int
	// Generation is the number of resets the round had gone through when it finished.
	Generation uint64
}

// WinnerSymbol returns the symbol of the winner, or game.Empty for a draw.
func (o Outcome) WinnerSymbol() game.Symbol {
	if o.Winner == nil {
		return game.Empty
	}
	return o.Winner.Symbol()
}

// IsDraw reports whether nobody won.
func (o Outcome) IsDraw() bool {
	return o.Winner == nil
}

// FramingKind is the message shown to the person in front of the screen.
type FramingKind string

const (
	FramingVictory FramingKind = "victory"
	FramingDefeat  FramingKind = "defeat"
	FramingDraw    FramingKind = "draw"
)

// Framing is how an outcome is presented. Symbol is only set for victories in
// player-vs-player mode, where both players share the screen.
type Framing struct {
	Kind   FramingKind `json:"kind"`
	Symbol game.Symbol `json:"symbol,omitempty"`
}

// Framing maps the outcome onto victory, defeat or draw for a round played in mode.
func (o Outcome) Framing(mode Mode) Framing {
	if o.Winner == nil {
		return Framing{Kind: FramingDraw}
	}
	if mode == PlayerVsPlayer {
		return Framing{Kind: FramingVictory, Symbol: o.Winner.Symbol()}
	}
	if _, isAI := o.Winner.(player.AI); isAI {
		return Framing{Kind: FramingDefeat}
	}
	return Framing{Kind: FramingVictory}
}
