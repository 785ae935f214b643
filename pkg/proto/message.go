package proto

import "ctchen222/tictac/internal/game"

// Client message types
const (
	TypeMove  = "move"
	TypeHint  = "hint"
	TypeUndo  = "undo"
	TypeReset = "reset"
	TypeState = "state"
)

// Server message types
const (
	TypeFieldChanged  = "field_changed"
	TypeRoundFinished = "round_finished"
	TypeError         = "error"
)

// ClientToServerMessage represents a message from the client to the server.
// Position is [x, y] and is only used by moves.
type ClientToServerMessage struct {
	Type     string `json:"type" validate:"required,oneof=move hint undo reset state"`
	Position []int  `json:"position,omitempty" validate:"omitempty,len=2"`
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type    string      `json:"type" validate:"required"`
	Reason  string      `json:"reason,omitempty"`
	State   *RoundState `json:"state,omitempty"`
	Field   *Field      `json:"field,omitempty"`
	Outcome *Outcome    `json:"outcome,omitempty"`
	Hint    *Hint       `json:"hint,omitempty"`
}

// RoundState is everything a client needs to draw a round. Board is indexed [x][y].
type RoundState struct {
	ID          string          `json:"id"`
	Mode        string          `json:"mode"`
	Board       [][]game.Symbol `json:"board"`
	Next        game.Symbol     `json:"next,omitempty"`
	PlayerX     string          `json:"playerX"`
	PlayerO     string          `json:"playerO"`
	Finished    bool            `json:"finished"`
	Outcome     *Outcome        `json:"outcome,omitempty"`
	TimePerTurn int64           `json:"timePerTurnMs"`
	Remaining   int64           `json:"remainingMs"`
	Progress    float64         `json:"progress"`

	UndoAvailable  bool `json:"undoAvailable"`
	HintAvailable  bool `json:"hintAvailable"`
	ResetAvailable bool `json:"resetAvailable"`
}

// Field is a single changed field.
type Field struct {
	X      int         `json:"x"`
	Y      int         `json:"y"`
	Symbol game.Symbol `json:"symbol"`
}

// Outcome describes how a round ended and how to present it.
type Outcome struct {
	Reason        string      `json:"reason"`
	Winner        game.Symbol `json:"winner,omitempty"`
	Framing       string      `json:"framing"`
	FramingSymbol game.Symbol `json:"framingSymbol,omitempty"`
}

// Hint is a suggested move for the player on turn.
type Hint struct {
	Symbol game.Symbol `json:"symbol"`
	X      int         `json:"x"`
	Y      int         `json:"y"`
}
