package models

import "ctchen222/tictac/pkg/proto"

// CreateRoundRequest defines the structure for starting a new round.
// An empty mode uses the configured default.
type CreateRoundRequest struct {
	Mode string `json:"mode" binding:"omitempty,oneof=pvp easy medium"`
}

// MoveRequest defines the structure for a click on a field.
type MoveRequest struct {
	X *int `json:"x" binding:"required"`
	Y *int `json:"y" binding:"required"`
}

// MoveResponse defines the structure returned after a move.
type MoveResponse struct {
	Result string           `json:"result"`
	State  proto.RoundState `json:"state"`
}

// RoundListResponse lists the state of every hosted round.
type RoundListResponse struct {
	Rounds []proto.RoundState `json:"rounds"`
}
