package events

import (
	"ctchen222/tictac/internal/game"
	"encoding/json"
	"fmt"
)

// Pub/Sub channel constants
const (
	EventsChannel = "channel:events"
)

// Event types
const (
	TypeRoundStarted  = "round_started"
	TypeFieldChanged  = "field_changed"
	TypeRoundFinished = "round_finished"
	TypeRoundReset    = "round_reset"
	TypeRoundClosed   = "round_closed"
)

// Event represents a global message published via Pub/Sub.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent marshals payload into an event of the given type.
func NewEvent(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Payload: raw}, nil
}

// RoundStartedPayload is the payload for the "round_started" and "round_reset" events.
type RoundStartedPayload struct {
	RoundID string `json:"round_id"`
	Mode    string `json:"mode"`
	PlayerX string `json:"player_x"`
	PlayerO string `json:"player_o"`
}

// FieldChangedPayload is the payload for the "field_changed" event.
type FieldChangedPayload struct {
	RoundID string      `json:"round_id"`
	X       int         `json:"x"`
	Y       int         `json:"y"`
	Symbol  game.Symbol `json:"symbol"`
}

// RoundFinishedPayload is the payload for the "round_finished" event.
type RoundFinishedPayload struct {
	RoundID string      `json:"round_id"`
	Reason  string      `json:"reason"`
	Winner  game.Symbol `json:"winner,omitempty"`
	Moves   int         `json:"moves"`
}

// RoundClosedPayload is the payload for the "round_closed" event.
type RoundClosedPayload struct {
	RoundID string `json:"round_id"`
}
