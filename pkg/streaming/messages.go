// Package streaming defines the WebSocket protocol between the map server and
// its browser clients.
package streaming

import (
	"encoding/json"
	"fmt"
)

// Client to server message types.
const (
	TypeSelectPhase    = "select_phase"
	TypeSelectMovement = "select_movement"
	TypeToggleLegend   = "toggle_legend"
	TypeOpenOverlay    = "open_overlay"
	TypeCloseOverlay   = "close_overlay"
	TypeKey            = "key"
	TypeTourNext       = "tour_next"
	TypeTourFinish     = "tour_finish"
)

// Server to client message types.
const (
	TypeState  = "state"
	TypeLayers = "layers"
	TypeError  = "error"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SelectPhasePayload switches the phase filter; "" selects all phases.
type SelectPhasePayload struct {
	Phase string `json:"phase"`
}

// SelectMovementPayload highlights a movement; "" clears the highlight.
type SelectMovementPayload struct {
	MovementID string `json:"movementId"`
}

// OpenOverlayPayload opens an overlay by name with an optional argument
// (gallery start index, river id).
type OpenOverlayPayload struct {
	Overlay string `json:"overlay"`
	Arg     string `json:"arg,omitempty"`
}

// KeyPayload carries a keyboard key name such as "Escape" or "ArrowLeft".
type KeyPayload struct {
	Key string `json:"key"`
}

// ErrorPayload reports a rejected client message.
type ErrorPayload struct {
	For   string `json:"for"`
	Error string `json:"error"`
}

// Marshal builds a JSON-encoded Envelope from a message type and payload.
// A json.RawMessage payload is embedded as is.
func Marshal(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		raw = p
	default:
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
		}
		raw = b
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}
