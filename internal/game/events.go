// internal/game/events.go
package game

import "github.com/whitejack/server/internal/models"

// EventType is an enum-like type for outbound room events. The string values
// are the wire protocol shared with clients.
type EventType string

const (
	EventRoomCreated        EventType = "ROOM_CREATED"        // addressed: room code + seat + empty state
	EventGameStarted        EventType = "GAME_STARTED"        // addressed: round 1 dealt
	EventGameUpdate         EventType = "GAME_UPDATE"         // addressed per seat: state snapshot after any mutation
	EventNewRound           EventType = "NEW_ROUND"           // addressed per seat: rematch resolved, fresh round dealt
	EventSpecialCardResult  EventType = "SPECIAL_CARD_RESULT" // caller-only: ability reveal payload
	EventRematchStatus      EventType = "REMATCH_STATUS"      // addressed per seat: one-sided rematch intent
	EventPlayerLeft         EventType = "PLAYER_LEFT"         // remaining seat: opponent left explicitly
	EventPlayerDisconnected EventType = "PLAYER_DISCONNECTED" // remaining seat: opponent's transport dropped
	EventError              EventType = "ERROR"               // offending caller only: rejected intent
)

// Event is the single outbound message shape. Fields are optional per type.
type Event struct {
	Type     EventType              `json:"type"`
	RoomCode string                 `json:"roomId,omitempty"`
	Seat     models.Seat            `json:"playerId,omitempty"`
	State    *Snapshot              `json:"gameState,omitempty"`
	CardType AbilityID              `json:"cardType,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
	Message  string                 `json:"message,omitempty"`
}
