// internal/game/events.go
package game

import "github.com/google/uuid"

// GameEventType names an event broadcast to a session's listeners.
type GameEventType string

const (
	EventMove         GameEventType = "move"
	EventDraw         GameEventType = "draw"
	EventUndo         GameEventType = "undo"
	EventHint         GameEventType = "hint"
	EventWon          GameEventType = "won"
	EventLimitReached GameEventType = "limit_reached"
	EventSyncState    GameEventType = "sync_state"
)

// GameEvent is the JSON envelope pushed to clients. Only the field matching
// Type is set.
type GameEvent struct {
	Type   GameEventType `json:"type"`
	GameID uuid.UUID     `json:"gameId"`

	Move  *MoveResult `json:"move,omitempty"`
	Draw  *DrawResult `json:"draw,omitempty"`
	Hint  *Hint       `json:"hint,omitempty"`
	State *BoardState `json:"state,omitempty"`

	Payload map[string]interface{} `json:"payload,omitempty"`
}

// OnGameEndFunc is called once when a session is won.
type OnGameEndFunc func(s *Session)
