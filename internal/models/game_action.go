package models

import "github.com/google/uuid"

// Action types accepted from clients and stored in saved move lists.
const (
	ActionMove     = "action_move"
	ActionDraw     = "action_draw"
	ActionUndo     = "action_undo"
	ActionHint     = "action_hint"
	ActionAutoPlay = "action_autoplay"
)

// GameAction captures a player's request as it arrives from a transport,
// before it is resolved against a board.
type GameAction struct {
	ActionType string `json:"type"`

	// From and To are pile identifiers such as "column-2" or "waste".
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	// Card optionally names the grabbed card by short code ("QH").
	Card string `json:"card,omitempty"`
}

// GameActionRecord is one applied action as queued for the historian.
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	ActionIndex   int                    `json:"action_index"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}
