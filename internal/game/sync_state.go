// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/fourrow/internal/models"
)

// BoardState is the client view of a session. Stock cards are face down, so
// only their count is sent.
type BoardState struct {
	GameID            uuid.UUID       `json:"gameId"`
	Rules             models.Rules    `json:"rules"`
	StockSize         int             `json:"stockSize"`
	Waste             []models.Card   `json:"waste"`
	WasteVisible      []models.Card   `json:"wasteVisible"`
	Foundations       [][]models.Card `json:"foundations"`
	Columns           [][]models.Card `json:"columns"`
	Cells             [][]models.Card `json:"cells"`
	Throughs          int             `json:"throughs"`
	ThroughsRemaining int             `json:"throughsRemaining"`
	StockState        string          `json:"stockState"`
	Moves             int             `json:"moves"`
	CanUndo           bool            `json:"canUndo"`
	Won               bool            `json:"won"`
}

// state builds the view. Assumes lock is held.
func (s *Session) state() BoardState {
	b := s.Board
	st := BoardState{
		GameID:            s.ID,
		Rules:             s.Rules,
		StockSize:         b.stock.Len(),
		Waste:             b.waste.Cards(),
		WasteVisible:      b.waste.VisibleCards(),
		Foundations:       make([][]models.Card, 0, len(b.foundations)),
		Columns:           make([][]models.Card, 0, len(b.columns)),
		Cells:             make([][]models.Card, 0, len(b.cells)),
		Throughs:          b.stock.Throughs(),
		ThroughsRemaining: b.stock.ThroughsRemaining(),
		StockState:        b.stock.State().String(),
		Moves:             b.Moves(),
		CanUndo:           b.CanUndo(),
		Won:               b.IsWon(),
	}
	for _, f := range b.foundations {
		st.Foundations = append(st.Foundations, f.Cards())
	}
	for _, c := range b.columns {
		st.Columns = append(st.Columns, c.Cards())
	}
	for _, c := range b.cells {
		st.Cells = append(st.Cells, c.Cards())
	}
	return st
}
