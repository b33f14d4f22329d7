package game

import (
	"errors"

	"github.com/jason-s-yu/fourrow/internal/models"
)

// ErrNothingToUndo is returned by UndoLastMove on a fresh board.
var ErrNothingToUndo = errors.New("nothing to undo")

// snapshot is a full copy of the board taken before each change. Cards are
// values, so copying the slices is enough.
type snapshot struct {
	stock       []models.Card
	waste       []models.Card
	foundations [NumFoundations][]models.Card
	columns     [NumColumns][]models.Card
	cells       [][]models.Card

	visible    int
	throughs   int
	redealable bool
	moves      int
}

func (b *Board) capture() snapshot {
	s := snapshot{
		stock:      b.stock.Cards(),
		waste:      b.waste.Cards(),
		cells:      make([][]models.Card, len(b.cells)),
		visible:    b.waste.Visible(),
		throughs:   b.stock.Throughs(),
		redealable: b.stock.Redealable(),
		moves:      b.moves,
	}
	for i, f := range b.foundations {
		s.foundations[i] = f.Cards()
	}
	for i, c := range b.columns {
		s.columns[i] = c.Cards()
	}
	for i, c := range b.cells {
		s.cells[i] = c.Cards()
	}
	return s
}

func (b *Board) restore(s snapshot) {
	b.stock.Reset(s.stock)
	b.waste.Reset(s.waste)
	b.waste.SetVisible(s.visible)
	b.stock.SetProgress(s.throughs, s.redealable)
	for i, f := range b.foundations {
		f.Reset(s.foundations[i])
	}
	for i, c := range b.columns {
		c.Reset(s.columns[i])
	}
	for i, c := range b.cells {
		c.Reset(s.cells[i])
	}
	b.moves = s.moves
}

func (b *Board) record() {
	b.history = append(b.history, b.capture())
}

func (b *Board) popHistory() snapshot {
	s := b.history[len(b.history)-1]
	b.history = b.history[:len(b.history)-1]
	return s
}

// CanUndo reports whether there is a move to take back.
func (b *Board) CanUndo() bool { return len(b.history) > 0 }

// UndoLastMove restores the board exactly as it was before the last move or
// draw, including the waste's exposed count and the stock's pass counter.
func (b *Board) UndoLastMove() error {
	if len(b.history) == 0 {
		return ErrNothingToUndo
	}
	b.restore(b.popHistory())
	b.logger.Debug("undo")
	return nil
}
