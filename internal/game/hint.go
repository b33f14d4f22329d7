package game

import (
	"github.com/jason-s-yu/fourrow/internal/models"
	"github.com/jason-s-yu/fourrow/internal/pile"
)

// Hint is a suggested next step: either a card move or a draw.
type Hint struct {
	Draw  bool         `json:"draw"`
	From  *PileID      `json:"from,omitempty"`
	To    *PileID      `json:"to,omitempty"`
	Card  *models.Card `json:"card,omitempty"`
	Count int          `json:"count,omitempty"`
}

type candidate struct {
	from    PileID
	run     *pile.Stack
	whole   bool // run starts at the bottom of its column
	settled bool // the card under the run already accepts its lead
}

// Hint finds a useful move. Foundation moves come first, then moves onto
// non-empty columns of runs not already resting on a valid parent, then
// Kings into empty columns. Free cells are never
// suggested as a destination. When no card can move and the stock can still
// deal or redeal, it suggests a draw.
func (b *Board) Hint() (Hint, bool) {
	cands := b.candidates()

	// foundations take single cards only
	for _, cd := range cands {
		if cd.run.Len() != 1 {
			continue
		}
		card, _ := cd.run.Lead()
		for i, f := range b.foundations {
			if f.CanAccept(card) {
				return moveHint(cd, FoundationID(i)), true
			}
		}
	}

	// moving a settled run to another column only swaps equivalent parents
	for _, cd := range cands {
		if cd.settled {
			continue
		}
		for i, col := range b.columns {
			id := ColumnID(i)
			if id == cd.from || col.Empty() {
				continue
			}
			if accepts(col, cd.run) {
				return moveHint(cd, id), true
			}
		}
	}

	for _, cd := range cands {
		if cd.whole {
			continue
		}
		for i, col := range b.columns {
			id := ColumnID(i)
			if id == cd.from || !col.Empty() {
				continue
			}
			if accepts(col, cd.run) {
				return moveHint(cd, id), true
			}
		}
	}

	if b.stock.CanDraw() {
		return Hint{Draw: true}, true
	}
	return Hint{}, false
}

// candidates lists every unit that could be picked up: the waste top, each
// occupied cell, and every suffix of each column's available run, longest
// first.
func (b *Board) candidates() []candidate {
	var out []candidate
	if run, ok := b.waste.AvailableRun(); ok {
		out = append(out, candidate{from: WasteID, run: run})
	}
	for i, c := range b.cells {
		if run, ok := c.AvailableRun(); ok {
			out = append(out, candidate{from: CellID(i), run: run})
		}
	}
	for i, col := range b.columns {
		run, ok := col.AvailableRun()
		if !ok {
			continue
		}
		for n := run.Len(); n >= 1; n-- {
			cd := candidate{
				from:  ColumnID(i),
				run:   run.SubStackTop(n),
				whole: n == col.Len(),
			}
			if !cd.whole {
				below, _ := col.CardAt(col.Len() - n - 1)
				lead, _ := cd.run.Lead()
				cd.settled = pile.IsRun([]models.Card{below, lead})
			}
			out = append(out, cd)
		}
	}
	return out
}

func moveHint(cd candidate, to PileID) Hint {
	lead, _ := cd.run.Lead()
	from := cd.from
	return Hint{From: &from, To: &to, Card: &lead, Count: cd.run.Len()}
}
