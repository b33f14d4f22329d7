package game

// AutoPlay sends every card it can to the foundations, repeating until no
// more moves apply. Each move is its own undo step.
func (b *Board) AutoPlay() []MoveResult {
	var moved []MoveResult
	for {
		res, ok := b.autoPlayOne()
		if !ok {
			return moved
		}
		moved = append(moved, res)
	}
}

func (b *Board) autoPlayOne() (MoveResult, bool) {
	sources := []PileID{WasteID}
	for i := range b.cells {
		sources = append(sources, CellID(i))
	}
	for i := range b.columns {
		sources = append(sources, ColumnID(i))
	}

	for _, from := range sources {
		src, _ := b.Pile(from)
		top, ok := src.Peek()
		if !ok {
			continue
		}
		for i, f := range b.foundations {
			if !f.CanAccept(top) {
				continue
			}
			res, err := b.AttemptMove(from, &top, FoundationID(i))
			if err == nil {
				return res, true
			}
		}
	}
	return MoveResult{}, false
}
